package fw_test

import (
	"testing"
	"time"

	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/fw"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/producer"
	"github.com/nfd-probe/fw/sched"
	"github.com/stretchr/testify/assert"
)

// recordingFace is a downstream/local test double: it records every
// Interest/Data handed to it instead of crossing a transport.
type recordingFace struct {
	id        uint64
	local     bool
	interests []*ndn.Interest
	datas     []*ndn.Data
}

func (f *recordingFace) ID() uint64    { return f.id }
func (f *recordingFace) IsLocal() bool { return f.local }
func (f *recordingFace) SendInterest(i *ndn.Interest) { f.interests = append(f.interests, i) }
func (f *recordingFace) SendData(d *ndn.Data)         { f.datas = append(f.datas, d) }

// upstreamFace is a test double for a next hop that does not reply on its
// own; the test drives the reply explicitly via Forwarder.OnIncomingData.
type upstreamFace struct {
	id   uint64
	sent []*ndn.Interest
}

func (u *upstreamFace) ID() uint64              { return u.id }
func (u *upstreamFace) IsLocal() bool           { return false }
func (u *upstreamFace) SendInterest(i *ndn.Interest) { u.sent = append(u.sent, i) }
func (u *upstreamFace) SendData(*ndn.Data)          {}

// testLinkFace connects two forwarding nodes back to back, mirroring
// cmd/ndnfwsim's linkFace: a Send on this face is delivered as an incoming
// packet on the peer node.
type testLinkFace struct {
	id       uint64
	peer     *fw.Forwarder
	peerFace uint64
}

func (l *testLinkFace) ID() uint64                   { return l.id }
func (l *testLinkFace) IsLocal() bool                { return false }
func (l *testLinkFace) SendInterest(i *ndn.Interest) { l.peer.OnIncomingInterest(l.peerFace, i) }
func (l *testLinkFace) SendData(d *ndn.Data)         { l.peer.OnIncomingData(l.peerFace, d) }

func linkNodes(a, b *fw.Forwarder, faceOnA, faceOnB uint64) {
	a.Faces.Add(&testLinkFace{id: faceOnA, peer: b, peerFace: faceOnB})
	b.Faces.Add(&testLinkFace{id: faceOnB, peer: a, peerFace: faceOnA})
}

// TestScenarioS1SimpleMissThenSatisfy checks the baseline CS-miss-then-satisfy path.
func TestScenarioS1SimpleMissThenSatisfy(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	f1 := &upstreamFace{id: 101}
	a.Faces.Add(f0)
	a.Faces.Add(f1)
	a.FIB.AddNextHop(defn.NameFromStr("/x"), 101, 0)

	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 7})
	assert.Len(t, f1.sent, 1, "strategy must forward the miss to B")

	a.OnIncomingData(101, &ndn.Data{Name: defn.NameFromStr("/x"), Content: make([]byte, 1024)})

	_, ok := a.CS.Lookup(defn.NameFromStr("/x"))
	assert.True(t, ok, "A's CS must hold /x after satisfy")
	assert.Len(t, f0.datas, 1, "A must send Data out f0")

	assert.Equal(t, uint64(1), a.Counters.NInInterests)
	assert.Equal(t, uint64(1), a.Counters.NOutInterests)
	assert.Equal(t, uint64(1), a.Counters.NInDatas)
	assert.Equal(t, uint64(1), a.Counters.NOutDatas)
}

// TestScenarioS2LoopSuppression checks that a looped duplicate Interest is
// suppressed rather than forwarded again.
func TestScenarioS2LoopSuppression(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	f2 := &recordingFace{id: 102, local: true}
	upstream := &upstreamFace{id: 200}
	a.Faces.Add(f0)
	a.Faces.Add(f2)
	a.Faces.Add(upstream)
	a.FIB.AddNextHop(defn.NameFromStr("/x"), 200, 0)

	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 7})
	a.OnIncomingInterest(102, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 7})

	entry, isNew := a.PIT.Insert(&ndn.Interest{Name: defn.NameFromStr("/x")})
	assert.False(t, isNew)
	assert.Len(t, entry.InRecords(), 1, "the looped copy on f2 must not get its own InRecord")
	assert.Len(t, upstream.sent, 1, "only the first copy is forwarded upstream")
}

// TestScenarioS5Unsatisfy checks that an Interest with no Data reply is
// finalized and its nonce recorded in the Dead Nonce List.
func TestScenarioS5Unsatisfy(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)
	a.InterestLifetime = 20 * time.Millisecond

	f0 := &recordingFace{id: 100, local: true}
	upstream := &upstreamFace{id: 200}
	a.Faces.Add(f0)
	a.Faces.Add(upstream)
	a.FIB.AddNextHop(defn.NameFromStr("/y"), 200, 0)

	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/y"), Nonce: 55})

	time.Sleep(80 * time.Millisecond)

	_, isNew := a.PIT.Insert(&ndn.Interest{Name: defn.NameFromStr("/y")})
	assert.True(t, isNew, "the unsatisfied PIT entry must be finalized and erased")
	assert.True(t, a.DNL.Has(defn.NameFromStr("/y"), 55, scheduler.Now()),
		"unsatisfied finalize always inserts the OutRecord nonce into the DNL")
}

// TestScenarioS6StragglerKeepsEntryAliveBriefly checks that the PIT entry
// survives the fixed straggler window after a satisfy, then is finalized once
// it elapses.
func TestScenarioS6StragglerKeepsEntryAliveBriefly(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	upstream := &upstreamFace{id: 200}
	a.Faces.Add(f0)
	a.Faces.Add(upstream)
	a.FIB.AddNextHop(defn.NameFromStr("/x"), 200, 0)

	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 7})
	a.OnIncomingData(200, &ndn.Data{Name: defn.NameFromStr("/x"), Content: make([]byte, 1024)})

	time.Sleep(50 * time.Millisecond)
	_, isNewMidStraggler := a.PIT.Insert(&ndn.Interest{Name: defn.NameFromStr("/x")})
	assert.False(t, isNewMidStraggler, "the PIT entry must survive the 100ms straggler window")

	time.Sleep(80 * time.Millisecond)
	_, isNewAfterStraggler := a.PIT.Insert(&ndn.Interest{Name: defn.NameFromStr("/x")})
	assert.True(t, isNewAfterStraggler, "the PIT entry must be finalized once the straggler timer fires")
}

// TestScenarioProbeNotExpiredAcknowledgesWithoutCSMutation checks that a
// second Interest against already-cached content becomes a validation probe;
// the producer still agrees with the cached timestamp, so downstream is
// satisfied but the CS is left untouched.
func TestScenarioProbeNotExpiredAcknowledgesWithoutCSMutation(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	a.Faces.Add(f0)

	const prodFaceID = uint64(200)
	prod := producer.New(prodFaceID, producer.Config{Prefix: "/x", PayloadSize: 16, AverageUpdateTime: 10}, scheduler,
		func(d *ndn.Data) { a.OnIncomingData(prodFaceID, d) })
	a.Faces.Add(prod)
	a.FIB.AddNextHop(defn.NameFromStr("/x"), prodFaceID, 0)

	// First Interest: CS miss, goes straight to the producer and is cached.
	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 1})
	assert.Len(t, f0.datas, 1)

	entry, ok := a.CS.Lookup(defn.NameFromStr("/x"))
	assert.True(t, ok)
	originalTimestamp := entry.OriginTimestamp

	// Second Interest: no pending InRecords and a CS hit turns this into a
	// validation probe. The producer's lastUpdateTime hasn't moved, so it
	// replies with expirationFlag=0.
	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 2})

	assert.Len(t, f0.datas, 2, "downstream must still receive the acknowledgement")
	entry, ok = a.CS.Lookup(defn.NameFromStr("/x"))
	assert.True(t, ok)
	assert.Equal(t, originalTimestamp, entry.OriginTimestamp, "a not-expired probe reply must never mutate the CS")
}

// TestScenarioProbeExpiredRefreshesCS checks that a CS entry whose timestamp
// the producer disagrees with is replaced by the fresh Data the probe
// returns.
func TestScenarioProbeExpiredRefreshesCS(t *testing.T) {
	scheduler := sched.New()
	a := fw.New(0, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	a.Faces.Add(f0)

	const prodFaceID = uint64(200)
	prod := producer.New(prodFaceID, producer.Config{Prefix: "/x", PayloadSize: 16, AverageUpdateTime: 10}, scheduler,
		func(d *ndn.Data) { a.OnIncomingData(prodFaceID, d) })
	a.Faces.Add(prod)
	a.FIB.AddNextHop(defn.NameFromStr("/x"), prodFaceID, 0)

	stale := &ndn.Data{Name: defn.NameFromStr("/x"), Content: []byte("stale"), Timestamp: -1}
	a.CS.Insert(stale, scheduler.Now())

	a.OnIncomingInterest(100, &ndn.Interest{Name: defn.NameFromStr("/x"), Nonce: 1})

	assert.Len(t, f0.datas, 1)
	entry, ok := a.CS.Lookup(defn.NameFromStr("/x"))
	assert.True(t, ok)
	assert.NotEqual(t, -1, entry.OriginTimestamp, "the stale CS entry must be replaced by the producer's fresh reply")
}

// TestScenarioProbeTransitThroughTwoRelaysPopsPitListStack exercises the
// multi-hop validation-probe path end to end: edge -> relayA -> relayB ->
// producer, with the producer attached behind relayB. A CS hit at edge turns
// the second Interest into a probe; OnIncomingInterest's signal-flag branch
// pushes a PitList entry at both relayA and relayB on the way out, and the
// reply's transit
// branch of forwardProbeReply pops that stack one hop at a time on the way
// back until it reaches edge, the node whose NodeIndex matches the probe's.
func TestScenarioProbeTransitThroughTwoRelaysPopsPitListStack(t *testing.T) {
	scheduler := sched.New()
	edge := fw.New(0, scheduler, time.Second, nil)
	relayA := fw.New(1, scheduler, time.Second, nil)
	relayB := fw.New(2, scheduler, time.Second, nil)

	f0 := &recordingFace{id: 100, local: true}
	edge.Faces.Add(f0)

	const (
		edgeToRelayA   uint64 = 10
		relayAToEdge   uint64 = 11
		relayAToRelayB uint64 = 12
		relayBToRelayA uint64 = 13
		prodFaceID     uint64 = 200
	)
	linkNodes(edge, relayA, edgeToRelayA, relayAToEdge)
	linkNodes(relayA, relayB, relayAToRelayB, relayBToRelayA)

	name := defn.NameFromStr("/x")
	edge.FIB.AddNextHop(name, edgeToRelayA, 0)
	relayA.FIB.AddNextHop(name, relayAToRelayB, 0)
	relayB.FIB.AddNextHop(name, prodFaceID, 0)

	prod := producer.New(prodFaceID, producer.Config{Prefix: "/x", PayloadSize: 16, AverageUpdateTime: 10}, scheduler,
		func(d *ndn.Data) { relayB.OnIncomingData(prodFaceID, d) })
	relayB.Faces.Add(prod)

	// First Interest: CS miss at every hop, travels edge -> relayA -> relayB
	// -> producer and the Data is cached on the way back at each hop.
	edge.OnIncomingInterest(100, &ndn.Interest{Name: name, Nonce: 1})
	assert.Len(t, f0.datas, 1, "the first Interest must be satisfied end to end")

	_, ok := edge.CS.Lookup(name)
	assert.True(t, ok, "edge must cache the Data on the way back")
	_, ok = relayA.CS.Lookup(name)
	assert.True(t, ok, "relayA must cache the Data on the way back")
	_, ok = relayB.CS.Lookup(name)
	assert.True(t, ok, "relayB must cache the Data on the way back")

	// Second Interest: edge's CS hit turns this into a validation probe.
	// It crosses relayA then relayB (pushing PitList to depth 2, one entry
	// per relay) before reaching the producer, then unwinds back through
	// both relays via the NodeIndex-mismatch branch of forwardProbeReply.
	edge.OnIncomingInterest(100, &ndn.Interest{Name: name, Nonce: 2})

	assert.Len(t, f0.datas, 2, "the probe reply must reach the consumer after transiting both relays")
}
