// Package fw implements the forwarding pipeline
// sections 4 and 5: the Interest/Data state machine, PIT aggregation, CS
// interaction, timers, the Dead Nonce List, and the validation-probe
// protocol. This is adapted from NFD/daemon/fw/forwarder.cpp (see
// original_source/), translated from the ns-3/ndnSIM single-threaded
// callback style into idiomatic Go.
package fw

import (
	"time"

	"github.com/nfd-probe/fw/core"
	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/sched"
	"github.com/nfd-probe/fw/table"
)

// StragglerTime is the fixed post-satisfy/reject cleanup delay: how long a
// PIT entry survives after its last record is satisfied or rejected, to
// absorb late-arriving duplicate Data.
const StragglerTime = 100 * time.Millisecond

// DefaultInterestLifetime is the lifetime given to an InRecord when none is
// otherwise specified.
const DefaultInterestLifetime = 4 * time.Second

// Forwarder is one node's forwarding core: the Interest/Data pipeline
// stages plus the tables and timers they operate on.
type Forwarder struct {
	NodeIndex int

	Faces      *table.FaceTable
	Tree       *table.NameTree
	PIT        *table.PIT
	CS         *table.ContentStore
	FIB        *table.FIB
	DNL        *table.DeadNonceList
	Strategies *StrategyChoice
	Counters   table.Counters

	sched *sched.Scheduler

	// InterestLifetime is applied to every new/renewed InRecord; a real
	// deployment would read this off the Interest's own lifetime field,
	// which this core's simplified Interest type does not carry.
	InterestLifetime time.Duration
}

// New constructs a Forwarder for node nodeIndex, sharing one NameTree across
// its PIT, CS and FIB.
func New(nodeIndex int, scheduler *sched.Scheduler, dnlLifetime time.Duration, csBackend table.CsBackend) *Forwarder {
	tree := table.NewNameTree()
	f := &Forwarder{
		NodeIndex:        nodeIndex,
		Faces:            table.NewFaceTable(),
		Tree:             tree,
		PIT:              table.NewPIT(tree),
		CS:               table.NewContentStore(tree, csBackend),
		FIB:              table.NewFIB(tree),
		DNL:              table.NewDeadNonceList(dnlLifetime),
		sched:            scheduler,
		InterestLifetime: DefaultInterestLifetime,
	}
	f.Strategies = NewStrategyChoice(NewMulticast(f))
	return f
}

// String satisfies core.Subsystem for logging.
func (f *Forwarder) String() string { return "forwarder" }

func (f *Forwarder) now() time.Time { return f.sched.Now() }

// ---- Incoming Interest pipeline ----

// OnIncomingInterest is the entry point for an Interest arriving on inFace.
func (f *Forwarder) OnIncomingInterest(inFace uint64, interest *ndn.Interest) {
	interest.IncomingFaceID = inFace
	f.Counters.NInInterests++

	face, ok := f.Faces.Get(inFace)
	if !ok {
		core.Log.Warn(f, "onIncomingInterest from unregistered face", "faceid", inFace)
		return
	}

	if !face.IsLocal() && defn.LocalhostPrefix.IsPrefixOf(interest.Name) {
		core.Log.Debug(f, "onIncomingInterest violates /localhost", "faceid", inFace, "name", interest.Name.String())
		return
	}

	pitEntry, _ := f.PIT.Insert(interest)

	if pitEntry.FindNonce(interest.Nonce, inFace) || f.DNL.Has(interest.Name, interest.Nonce, f.now()) {
		f.onInterestLoop(inFace, interest, pitEntry)
		return
	}

	f.cancelUnsatisfyAndStragglerTimer(pitEntry)

	if interest.SignalFlag == 1 {
		interest.PitList = append(interest.PitList, inFace)
		f.onInterestSignalForward(inFace, pitEntry, interest)
		return
	}

	if len(pitEntry.InRecords()) == 0 {
		if entry, ok := f.CS.Lookup(interest.Name); ok {
			interest.SignalFlag = 1
			interest.Timestamp = entry.OriginTimestamp
			interest.NodeIndex = f.NodeIndex
			f.onContentStoreHitCheck(inFace, pitEntry, interest)
			return
		}
	}
	f.onContentStoreMiss(inFace, pitEntry, interest)
}

// ---- onContentStoreHitCheck (validation probe outbound) ----

func (f *Forwarder) onContentStoreHitCheck(inFace uint64, pitEntry *table.PitEntry, interest *ndn.Interest) {
	core.Log.Debug(f, "onContentStoreHitCheck", "name", interest.Name.String())

	pitEntry.InsertOrUpdateInRecord(inFace, interest, f.now(), f.InterestLifetime)
	f.setUnsatisfyTimer(pitEntry)

	fibEntry := f.FIB.FindLongestPrefixMatch(pitEntry.Name)
	strategy := f.Strategies.FindEffectiveStrategy(pitEntry.Name)
	strategy.AfterReceiveInterest(inFace, interest, fibEntry, pitEntry)
	// The PIT entry is kept (no erase) to aggregate downstream waiters on
	// the probe.
}

// ---- onInterestSignalForward (probe traversal) ----

func (f *Forwarder) onInterestSignalForward(inFace uint64, pitEntry *table.PitEntry, interest *ndn.Interest) {
	core.Log.Debug(f, "onInterestSignalForward", "name", interest.Name.String())

	pitEntry.InsertOrUpdateInRecord(inFace, interest, f.now(), f.InterestLifetime)
	// No unsatisfy timer: the probe relies on the server's reply arriving
	// along the same pitList, not on a local timeout.

	fibEntry := f.FIB.FindLongestPrefixMatch(pitEntry.Name)
	strategy := f.Strategies.FindEffectiveStrategy(pitEntry.Name)
	strategy.AfterReceiveInterest(inFace, interest, fibEntry, pitEntry)

	f.PIT.Erase(pitEntry)
}

// ---- onContentStoreMiss ----

func (f *Forwarder) onContentStoreMiss(inFace uint64, pitEntry *table.PitEntry, interest *ndn.Interest) {
	core.Log.Debug(f, "onContentStoreMiss", "name", interest.Name.String())

	pitEntry.InsertOrUpdateInRecord(inFace, interest, f.now(), f.InterestLifetime)
	f.setUnsatisfyTimer(pitEntry)

	fibEntry := f.FIB.FindLongestPrefixMatch(pitEntry.Name)
	strategy := f.Strategies.FindEffectiveStrategy(pitEntry.Name)
	strategy.AfterReceiveInterest(inFace, interest, fibEntry, pitEntry)
}

// ---- onContentStoreHit (legacy direct hit, unused by the probe path) ----

func (f *Forwarder) onContentStoreHit(inFace uint64, pitEntry *table.PitEntry, interest *ndn.Interest, entry *table.CsEntry) {
	core.Log.Debug(f, "onContentStoreHit", "name", interest.Name.String())

	strategy := f.Strategies.FindEffectiveStrategy(pitEntry.Name)
	strategy.BeforeSatisfyInterest(pitEntry, defn.FaceIDContentStore, entry.Data)

	data := entry.Data.Clone()
	data.IncomingFaceID = defn.FaceIDContentStore

	f.setStragglerTimer(pitEntry, true, entry.Data.FreshnessPeriod)
	f.OnOutgoingData(data, inFace)
}

// ---- onInterestLoop ----

func (f *Forwarder) onInterestLoop(inFace uint64, interest *ndn.Interest, pitEntry *table.PitEntry) {
	core.Log.Debug(f, "onInterestLoop", "faceid", inFace, "name", interest.Name.String())
	// (drop). This entry point exists so strategies can be informed and
	// future policies can, e.g., send a Nack.
}

// ---- onOutgoingInterest ----

// SendOutgoingInterest implements StrategyHost for the forwarder itself: the
// onOutgoingInterest pipeline stage.
func (f *Forwarder) SendOutgoingInterest(pitEntry *table.PitEntry, outFace uint64, wantNewNonce bool) {
	if outFace == defn.InvalidFaceID {
		core.Log.Warn(f, "onOutgoingInterest face=invalid", "name", pitEntry.Name.String())
		return
	}
	face, ok := f.Faces.Get(outFace)
	if !ok {
		core.Log.Warn(f, "onOutgoingInterest face=unregistered", "faceid", outFace, "name", pitEntry.Name.String())
		return
	}
	if f.violatesScope(pitEntry.Name, face) {
		core.Log.Debug(f, "onOutgoingInterest violates scope", "faceid", outFace, "name", pitEntry.Name.String())
		return
	}

	interest := f.pickInterest(pitEntry, outFace)
	if interest == nil {
		core.Log.Warn(f, "onOutgoingInterest no InRecord to pick from", "name", pitEntry.Name.String())
		return
	}

	if wantNewNonce {
		interest = interest.Clone()
		interest.Nonce = core.NewNonce()
	}

	pitEntry.InsertOrUpdateOutRecord(outFace, interest, f.now())
	face.SendInterest(interest)
	f.Counters.NOutInterests++
}

// pickInterest prefers the latest-renewed InRecord whose face differs from
// outFace; it falls back to an outFace-only record if that is the only one.
func (f *Forwarder) pickInterest(pitEntry *table.PitEntry, outFace uint64) *ndn.Interest {
	var best *table.InRecord
	for _, rec := range pitEntry.InRecords() {
		if best == nil {
			best = rec
			continue
		}
		bestIsOut := best.Face == outFace
		recIsOut := rec.Face == outFace
		switch {
		case bestIsOut && !recIsOut:
			best = rec
		case !bestIsOut && recIsOut:
			// keep best
		default:
			if rec.LastRenewed.After(best.LastRenewed) {
				best = rec
			}
		}
	}
	if best == nil {
		return nil
	}
	return best.Interest
}

func (f *Forwarder) violatesScope(name defn.Name, face ndn.Face) bool {
	return !face.IsLocal() && defn.LocalhostPrefix.IsPrefixOf(name)
}

// ---- onInterestReject / onInterestUnsatisfied / onInterestFinalize ----

// OnInterestReject is valid only if the PIT entry has no OutRecords
// (OutRecords carry no expiry, so any OutRecord blocks the reject); a
// strategy must not reject an Interest it has already forwarded.
func (f *Forwarder) OnInterestReject(pitEntry *table.PitEntry) {
	if pitEntry.HasUnexpiredOutRecords() {
		core.Log.Error(f, "onInterestReject cannot reject forwarded Interest", "name", pitEntry.Name.String())
		return
	}
	core.Log.Debug(f, "onInterestReject", "name", pitEntry.Name.String())

	f.cancelUnsatisfyAndStragglerTimer(pitEntry)
	f.setStragglerTimer(pitEntry, false, defn.None[int]())
}

func (f *Forwarder) onInterestUnsatisfied(pitEntry *table.PitEntry) {
	core.Log.Debug(f, "onInterestUnsatisfied", "name", pitEntry.Name.String())

	strategy := f.Strategies.FindEffectiveStrategy(pitEntry.Name)
	strategy.BeforeExpirePendingInterest(pitEntry)

	f.onInterestFinalize(pitEntry, false, defn.None[int]())
}

func (f *Forwarder) onInterestFinalize(pitEntry *table.PitEntry, isSatisfied bool, dataFreshnessPeriod defn.Optional[int]) {
	core.Log.Debug(f, "onInterestFinalize", "name", pitEntry.Name.String(), "satisfied", isSatisfied)

	f.insertDeadNonceList(pitEntry, isSatisfied, dataFreshnessPeriod, nil)

	f.cancelUnsatisfyAndStragglerTimer(pitEntry)
	f.PIT.Erase(pitEntry)
}

// ---- Incoming Data pipeline ----

// OnIncomingData is the entry point for Data arriving on inFace.
func (f *Forwarder) OnIncomingData(inFace uint64, data *ndn.Data) {
	data.IncomingFaceID = inFace
	f.Counters.NInDatas++

	face, ok := f.Faces.Get(inFace)
	if !ok {
		core.Log.Warn(f, "onIncomingData from unregistered face", "faceid", inFace)
		return
	}
	if !face.IsLocal() && defn.LocalhostPrefix.IsPrefixOf(data.Name) {
		core.Log.Debug(f, "onIncomingData violates /localhost", "faceid", inFace, "name", data.Name.String())
		return
	}

	if data.SignalFlag == 0 {
		f.satisfyNormalData(inFace, data, true)
		return
	}

	// signalFlag == 1: validation-probe reply.
	if data.NodeIndex == f.NodeIndex {
		data.SignalFlag = 0
		if data.ExpirationFlag == 1 {
			// Cached copy was stale; server returned fresh data: proceed
			// exactly as the normal-Data branch.
			f.satisfyNormalData(inFace, data, true)
		} else {
			// "Not expired" acknowledgement: satisfy waiters, but never
			// touch the CS on this node.
			f.satisfyNormalData(inFace, data, false)
		}
		return
	}

	// signalFlag == 1 and nodeIndex != local: probe reply in transit, routed
	// back via pitList rather than a fresh PIT lookup.
	f.forwardProbeReply(data)
}

// satisfyNormalData implements the shared PIT-match/CS-insert/fan-out body
// used by the normal-Data branch and by both sub-cases of a probe reply
// arriving at its originating node.
func (f *Forwarder) satisfyNormalData(inFace uint64, data *ndn.Data, updateCS bool) {
	matches := f.PIT.FindAllDataMatches(data)
	if len(matches) == 0 {
		f.onDataUnsolicited(inFace, data)
		return
	}

	if updateCS {
		if err := f.CS.Insert(data.Clone(), f.now()); err != nil {
			core.Log.Warn(f, "onIncomingData CS backend put failed", "name", data.Name.String(), "err", err)
		}
	}

	pendingDownstreams := map[uint64]struct{}{}
	now := f.now()
	strategy := f.Strategies.FindEffectiveStrategy(data.Name)

	for _, pitEntry := range matches {
		core.Log.Debug(f, "onIncomingData matching", "name", pitEntry.Name.String())

		f.cancelUnsatisfyAndStragglerTimer(pitEntry)

		for face, rec := range pitEntry.InRecords() {
			if rec.Expiry.After(now) {
				pendingDownstreams[face] = struct{}{}
			}
		}

		strategy.BeforeSatisfyInterest(pitEntry, inFace, data)

		f.insertDeadNonceList(pitEntry, true, data.FreshnessPeriod, &inFace)

		pitEntry.DeleteInRecords()
		pitEntry.DeleteOutRecord(inFace)

		f.setStragglerTimer(pitEntry, true, data.FreshnessPeriod)
	}

	for face := range pendingDownstreams {
		if face == inFace {
			continue
		}
		f.OnOutgoingData(data, face)
	}
}

// forwardProbeReply routes a probe reply back one hop using pitList as a
// source route, with no PIT consultation.
func (f *Forwarder) forwardProbeReply(data *ndn.Data) {
	if len(data.PitList) == 0 {
		core.Log.Error(f, "onIncomingData empty pitList on probe reply transit", "name", data.Name.String())
		return
	}

	nextHop := data.PitList[len(data.PitList)-1]
	data.PitList = data.PitList[:len(data.PitList)-1]

	if data.ExpirationFlag == 1 {
		// signalFlag is only cleared here; a not-expired transit reply
		// continues downstream still flagged as a probe reply.
		data.SignalFlag = 0
		if err := f.CS.Insert(data.Clone(), f.now()); err != nil {
			core.Log.Warn(f, "onIncomingData probe-reply CS backend put failed", "name", data.Name.String(), "err", err)
		}
	}

	f.OnOutgoingData(data, nextHop)
}

// ---- onDataUnsolicited ----

func (f *Forwarder) onDataUnsolicited(inFace uint64, data *ndn.Data) {
	face, ok := f.Faces.Get(inFace)
	accept := ok && face.IsLocal()
	if accept {
		if err := f.CS.Insert(data.Clone(), f.now()); err != nil {
			core.Log.Warn(f, "onDataUnsolicited CS backend put failed", "name", data.Name.String(), "err", err)
		}
	}
	core.Log.Debug(f, "onDataUnsolicited", "faceid", inFace, "name", data.Name.String(), "cached", accept)
}

// ---- onOutgoingData ----

// OnOutgoingData is the outgoing Data pipeline stage.
func (f *Forwarder) OnOutgoingData(data *ndn.Data, outFace uint64) {
	if outFace == defn.InvalidFaceID {
		core.Log.Warn(f, "onOutgoingData face=invalid", "name", data.Name.String())
		return
	}
	face, ok := f.Faces.Get(outFace)
	if !ok {
		core.Log.Warn(f, "onOutgoingData face=unregistered", "faceid", outFace, "name", data.Name.String())
		return
	}
	if !face.IsLocal() && defn.LocalhostPrefix.IsPrefixOf(data.Name) {
		core.Log.Debug(f, "onOutgoingData violates /localhost", "faceid", outFace, "name", data.Name.String())
		return
	}

	face.SendData(data)
	f.Counters.NOutDatas++
}

// ---- Timers ----

func (f *Forwarder) setUnsatisfyTimer(pitEntry *table.PitEntry) {
	lastExpiry := pitEntry.LatestInRecordExpiry()
	delay := lastExpiry.Sub(f.now())
	if delay < 0 {
		delay = 0
	}
	f.sched.Cancel(pitEntry.UnsatisfyTimer)
	pitEntry.UnsatisfyTimer = f.sched.Schedule(delay, func() {
		f.onInterestUnsatisfied(pitEntry)
	})
}

func (f *Forwarder) setStragglerTimer(pitEntry *table.PitEntry, isSatisfied bool, dataFreshnessPeriod defn.Optional[int]) {
	f.sched.Cancel(pitEntry.StragglerTimer)
	pitEntry.StragglerTimer = f.sched.Schedule(StragglerTime, func() {
		f.onInterestFinalize(pitEntry, isSatisfied, dataFreshnessPeriod)
	})
}

func (f *Forwarder) cancelUnsatisfyAndStragglerTimer(pitEntry *table.PitEntry) {
	f.sched.Cancel(pitEntry.UnsatisfyTimer)
	f.sched.Cancel(pitEntry.StragglerTimer)
	pitEntry.UnsatisfyTimer = nil
	pitEntry.StragglerTimer = nil
}

// ---- Dead Nonce List insertion ----

func (f *Forwarder) insertDeadNonceList(pitEntry *table.PitEntry, isSatisfied bool, dataFreshnessPeriod defn.Optional[int], upstream *uint64) {
	needDNL := true
	if isSatisfied {
		ms, hasFreshness := dataFreshnessPeriod.Get()
		needDNL = pitEntry.MustBeFresh && hasFreshness &&
			time.Duration(ms)*time.Millisecond < f.DNL.Lifetime()
	}
	if !needDNL {
		return
	}

	now := f.now()
	if upstream == nil {
		for _, rec := range pitEntry.OutRecords() {
			f.DNL.Add(pitEntry.Name, rec.LastNonce, now)
		}
		return
	}
	if rec, ok := pitEntry.OutRecord(*upstream); ok {
		f.DNL.Add(pitEntry.Name, rec.LastNonce, now)
	}
}
