package fw

import (
	"time"

	"github.com/nfd-probe/fw/core"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/table"
)

// MulticastSuppressionTime is the time to suppress retransmissions of the
// same Interest.
const MulticastSuppressionTime = 500 * time.Millisecond

// Multicast is the one forwarding strategy this core ships: it forwards an
// Interest to every FIB nexthop. It has no AfterContentStoreHit callback
// because a CS hit never reaches a strategy here; the forwarder converts it
// into a validation probe before any strategy is consulted.
type Multicast struct {
	StrategyBase
}

// NewMulticast constructs a Multicast strategy bound to host.
func NewMulticast(host StrategyHost) *Multicast {
	m := &Multicast{}
	m.Init(host, "multicast")
	return m
}

// AfterReceiveInterest suppresses retransmitted Interests with differing
// nonces within the suppression interval and otherwise forwards to every FIB
// nexthop.
func (s *Multicast) AfterReceiveInterest(
	inFace uint64,
	interest *ndn.Interest,
	fibEntry *table.FibEntry,
	pitEntry *table.PitEntry,
) {
	if fibEntry == nil || len(fibEntry.NextHops()) == 0 {
		core.Log.Debug(s, "No nexthop for Interest", "name", interest.Name.String())
		return
	}

	now := time.Now()
	for _, outRecord := range pitEntry.OutRecords() {
		if outRecord.LastNonce != interest.Nonce &&
			outRecord.LastSent.Add(MulticastSuppressionTime).After(now) {
			core.Log.Debug(s, "Suppressed Interest", "name", interest.Name.String())
			return
		}
	}

	for _, nexthop := range fibEntry.NextHops() {
		if nexthop.Nexthop == inFace {
			continue
		}
		core.Log.Trace(s, "Forwarding Interest", "name", interest.Name.String(), "faceid", nexthop.Nexthop)
		s.SendInterest(pitEntry, nexthop.Nexthop, false)
	}
}

// BeforeSatisfyInterest is a no-op in Multicast.
func (s *Multicast) BeforeSatisfyInterest(pitEntry *table.PitEntry, inFace uint64, data *ndn.Data) {
}

// BeforeExpirePendingInterest is a no-op in Multicast.
func (s *Multicast) BeforeExpirePendingInterest(pitEntry *table.PitEntry) {
}
