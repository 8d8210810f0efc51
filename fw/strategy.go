package fw

import (
	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/table"
)

// StrategyHost is the subset of the Forwarder a Strategy is allowed to call
// back into: sending a selected outgoing Interest. Strategy policy itself is
// external.
type StrategyHost interface {
	SendOutgoingInterest(pitEntry *table.PitEntry, outFace uint64, wantNewNonce bool)
}

// Strategy is the interface the forwarder dispatches to: the three
// callbacks a forwarding policy implements.
type Strategy interface {
	String() string
	AfterReceiveInterest(inFace uint64, interest *ndn.Interest, fibEntry *table.FibEntry, pitEntry *table.PitEntry)
	BeforeSatisfyInterest(pitEntry *table.PitEntry, inFace uint64, data *ndn.Data)
	BeforeExpirePendingInterest(pitEntry *table.PitEntry)
}

// StrategyBase gives a strategy implementation its host reference and name;
// concrete strategies embed it (see Multicast).
type StrategyBase struct {
	host StrategyHost
	name string
}

// Init wires the strategy to its host forwarder under the given name.
func (s *StrategyBase) Init(host StrategyHost, name string) {
	s.host = host
	s.name = name
}

// String satisfies core.Subsystem / fmt.Stringer for logging.
func (s *StrategyBase) String() string { return s.name }

// SendInterest asks the forwarder's onOutgoingInterest pipeline stage to
// forward pitEntry's Interest out outFace.
func (s *StrategyBase) SendInterest(pitEntry *table.PitEntry, outFace uint64, wantNewNonce bool) {
	s.host.SendOutgoingInterest(pitEntry, outFace, wantNewNonce)
}

// StrategyChoice maps name prefixes to the Strategy instance that governs
// them, with longest-prefix-match lookup.
type StrategyChoice struct {
	byPrefix []strategyChoiceEntry
	fallback Strategy
}

type strategyChoiceEntry struct {
	prefix   defn.Name
	strategy Strategy
}

// NewStrategyChoice constructs a StrategyChoice whose root (/) strategy is
// fallback; every name falls back to it unless a longer prefix is set.
func NewStrategyChoice(fallback Strategy) *StrategyChoice {
	return &StrategyChoice{fallback: fallback}
}

// Set installs strategy as the governing strategy for prefix.
func (c *StrategyChoice) Set(prefix defn.Name, strategy Strategy) {
	for i, e := range c.byPrefix {
		if e.prefix.Equal(prefix) {
			c.byPrefix[i].strategy = strategy
			return
		}
	}
	c.byPrefix = append(c.byPrefix, strategyChoiceEntry{prefix: prefix.Clone(), strategy: strategy})
}

// FindEffectiveStrategy returns the longest registered prefix's strategy
// governing name, or the fallback if none matches.
func (c *StrategyChoice) FindEffectiveStrategy(name defn.Name) Strategy {
	best := c.fallback
	bestLen := -1
	for _, e := range c.byPrefix {
		if e.prefix.IsPrefixOf(name) && len(e.prefix) > bestLen {
			best = e.strategy
			bestLen = len(e.prefix)
		}
	}
	return best
}
