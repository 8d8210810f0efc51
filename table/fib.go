package table

import "github.com/nfd-probe/fw/defn"

// FibNextHopEntry is one next-hop face a FIB entry forwards to, with a
// routing cost the strategy may use to rank candidates.
type FibNextHopEntry struct {
	Nexthop uint64
	Cost    uint64
}

// FibEntry is the FIB's longest-prefix-match unit: a registered name and its
// set of next-hop faces.
type FibEntry struct {
	name     defn.Name
	nexthops []*FibNextHopEntry
}

// Name returns the FIB entry's registered prefix.
func (e *FibEntry) Name() defn.Name { return e.name }

// NextHops returns the entry's next-hop face set.
func (e *FibEntry) NextHops() []*FibNextHopEntry { return e.nexthops }

// FIB is the Forwarding Information Base. Population is external (e.g. a
// routing protocol or static config); this core only exposes it through
// AddNextHop and FindLongestPrefixMatch.
type FIB struct {
	tree    *NameTree
	entries map[NodeID]*FibEntry
}

// NewFIB constructs a FIB sharing the given NameTree.
func NewFIB(tree *NameTree) *FIB {
	return &FIB{tree: tree, entries: make(map[NodeID]*FibEntry)}
}

// AddNextHop registers face as a next hop for prefix, replacing any existing
// cost for that face.
func (f *FIB) AddNextHop(prefix defn.Name, face uint64, cost uint64) {
	node := f.tree.FindOrInsert(prefix)
	entry, ok := f.entries[node]
	if !ok {
		entry = &FibEntry{name: prefix.Clone()}
		f.entries[node] = entry
	}
	for _, nh := range entry.nexthops {
		if nh.Nexthop == face {
			nh.Cost = cost
			return
		}
	}
	entry.nexthops = append(entry.nexthops, &FibNextHopEntry{Nexthop: face, Cost: cost})
}

// FindLongestPrefixMatch returns the FIB entry registered at the longest
// prefix of name that has one, or nil if no ancestor is registered.
func (f *FIB) FindLongestPrefixMatch(name defn.Name) *FibEntry {
	node := f.tree.LongestPrefixMatch(name)
	for _, id := range f.tree.Ancestors(node) {
		if entry, ok := f.entries[id]; ok {
			return entry
		}
	}
	return nil
}
