package table

// Counters tracks the monotonic packet counters a node reports.
type Counters struct {
	NInInterests  uint64
	NOutInterests uint64
	NInDatas      uint64
	NOutDatas     uint64
}
