// Package ndn defines the Interest and Data packet types carried through the
// forwarding core, including the freshness-validation-probe annotation
// fields, and the Face interface the core consumes.
package ndn

import "github.com/nfd-probe/fw/defn"

// Interest is a request packet. Fields beyond Name/Nonce/MustBeFresh are
// forwarder annotations mutated in place as the packet advances through the
// pipeline.
type Interest struct {
	Name        defn.Name
	Nonce       uint32
	MustBeFresh bool

	// IncomingFaceID is stamped by onIncomingInterest.
	IncomingFaceID uint64

	// SignalFlag marks a validation-probe Interest (1) vs. a normal one (0).
	SignalFlag int
	// Timestamp carries the cached copy's origin timestamp on a probe.
	Timestamp int
	// NodeIndex is the id of the node that originated the probe.
	NodeIndex int
	// PitList is the source-routed stack of face ids accumulated while the
	// probe traverses intermediate nodes, represented as an ordered stack
	// rather than a stringly-typed buffer.
	PitList []uint64
}

// Clone returns a deep-enough copy suitable for giving a fresh Nonce or for
// per-face annotation divergence when fanning out.
func (i *Interest) Clone() *Interest {
	c := *i
	c.Name = i.Name.Clone()
	c.PitList = append([]uint64(nil), i.PitList...)
	return &c
}

// Data is a response packet, mirroring the annotation fields added to
// Interest plus the reply-only ExpirationFlag.
type Data struct {
	Name            defn.Name
	FreshnessPeriod defn.Optional[int] // milliseconds; absent = never stale
	Content         []byte
	SignalFlag      int
	ExpirationFlag  int
	Timestamp       int
	NodeIndex       int
	PitList         []uint64
	IncomingFaceID  uint64
}

// Clone returns an independent copy of the Data packet. The forwarder clones
// a packet before caching it, so the cached copy is unaffected by the
// in-place annotation changes (SignalFlag clear, PitList pop) it makes to the
// packet it forwards.
func (d *Data) Clone() *Data {
	c := *d
	c.Name = d.Name.Clone()
	c.Content = append([]byte(nil), d.Content...)
	c.PitList = append([]uint64(nil), d.PitList...)
	return &c
}

// Face is the minimal transport-facing interface the core consumes. Wire
// encoding and concrete transports are out of scope; this is the seam a
// real transport, or a test double, implements.
type Face interface {
	ID() uint64
	IsLocal() bool
	SendInterest(i *Interest)
	SendData(d *Data)
}
