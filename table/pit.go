package table

import (
	"time"

	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/sched"
)

// InRecord tracks one downstream face awaiting Data for a PIT entry.
type InRecord struct {
	Face        uint64
	Interest    *ndn.Interest
	LatestNonce uint32
	LastRenewed time.Time
	Expiry      time.Time
}

// OutRecord tracks one upstream face a PIT entry has been forwarded to.
type OutRecord struct {
	Face      uint64
	LastNonce uint32
	LastSent  time.Time
}

// noNonce names the "no matching nonce" outcome; findNonce reports that
// outcome as false rather than returning this value.
const noNonce = -1

// PitEntry is a table of pending Interests keyed by name (+ MustBeFresh, the
// one selector this core tracks), holding InRecords and OutRecords and the
// two per-entry timers.
type PitEntry struct {
	Name        defn.Name
	MustBeFresh bool

	inRecords  map[uint64]*InRecord
	outRecords map[uint64]*OutRecord

	UnsatisfyTimer sched.Handle
	StragglerTimer sched.Handle

	node NodeID
}

func newPitEntry(name defn.Name, mustBeFresh bool, node NodeID) *PitEntry {
	return &PitEntry{
		Name:        name,
		MustBeFresh: mustBeFresh,
		inRecords:   make(map[uint64]*InRecord),
		outRecords:  make(map[uint64]*OutRecord),
		node:        node,
	}
}

// InRecords returns the live InRecord set, keyed by face id.
func (e *PitEntry) InRecords() map[uint64]*InRecord { return e.inRecords }

// OutRecords returns the live OutRecord set, keyed by face id.
func (e *PitEntry) OutRecords() map[uint64]*OutRecord { return e.outRecords }

// findNonce reports whether nonce appears in an InRecord on a face other
// than excluding.
func (e *PitEntry) findNonce(nonce uint32, excluding uint64) bool {
	for face, rec := range e.inRecords {
		if face == excluding {
			continue
		}
		if rec.LatestNonce == nonce {
			return true
		}
	}
	return false
}

// FindNonce is the exported form of findNonce, used by the forwarder's loop
// detection.
func (e *PitEntry) FindNonce(nonce uint32, excluding uint64) bool {
	return e.findNonce(nonce, excluding)
}

// InsertOrUpdateInRecord inserts a new InRecord for face, or renews the
// existing one, returning it.
func (e *PitEntry) InsertOrUpdateInRecord(face uint64, interest *ndn.Interest, now time.Time, lifetime time.Duration) *InRecord {
	rec, ok := e.inRecords[face]
	if !ok {
		rec = &InRecord{Face: face}
		e.inRecords[face] = rec
	}
	rec.Interest = interest
	rec.LatestNonce = interest.Nonce
	rec.LastRenewed = now
	rec.Expiry = now.Add(lifetime)
	return rec
}

// InsertOrUpdateOutRecord inserts a new OutRecord for face, or renews it.
func (e *PitEntry) InsertOrUpdateOutRecord(face uint64, interest *ndn.Interest, now time.Time) *OutRecord {
	rec, ok := e.outRecords[face]
	if !ok {
		rec = &OutRecord{Face: face}
		e.outRecords[face] = rec
	}
	rec.LastNonce = interest.Nonce
	rec.LastSent = now
	return rec
}

// OutRecord returns the OutRecord for face, if any.
func (e *PitEntry) OutRecord(face uint64) (*OutRecord, bool) {
	r, ok := e.outRecords[face]
	return r, ok
}

// DeleteInRecords clears all InRecords.
func (e *PitEntry) DeleteInRecords() {
	e.inRecords = make(map[uint64]*InRecord)
}

// DeleteOutRecord removes the OutRecord for a specific face, if present.
func (e *PitEntry) DeleteOutRecord(face uint64) {
	delete(e.outRecords, face)
}

// HasUnexpiredOutRecords reports whether the entry has any OutRecord,
// consulted by onInterestReject. OutRecords carry no expiry, so every
// OutRecord counts as unexpired until it is deleted.
func (e *PitEntry) HasUnexpiredOutRecords() bool {
	return len(e.outRecords) > 0
}

// LatestInRecordExpiry returns the latest InRecord expiry, used to arm the
// unsatisfy timer.
func (e *PitEntry) LatestInRecordExpiry() time.Time {
	var latest time.Time
	for _, rec := range e.inRecords {
		if rec.Expiry.After(latest) {
			latest = rec.Expiry
		}
	}
	return latest
}

// PIT is the Pending Interest Table.
type PIT struct {
	tree    *NameTree
	entries map[NodeID][]*PitEntry
}

// NewPIT constructs a PIT sharing the given NameTree.
func NewPIT(tree *NameTree) *PIT {
	return &PIT{tree: tree, entries: make(map[NodeID][]*PitEntry)}
}

// Insert returns the existing PitEntry for (name, mustBeFresh) or creates a
// new one.
func (p *PIT) Insert(interest *ndn.Interest) (*PitEntry, bool) {
	node := p.tree.FindOrInsert(interest.Name)
	for _, e := range p.entries[node] {
		if e.MustBeFresh == interest.MustBeFresh {
			return e, false
		}
	}
	e := newPitEntry(interest.Name, interest.MustBeFresh, node)
	p.entries[node] = append(p.entries[node], e)
	return e, true
}

// Erase removes a PitEntry from the table.
func (p *PIT) Erase(e *PitEntry) {
	list := p.entries[e.node]
	for i, cand := range list {
		if cand == e {
			p.entries[e.node] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// FindAllDataMatches returns every PitEntry whose name matches the given
// Data's name, used by the incoming Data pipeline's PIT match step. A Data
// satisfies a PIT entry if the entry's name equals the Data's name (exact
// match; prefix-based Interest selectors are outside this core's scope).
func (p *PIT) FindAllDataMatches(data *ndn.Data) []*PitEntry {
	node, ok := p.tree.Find(data.Name)
	if !ok {
		return nil
	}
	return append([]*PitEntry(nil), p.entries[node]...)
}
