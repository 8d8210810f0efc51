package table

import (
	"time"

	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
)

// CsEntry is a cached Data packet plus the freshness metadata and the
// origin timestamp the validation-probe protocol needs.
type CsEntry struct {
	Data              *ndn.Data
	FreshnessDeadline time.Time // zero = never stale
	OriginTimestamp   int
}

// CsBackend is the persistence seam a ContentStore may be built over. The
// in-memory index is always authoritative; a backend, when present, mirrors
// it durably. See BadgerBackend for the concrete adapter.
type CsBackend interface {
	Put(name defn.Name, wire []byte) error
	Remove(name defn.Name) error
	Close() error
}

// ContentStore is the name-indexed cache of Data packets, keyed by exact
// name, with freshness metadata and a per-entry origin timestamp.
type ContentStore struct {
	tree    *NameTree
	entries map[NodeID]*CsEntry
	backend CsBackend
}

// NewContentStore constructs a ContentStore sharing the given NameTree. If
// backend is non-nil, every insert is durably mirrored to it.
func NewContentStore(tree *NameTree, backend CsBackend) *ContentStore {
	return &ContentStore{
		tree:    tree,
		entries: make(map[NodeID]*CsEntry),
		backend: backend,
	}
}

// Insert inserts or replaces the cache entry for data.Name by exact name.
// now is used to compute the freshness deadline from data.FreshnessPeriod
// when present. The in-memory index is updated unconditionally; a non-nil
// error means only the backend mirror failed to persist the entry, which the
// caller should log and otherwise disregard.
func (cs *ContentStore) Insert(data *ndn.Data, now time.Time) error {
	node := cs.tree.FindOrInsert(data.Name)
	entry := &CsEntry{Data: data, OriginTimestamp: data.Timestamp}
	if ms, ok := data.FreshnessPeriod.Get(); ok {
		entry.FreshnessDeadline = now.Add(time.Duration(ms) * time.Millisecond)
	}
	cs.entries[node] = entry

	if cs.backend != nil {
		if err := cs.backend.Put(data.Name, data.Content); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the cache entry for an exact name match, if any.
func (cs *ContentStore) Lookup(name defn.Name) (*CsEntry, bool) {
	node, ok := cs.tree.Find(name)
	if !ok {
		return nil, false
	}
	entry, ok := cs.entries[node]
	return entry, ok
}

// Close releases the backing store, if any.
func (cs *ContentStore) Close() error {
	if cs.backend == nil {
		return nil
	}
	return cs.backend.Close()
}
