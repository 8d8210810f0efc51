package table

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/nfd-probe/fw/defn"
)

// BadgerBackend persists Content Store entries to disk, adapted from the
// teacher's std/object/storage BadgerStore (Get/Put/Remove keyed by name) to
// the ContentStore's insert-or-replace-by-exact-name semantics: there is no
// prefix lookup here, only exact-name Put/Remove, since probe-aware
// freshness is tracked in the in-memory CsEntry, not rederived from disk.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (creating if necessary) a Badger database at path.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	db, err := badger.Open(badger.DefaultOptions(path))
	if err != nil {
		return nil, err
	}
	return &BadgerBackend{db: db}, nil
}

func nameKey(name defn.Name) []byte {
	return []byte(strings.Join(name, "/"))
}

// Put stores the given bytes for name; ContentStore.Insert passes the Data's
// Content.
func (b *BadgerBackend) Put(name defn.Name, wire []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nameKey(name), wire)
	})
}

// Remove deletes the entry for name, if any.
func (b *BadgerBackend) Remove(name defn.Name) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nameKey(name))
	})
}

// Close closes the underlying database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
