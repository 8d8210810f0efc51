package table

import (
	"testing"
	"time"

	"github.com/nfd-probe/fw/defn"
	"github.com/stretchr/testify/assert"
)

func TestDeadNonceListHasAfterAdd(t *testing.T) {
	dnl := NewDeadNonceList(time.Second)
	now := time.Now()
	name := defn.NameFromStr("/a/b")

	assert.False(t, dnl.Has(name, 1, now))
	dnl.Add(name, 1, now)
	assert.True(t, dnl.Has(name, 1, now))
}

func TestDeadNonceListEntryExpires(t *testing.T) {
	dnl := NewDeadNonceList(time.Second)
	now := time.Now()
	name := defn.NameFromStr("/a/b")

	dnl.Add(name, 1, now)
	assert.False(t, dnl.Has(name, 1, now.Add(2*time.Second)))
}

func TestDeadNonceListAddRenewsExistingEntry(t *testing.T) {
	dnl := NewDeadNonceList(time.Second)
	now := time.Now()
	name := defn.NameFromStr("/a/b")

	dnl.Add(name, 1, now)
	dnl.Add(name, 1, now.Add(900*time.Millisecond))

	assert.True(t, dnl.Has(name, 1, now.Add(1800*time.Millisecond)))
}

func TestDeadNonceListDistinguishesNonceAndName(t *testing.T) {
	dnl := NewDeadNonceList(time.Second)
	now := time.Now()
	dnl.Add(defn.NameFromStr("/a/b"), 1, now)

	assert.False(t, dnl.Has(defn.NameFromStr("/a/b"), 2, now))
	assert.False(t, dnl.Has(defn.NameFromStr("/a/c"), 1, now))
}
