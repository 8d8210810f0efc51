package table

import (
	"testing"
	"time"

	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
	"github.com/stretchr/testify/assert"
)

func newInterest(name string, nonce uint32) *ndn.Interest {
	return &ndn.Interest{Name: defn.NameFromStr(name), Nonce: nonce}
}

func TestPITInsertReturnsSameEntryForSameNameAndSelector(t *testing.T) {
	pit := NewPIT(NewNameTree())

	e1, fresh1 := pit.Insert(newInterest("/a/b", 1))
	assert.True(t, fresh1)

	e2, fresh2 := pit.Insert(newInterest("/a/b", 2))
	assert.False(t, fresh2)
	assert.Same(t, e1, e2)
}

func TestPITInsertSeparatesByMustBeFresh(t *testing.T) {
	pit := NewPIT(NewNameTree())

	plain := newInterest("/a/b", 1)
	fresh := newInterest("/a/b", 2)
	fresh.MustBeFresh = true

	e1, _ := pit.Insert(plain)
	e2, _ := pit.Insert(fresh)
	assert.NotSame(t, e1, e2)
}

func TestPITEraseRemovesEntry(t *testing.T) {
	pit := NewPIT(NewNameTree())
	e, _ := pit.Insert(newInterest("/a/b", 1))
	pit.Erase(e)

	matches := pit.FindAllDataMatches(&ndn.Data{Name: defn.NameFromStr("/a/b")})
	assert.Empty(t, matches)
}

func TestPITFindAllDataMatchesExactNameOnly(t *testing.T) {
	pit := NewPIT(NewNameTree())
	pit.Insert(newInterest("/a/b", 1))

	assert.Len(t, pit.FindAllDataMatches(&ndn.Data{Name: defn.NameFromStr("/a/b")}), 1)
	assert.Empty(t, pit.FindAllDataMatches(&ndn.Data{Name: defn.NameFromStr("/a")}))
	assert.Empty(t, pit.FindAllDataMatches(&ndn.Data{Name: defn.NameFromStr("/a/b/c")}))
}

func TestPitEntryFindNonceExcludesOwnFace(t *testing.T) {
	pit := NewPIT(NewNameTree())
	e, _ := pit.Insert(newInterest("/a/b", 1))
	now := time.Now()

	e.InsertOrUpdateInRecord(10, newInterest("/a/b", 42), now, time.Second)

	assert.False(t, e.findNonce(42, 10), "same face must be excluded")
	assert.True(t, e.findNonce(42, 11), "different face with matching nonce is a loop")
	assert.False(t, e.findNonce(99, 11))
}

func TestPitEntryInsertOrUpdateInRecordRenewsInPlace(t *testing.T) {
	e := newPitEntry(defn.NameFromStr("/a/b"), false, 0)
	now := time.Now()

	e.InsertOrUpdateInRecord(10, newInterest("/a/b", 1), now, time.Second)
	assert.Len(t, e.InRecords(), 1)

	later := now.Add(500 * time.Millisecond)
	rec := e.InsertOrUpdateInRecord(10, newInterest("/a/b", 2), later, time.Second)
	assert.Len(t, e.InRecords(), 1, "same face renews rather than duplicating")
	assert.Equal(t, uint32(2), rec.LatestNonce)
	assert.Equal(t, later.Add(time.Second), rec.Expiry)
}

func TestPitEntryLatestInRecordExpiry(t *testing.T) {
	e := newPitEntry(defn.NameFromStr("/a/b"), false, 0)
	now := time.Now()

	e.InsertOrUpdateInRecord(10, newInterest("/a/b", 1), now, time.Second)
	e.InsertOrUpdateInRecord(11, newInterest("/a/b", 2), now, 3*time.Second)

	assert.Equal(t, now.Add(3*time.Second), e.LatestInRecordExpiry())
}

func TestPitEntryHasUnexpiredOutRecords(t *testing.T) {
	e := newPitEntry(defn.NameFromStr("/a/b"), false, 0)
	assert.False(t, e.HasUnexpiredOutRecords())

	e.InsertOrUpdateOutRecord(20, newInterest("/a/b", 1), time.Now())
	assert.True(t, e.HasUnexpiredOutRecords())

	e.DeleteOutRecord(20)
	assert.False(t, e.HasUnexpiredOutRecords())
}

func TestPitEntryDeleteInRecords(t *testing.T) {
	e := newPitEntry(defn.NameFromStr("/a/b"), false, 0)
	e.InsertOrUpdateInRecord(10, newInterest("/a/b", 1), time.Now(), time.Second)
	e.InsertOrUpdateInRecord(11, newInterest("/a/b", 2), time.Now(), time.Second)
	assert.Len(t, e.InRecords(), 2)

	e.DeleteInRecords()
	assert.Empty(t, e.InRecords())
}
