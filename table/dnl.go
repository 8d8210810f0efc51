package table

import (
	"container/list"
	"time"

	"github.com/nfd-probe/fw/defn"
)

type dnlKey struct {
	name  string
	nonce uint32
}

type dnlEntry struct {
	key     dnlKey
	expires time.Time
}

// DeadNonceList is the bounded set of recently seen (name, nonce) pairs used
// for loop suppression after a PIT entry has been deleted. It is a sliding time window: every entry carries its own
// expiry and entries are swept lazily on access.
type DeadNonceList struct {
	lifetime time.Duration
	index    map[dnlKey]*list.Element
	order    *list.List // front = oldest
}

// NewDeadNonceList constructs a DeadNonceList with the given entry lifetime.
func NewDeadNonceList(lifetime time.Duration) *DeadNonceList {
	return &DeadNonceList{
		lifetime: lifetime,
		index:    make(map[dnlKey]*list.Element),
		order:    list.New(),
	}
}

// Lifetime returns the DNL's configured entry lifetime, consulted when
// deciding whether a Data's freshness period is short enough to warrant a
// Dead Nonce List insertion.
func (d *DeadNonceList) Lifetime() time.Duration { return d.lifetime }

func (d *DeadNonceList) evict(now time.Time) {
	for {
		front := d.order.Front()
		if front == nil {
			return
		}
		e := front.Value.(*dnlEntry)
		if e.expires.After(now) {
			return
		}
		d.order.Remove(front)
		delete(d.index, e.key)
	}
}

// Add inserts (name, nonce) with a fresh expiry.
func (d *DeadNonceList) Add(name defn.Name, nonce uint32, now time.Time) {
	d.evict(now)
	key := dnlKey{name: name.String(), nonce: nonce}
	if el, ok := d.index[key]; ok {
		d.order.MoveToBack(el)
		el.Value.(*dnlEntry).expires = now.Add(d.lifetime)
		return
	}
	entry := &dnlEntry{key: key, expires: now.Add(d.lifetime)}
	d.index[key] = d.order.PushBack(entry)
}

// Has reports whether (name, nonce) is present and unexpired.
func (d *DeadNonceList) Has(name defn.Name, nonce uint32, now time.Time) bool {
	d.evict(now)
	_, ok := d.index[dnlKey{name: name.String(), nonce: nonce}]
	return ok
}
