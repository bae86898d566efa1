// Package mst implements the Merkle Search Tree: a deterministic,
// content-addressed ordered map from string keys to CIDs that forms the
// on-disk shape of an ATProto repository's records.
package mst

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/primal-host/atcore/cid"
)

// ErrNotFound is returned by Get and Delete when the key is absent.
var ErrNotFound = errors.New("mst: not_found")

// Entry is a single ordered-map record: a key and the CID of the value it
// addresses.
type Entry struct {
	Key   string
	Value cid.CID
}

// Tree is an immutable ordered map; every mutating operation returns a
// new Tree rather than changing the receiver.
type Tree struct {
	entries []Entry // always kept sorted ascending by Key, no duplicate keys
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Len returns the number of entries.
func (t *Tree) Len() int { return len(t.entries) }

// List returns all entries in ascending key order.
func (t *Tree) List() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Get returns the value for key, or ErrNotFound.
func (t *Tree) Get(key string) (cid.CID, error) {
	i := t.search(key)
	if i < len(t.entries) && t.entries[i].Key == key {
		return t.entries[i].Value, nil
	}
	return cid.CID{}, fmt.Errorf("%w: %q", ErrNotFound, key)
}

// Add inserts or replaces the value for key, returning a new Tree.
func (t *Tree) Add(key string, value cid.CID) *Tree {
	i := t.search(key)
	next := make([]Entry, 0, len(t.entries)+1)
	next = append(next, t.entries[:i]...)
	if i < len(t.entries) && t.entries[i].Key == key {
		next = append(next, Entry{Key: key, Value: value})
		next = append(next, t.entries[i+1:]...)
	} else {
		next = append(next, Entry{Key: key, Value: value})
		next = append(next, t.entries[i:]...)
	}
	return &Tree{entries: next}
}

// Delete removes key, returning a new Tree. Deleting an absent key is an
// error.
func (t *Tree) Delete(key string) (*Tree, error) {
	i := t.search(key)
	if i >= len(t.entries) || t.entries[i].Key != key {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	next := make([]Entry, 0, len(t.entries)-1)
	next = append(next, t.entries[:i]...)
	next = append(next, t.entries[i+1:]...)
	return &Tree{entries: next}, nil
}

// search returns the index of the first entry with Key >= key (sort.Search).
func (t *Tree) search(key string) int {
	return sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Key >= key
	})
}

// CalculateKeyDepth computes an entry's placement layer: the number of
// leading zero bits in SHA-256(key), integer-divided by 2 (approximately
// 4-way fanout per layer).
func CalculateKeyDepth(key string) int {
	digest := sha256.Sum256([]byte(key))
	return leadingZeroBits(digest[:]) / 2
}

func leadingZeroBits(b []byte) int {
	count := 0
	for _, byt := range b {
		if byt == 0 {
			count += 8
			continue
		}
		for bit := 7; bit >= 0; bit-- {
			if byt&(1<<bit) != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// FromEntries builds a Tree directly from a pre-sorted, deduplicated
// entry slice without the add-by-add validation Add performs; callers
// reconstructing from storage (e.g. Load) use this to skip redundant
// work.
func FromEntries(entries []Entry) *Tree {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Tree{entries: out}
}
