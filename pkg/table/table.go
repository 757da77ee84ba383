// Package table implements the open-addressing hash table that backs both
// ember's string intern set and its global variable environment — the
// spec specifies one abstraction serving both uses.
//
// Keys are always an interned string's heap identity (*value.Obj); probing
// compares that pointer, not the string's bytes. The one exception is
// FindString, a specialized lookup the interning protocol uses to decide
// whether a candidate string already has a live instance.
package table

import "github.com/ember-lang/ember/pkg/value"

const (
	initialCapacity = 8
	maxLoad         = 0.75
)

// entry is one slot: an empty slot has a nil Key and a nil Value; a
// tombstone has a nil Key and a Bool(true) Value; a live slot has a
// non-nil Key.
type entry struct {
	key   *value.Obj
	value value.Value
}

// Table is an open-addressing hash table with linear probing and
// tombstone deletion.
type Table struct {
	count   int
	entries []entry
}

// New returns an empty table. The backing array is allocated lazily on
// first Set, matching the spec's "initial capacity 8" policy.
func New() *Table {
	return &Table{}
}

// Count reports the number of occupied slots: live entries plus
// tombstones. Delete does not decrement it; only grow, which drops
// tombstones, recomputes it from the live entries.
func (t *Table) Count() int { return t.count }

// findEntry locates the slot key belongs in: the first exact match, or
// the first empty-or-tombstone slot on the probe chain, preferring to
// reuse the earliest tombstone seen.
func findEntry(entries []entry, key *value.Obj) *entry {
	capacity := len(entries)
	index := int(key.Str().Hash) % capacity
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

// Set stores value under key, growing the table first if this insertion
// would exceed the 0.75 load factor. It reports whether key was not
// already present (a fresh slot, as opposed to overwriting a live entry).
// Reusing a tombstone reports true without incrementing count again.
func (t *Table) Set(key *value.Obj, v value.Value) bool {
	if t.count+1 > int(float64(t.capacity())*maxLoad) {
		t.grow(growCapacity(t.capacity()))
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		t.count++
	}

	e.key = key
	e.value = v
	return isNew
}

// Get looks up key, returning (value, true) on a hit and (zero, false) on
// a miss.
func (t *Table) Get(key *value.Obj) (value.Value, bool) {
	if t.count == 0 {
		return value.Value{}, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return value.Value{}, false
	}
	return e.value, true
}

// Delete removes key, leaving a tombstone behind so later probe chains
// through this slot stay intact. It reports whether key was present.
func (t *Table) Delete(key *value.Obj) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = value.Bool(true)
	return true
}

// AddAll copies every live entry of t into dst.
func (t *Table) AddAll(dst *Table) {
	for _, e := range t.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString is the interning protocol's specialized lookup: unlike Set
// and Get, it probes by content — (length, hash, byte equality) — rather
// than by the key's heap identity, since the whole point is to find an
// already-interned string before a new one would be allocated.
func (t *Table) FindString(s string, hash uint32) *value.Obj {
	if t.count == 0 {
		return nil
	}
	capacity := t.capacity()
	index := int(hash) % capacity
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
		} else {
			str := e.key.Str()
			if str.Length == len(s) && str.Hash == hash && str.Chars == s {
				return e.key
			}
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) capacity() int { return len(t.entries) }

func growCapacity(capacity int) int {
	if capacity < initialCapacity {
		return initialCapacity
	}
	return capacity * 2
}

// grow reallocates the backing array at the given capacity and re-inserts
// every live entry, recomputing count from scratch (tombstones are
// dropped, never copied forward).
func (t *Table) grow(capacity int) {
	fresh := make([]entry, capacity)
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dest := findEntry(fresh, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}
	t.entries = fresh
}
