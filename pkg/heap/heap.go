// Package heap owns ember's intrusive object allocation chain and its
// string intern table. It is the "first-class VM state" the spec's design
// notes call for: both the compiler (to intern string literals) and the
// VM (to run programs, intern concatenation results, and populate
// globals) share one Heap value rather than reaching into a process-wide
// singleton.
package heap

import (
	"hash/fnv"

	"github.com/ember-lang/ember/pkg/table"
	"github.com/ember-lang/ember/pkg/value"
)

// Heap holds every live allocation for one interpreter instance: the
// singly-linked, prepend-on-allocate object chain, and the string intern
// set. The spec's global variable environment is a second, independent
// table.Table — Heap only owns interning, since globals belong to a
// running VM rather than to the heap of objects a program allocates.
type Heap struct {
	objects *value.Obj
	strings *table.Table
}

// New returns an empty heap, ready to intern strings.
func New() *Heap {
	return &Heap{strings: table.New()}
}

// InternString implements the interning protocol: given raw bytes,
// compute FNV-1a, probe the intern table with a specialized lookup that
// compares (length, hash, byte-equality). A hit returns the existing
// ObjString's Obj; a miss allocates, interns, prepends to the allocation
// chain, and returns the new Obj.
func (h *Heap) InternString(s string) *value.Obj {
	hash := fnvHash(s)
	if existing := h.strings.FindString(s, hash); existing != nil {
		return existing
	}

	obj := value.NewObjString(s, hash)
	h.strings.Set(obj, value.Nil)
	h.prepend(obj)
	return obj
}

// Concat interns the byte-for-byte concatenation of two strings, used by
// the VM's ADD opcode when both operands are strings.
func (h *Heap) Concat(a, b *value.ObjString) *value.Obj {
	return h.InternString(a.Chars + b.Chars)
}

// prepend links obj at the head of the allocation chain.
func (h *Heap) prepend(obj *value.Obj) {
	obj.Next = h.objects
	h.objects = obj
}

// Free walks the allocation chain exactly once, releasing every object's
// reference so the garbage collector can reclaim it, then drops the
// intern table. This is ember's only reclamation: process-exit (or
// interpreter-teardown) sweep, never incremental collection.
func (h *Heap) Free() {
	for obj := h.objects; obj != nil; {
		next := obj.Next
		obj.Next = nil
		obj = next
	}
	h.objects = nil
	h.strings = table.New()
}

// fnvHash computes the 32-bit FNV-1a hash the spec pins ObjString's Hash
// field to. hash/fnv's New32a is the standard library's implementation of
// exactly this algorithm; see SPEC_FULL.md's DOMAIN STACK section for why
// this one piece of hashing infrastructure stays on the standard library.
func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
