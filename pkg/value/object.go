package value

// ObjType discriminates the variant an Obj header carries. The spec
// currently defines only strings; the tag exists so the allocation chain
// and any future variant share one header shape.
type ObjType int

const (
	ObjTypeString ObjType = iota
)

// Obj is the header every heap-allocated entity begins with: a variant
// tag and a link to the next object in the VM-wide allocation chain. The
// chain is singly-linked and prepend-on-allocate so every live allocation
// is reachable from the VM for a single teardown sweep.
//
// Go has no tagged unions, so the payload for the one variant in scope
// (string) lives alongside the header rather than behind it; a second
// variant would add its own optional field the same way.
type Obj struct {
	Type ObjType
	Next *Obj
	str  *ObjString
}

// ObjString is the payload for a string object: an immutable byte
// sequence, its length, and a precomputed FNV-1a hash.
type ObjString struct {
	Chars  string
	Length int
	Hash   uint32
}

// Str returns the string payload of an Obj. Callers must know the Obj is
// a string (Type == ObjTypeString); it is the package's only variant so
// far and every allocator goes through NewObjString.
func (o *Obj) Str() *ObjString { return o.str }

// NewObjString links a fresh ObjString into an Obj header, ready to be
// prepended to the allocation chain by the caller (package heap).
func NewObjString(s string, hash uint32) *Obj {
	return &Obj{
		Type: ObjTypeString,
		str:  &ObjString{Chars: s, Length: len(s), Hash: hash},
	}
}
