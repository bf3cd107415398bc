// Package value implements Pine's canonical immutable value model: a tree
// whose only shapes are a byte blob or an ordered list of values. Every
// other Pine concept (integers, strings, booleans, even expressions
// themselves) is a convention layered on top of these two shapes.
package value

import (
	"crypto/sha256"
	"encoding/binary"
)

// Kind distinguishes the two Value shapes.
type Kind byte

const (
	KindBlob Kind = iota
	KindList
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "blob"
}

// Value is Pine's sole datum type. It is immutable for its entire lifetime;
// callers always hold it by pointer and never mutate Bytes or Items in
// place. Construct one with NewBlob/NewList, never with a struct literal,
// so the cached Hash stays consistent with the contents.
type Value struct {
	kind  Kind
	bytes []byte
	items []*Value
	hash  [32]byte
}

// Canonical singletons. Kernel functions and the boolean codec compare
// against these by structural equality, not by pointer, but routing
// construction through them keeps common values from being reallocated.
var (
	EmptyBlob = NewBlob(nil)
	EmptyList = NewList(nil)
	True      = NewBlob([]byte{4})
	False     = NewBlob([]byte{2})
)

// NewBlob builds a Blob Value. The supplied slice is copied so the result
// is safe to retain past the caller's own mutations of b.
func NewBlob(b []byte) *Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	v := &Value{kind: KindBlob, bytes: cp}
	v.hash = hashBlob(cp)
	return v
}

// NewList builds a List Value from already-constructed child values. The
// slice header is copied; the children are shared, not deep-copied, since
// Values are immutable.
func NewList(items []*Value) *Value {
	cp := make([]*Value, len(items))
	copy(cp, items)
	v := &Value{kind: KindList, items: cp}
	v.hash = hashList(cp)
	return v
}

// Kind reports whether v is a Blob or a List.
func (v *Value) Kind() Kind { return v.kind }

// IsBlob reports whether v is a Blob.
func (v *Value) IsBlob() bool { return v.kind == KindBlob }

// IsList reports whether v is a List.
func (v *Value) IsList() bool { return v.kind == KindList }

// Bytes returns the blob's contents. The caller must not modify the
// returned slice. Calling this on a List returns nil.
func (v *Value) Bytes() []byte {
	if v.kind != KindBlob {
		return nil
	}
	return v.bytes
}

// Items returns the list's elements. The caller must not modify the
// returned slice. Calling this on a Blob returns nil.
func (v *Value) Items() []*Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Len reports the number of bytes in a Blob or elements in a List.
func (v *Value) Len() int {
	if v.kind == KindBlob {
		return len(v.bytes)
	}
	return len(v.items)
}

// Hash is the Value's structural content hash: a Merkle-style digest over
// a canonical prefix-framed encoding, stable across runs and suitable as a
// map key. Equal values always hash equal, so Equal below treats a hash
// mismatch as proof of inequality and compares contents only when the
// hashes match. The digest is computed over a framing that makes two
// distinct trees produce distinct byte streams prior to hashing
// (collision resistance is then inherited from SHA-256).
func (v *Value) Hash() [32]byte { return v.hash }

func hashBlob(b []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{byte(KindBlob)})
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashList(items []*Value) [32]byte {
	h := sha256.New()
	h.Write([]byte{byte(KindList)})
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(items)))
	h.Write(lenBuf[:])
	for _, it := range items {
		child := it.Hash()
		h.Write(child[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Equal reports structural equality: same variant, elementwise-equal
// contents. Lists respect order; the empty list and the empty blob are
// distinct from each other and from every other value.
func Equal(a, b *Value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	if a.hash != b.hash {
		return false
	}
	switch a.kind {
	case KindBlob:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	default:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
}

// IsTrue reports whether v is the canonical true-blob.
func IsTrue(v *Value) bool { return v != nil && v.IsBlob() && Equal(v, True) }

// IsFalse reports whether v is the canonical false-blob.
func IsFalse(v *Value) bool { return v != nil && v.IsBlob() && Equal(v, False) }

// FromBool encodes a Go bool as the canonical true/false blob.
func FromBool(b bool) *Value {
	if b {
		return True
	}
	return False
}
