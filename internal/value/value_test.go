package value

import "testing"

// TestEqualMatchesStructure covers spec §8's "Equality ↔ encoding"
// property at the unit level: structurally equal trees compare equal
// (and hash equal) regardless of whether they share storage, and every
// shape difference — kind, length, order, nesting — breaks equality.
func TestEqualMatchesStructure(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"same blob bytes, different instances", NewBlob([]byte{1, 2, 3}), NewBlob([]byte{1, 2, 3}), true},
		{"different blob bytes", NewBlob([]byte{1, 2, 3}), NewBlob([]byte{1, 2, 4}), false},
		{"different blob length", NewBlob([]byte{1, 2}), NewBlob([]byte{1, 2, 3}), false},
		{"empty blob vs empty list", EmptyBlob, EmptyList, false},
		{"same list contents", NewList([]*Value{NewBlob([]byte{1}), NewBlob([]byte{2})}), NewList([]*Value{NewBlob([]byte{1}), NewBlob([]byte{2})}), true},
		{"list order matters", NewList([]*Value{NewBlob([]byte{1}), NewBlob([]byte{2})}), NewList([]*Value{NewBlob([]byte{2}), NewBlob([]byte{1})}), false},
		{"different list length", NewList([]*Value{NewBlob([]byte{1})}), NewList([]*Value{NewBlob([]byte{1}), NewBlob([]byte{1})}), false},
		{"nested lists equal", NewList([]*Value{NewList([]*Value{True})}), NewList([]*Value{NewList([]*Value{True})}), true},
		{"nested lists differ", NewList([]*Value{NewList([]*Value{True})}), NewList([]*Value{NewList([]*Value{False})}), false},
		{"true is not false", True, False, false},
		{"same pointer", EmptyList, EmptyList, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal(%s, %s) = %v, want %v", Pretty(tt.a), Pretty(tt.b), got, tt.want)
			}
		})
	}
}

// TestHashConsistentWithEqual checks the other half of "Equality ↔
// encoding": structurally equal values must hash equal, and the content
// hash must not depend on which constructor call produced the value.
func TestHashConsistentWithEqual(t *testing.T) {
	a := NewList([]*Value{NewBlob([]byte{1, 2}), NewBlob([]byte{3})})
	b := NewList([]*Value{NewBlob([]byte{1, 2}), NewBlob([]byte{3})})
	if !Equal(a, b) {
		t.Fatalf("expected a and b to be structurally equal")
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("expected equal values to hash equal: %x != %x", a.Hash(), b.Hash())
	}

	c := NewList([]*Value{NewBlob([]byte{1, 2}), NewBlob([]byte{4})})
	if a.Hash() == c.Hash() {
		t.Fatalf("expected different values to hash differently (or at least not collide in this small test): %x", a.Hash())
	}
}

func TestHashDistinguishesBlobFromList(t *testing.T) {
	if EmptyBlob.Hash() == EmptyList.Hash() {
		t.Fatalf("expected EmptyBlob and EmptyList to hash differently")
	}
}

func TestFromBoolAndIsTrueIsFalse(t *testing.T) {
	if !IsTrue(FromBool(true)) {
		t.Fatalf("FromBool(true) is not IsTrue")
	}
	if !IsFalse(FromBool(false)) {
		t.Fatalf("FromBool(false) is not IsFalse")
	}
	if IsTrue(FromBool(false)) || IsFalse(FromBool(true)) {
		t.Fatalf("FromBool results must not satisfy the opposite predicate")
	}
	if IsTrue(EmptyList) || IsFalse(EmptyList) {
		t.Fatalf("EmptyList must be neither true nor false")
	}
}

func TestBlobIsCopiedOnConstruction(t *testing.T) {
	b := []byte{1, 2, 3}
	v := NewBlob(b)
	b[0] = 99
	if v.Bytes()[0] != 1 {
		t.Fatalf("NewBlob must copy its input; mutating the caller's slice changed the Value")
	}
}

func TestKindAccessors(t *testing.T) {
	blob := NewBlob([]byte{1})
	list := NewList([]*Value{blob})

	if !blob.IsBlob() || blob.IsList() {
		t.Fatalf("blob kind accessors wrong")
	}
	if !list.IsList() || list.IsBlob() {
		t.Fatalf("list kind accessors wrong")
	}
	if list.Bytes() != nil {
		t.Fatalf("Bytes() on a List must return nil")
	}
	if blob.Items() != nil {
		t.Fatalf("Items() on a Blob must return nil")
	}
	if blob.Len() != 1 || list.Len() != 1 {
		t.Fatalf("Len() mismatch: blob=%d list=%d, want 1 each", blob.Len(), list.Len())
	}
}
