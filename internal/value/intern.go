package value

import "sync"

// Store is the interface external collaborators may supply to share a
// single canonical instance per distinct structural value (spec's
// ValueStore). The Interner below, built with NewInterner, is the default
// in-process implementation (its zero value has no table and cannot be
// used); a host may substitute its own (e.g. one backed by a
// persistent content store) as long as it honors the same contract:
// Intern always returns a value structurally equal to its argument, and
// repeated Intern calls for structurally-equal inputs return the same
// pointer.
type Store interface {
	Intern(v *Value) *Value
	LookupByHash(hash [32]byte) (*Value, bool)
}

// Interner is a process-wide table mapping structural identity (by
// content hash) to a single shared *Value. It is the default Store.
// Contents are immutable once inserted, so lookups need no locking beyond
// what's required for the map itself; a short critical section suffices
// since insert is insert-if-absent.
type Interner struct {
	mu    sync.Mutex
	table map[[32]byte]*Value
}

// NewInterner creates an empty Interner, pre-seeded with the package's
// canonical singletons so every VM sharing one Interner also shares
// EmptyBlob/EmptyList/True/False instances.
func NewInterner() *Interner {
	in := &Interner{table: make(map[[32]byte]*Value)}
	for _, v := range []*Value{EmptyBlob, EmptyList, True, False} {
		in.table[v.Hash()] = v
	}
	return in
}

// Intern returns the canonical shared instance for v's structural
// identity, registering v itself as canonical on first sight.
func (in *Interner) Intern(v *Value) *Value {
	if v == nil {
		return nil
	}
	h := v.Hash()
	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.table[h]; ok {
		return existing
	}
	in.table[h] = v
	return v
}

// LookupByHash returns the canonical instance for hash, if one has been
// interned.
func (in *Interner) LookupByHash(hash [32]byte) (*Value, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.table[hash]
	return v, ok
}
