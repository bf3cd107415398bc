// Package kernel implements Pine's fixed table of kernel functions: a
// small, closed set of total functions over value.Value. None of them
// ever raise — a shape mismatch always yields the empty list (or, for
// is_sorted_ascending_int, the false-blob), per spec §4.2.
package kernel

import "github.com/pine-vm/pine/internal/value"

// Fn is a single kernel function: total over value.Value, never erroring.
type Fn func(arg *value.Value) *value.Value

// Registry is a read-only map from kernel name to implementation, fixed
// for the lifetime of a VM instance (spec's KernelRegistry collaborator
// interface).
type Registry interface {
	Lookup(name string) (Fn, bool)
	Known(name string) bool
}

// mapRegistry is the default in-process Registry.
type mapRegistry map[string]Fn

func (r mapRegistry) Lookup(name string) (Fn, bool) {
	fn, ok := r[name]
	return fn, ok
}

func (r mapRegistry) Known(name string) bool {
	_, ok := r[name]
	return ok
}

// Names of the fixed kernel set, exported so lowerer peephole passes can
// refer to them without repeating the literal strings.
const (
	Equal                = "equal"
	Length               = "length"
	Head                 = "head"
	Skip                 = "skip"
	Take                 = "take"
	Concat               = "concat"
	Reverse              = "reverse"
	Negate               = "negate"
	AddInt               = "add_int"
	MulInt               = "mul_int"
	IsSortedAscendingInt = "is_sorted_ascending_int"
)

// DefaultRegistry returns the fixed table of kernel functions spec'd in
// §4.2. It is safe to share across VM instances: every Fn is a pure
// function with no captured mutable state.
func DefaultRegistry() Registry {
	return mapRegistry{
		Equal:                equalFn,
		Length:               lengthFn,
		Head:                 headFn,
		Skip:                 skipFn,
		Take:                 takeFn,
		Concat:               concatFn,
		Reverse:              reverseFn,
		Negate:               negateFn,
		AddInt:               addIntFn,
		MulInt:               mulIntFn,
		IsSortedAscendingInt: isSortedAscendingIntFn,
	}
}
