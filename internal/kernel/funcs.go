package kernel

import (
	"math/big"

	"github.com/pine-vm/pine/internal/value"
)

// equalFn implements `equal`. The argument packs the operands to compare
// into a single collection: a List compares its items pairwise (an empty
// list is trivially equal, per spec's resolved open question), a Blob
// compares its bytes pairwise.
func equalFn(arg *value.Value) *value.Value {
	if arg == nil {
		return value.EmptyList
	}
	switch arg.Kind() {
	case value.KindList:
		items := arg.Items()
		for i := 1; i < len(items); i++ {
			if !value.Equal(items[0], items[i]) {
				return value.False
			}
		}
		return value.True
	case value.KindBlob:
		b := arg.Bytes()
		for i := 1; i < len(b); i++ {
			if b[i] != b[0] {
				return value.False
			}
		}
		return value.True
	default:
		return value.EmptyList
	}
}

// lengthFn implements `length`: the element count of a List or the byte
// count of a Blob, encoded as an integer.
func lengthFn(arg *value.Value) *value.Value {
	if arg == nil {
		return value.EmptyList
	}
	return value.FromInt64(int64(arg.Len()))
}

// headFn implements `head`: the first element of a non-empty List;
// anything else (empty list, a Blob) yields the empty list.
func headFn(arg *value.Value) *value.Value {
	if arg != nil && arg.IsList() && arg.Len() > 0 {
		return arg.Items()[0]
	}
	return value.EmptyList
}

// clampCount clamps n into [0, length] for skip/take's drop-count
// semantics: negative counts act as zero, counts past the end act as the
// whole length.
func clampCount(n *big.Int, length int) int {
	if n.Sign() < 0 {
		return 0
	}
	if !n.IsInt64() || n.Int64() > int64(length) {
		return length
	}
	return int(n.Int64())
}

func twoArgs(arg *value.Value) (n *big.Int, coll *value.Value, ok bool) {
	if arg == nil || !arg.IsList() || arg.Len() != 2 {
		return nil, nil, false
	}
	n, err := value.ToInt(arg.Items()[0])
	if err != nil {
		return nil, nil, false
	}
	return n, arg.Items()[1], true
}

// skipFn implements `skip`: arg is [n, coll]; drops the first n elements
// (bytes, for a Blob) of coll, clamped as described for clampCount.
func skipFn(arg *value.Value) *value.Value {
	n, coll, ok := twoArgs(arg)
	if !ok {
		return value.EmptyList
	}
	switch coll.Kind() {
	case value.KindList:
		items := coll.Items()
		k := clampCount(n, len(items))
		return value.NewList(items[k:])
	case value.KindBlob:
		b := coll.Bytes()
		k := clampCount(n, len(b))
		return value.NewBlob(b[k:])
	default:
		return value.EmptyList
	}
}

// takeFn implements `take`: arg is [n, coll]; keeps the first n elements
// (bytes, for a Blob) of coll, clamped as described for clampCount.
func takeFn(arg *value.Value) *value.Value {
	n, coll, ok := twoArgs(arg)
	if !ok {
		return value.EmptyList
	}
	switch coll.Kind() {
	case value.KindList:
		items := coll.Items()
		k := clampCount(n, len(items))
		return value.NewList(items[:k])
	case value.KindBlob:
		b := coll.Bytes()
		k := clampCount(n, len(b))
		return value.NewBlob(b[:k])
	default:
		return value.EmptyList
	}
}

// concatFn implements `concat`: arg is a List of collections, all of the
// same kind. A List of Lists flattens into one List; a List of Blobs
// concatenates into one Blob. A mixed collection, a non-list argument, or
// an empty argument all yield the empty list.
func concatFn(arg *value.Value) *value.Value {
	if arg == nil || !arg.IsList() || arg.Len() == 0 {
		return value.EmptyList
	}
	parts := arg.Items()
	switch parts[0].Kind() {
	case value.KindList:
		var out []*value.Value
		for _, p := range parts {
			if !p.IsList() {
				return value.EmptyList
			}
			out = append(out, p.Items()...)
		}
		return value.NewList(out)
	case value.KindBlob:
		var out []byte
		for _, p := range parts {
			if !p.IsBlob() {
				return value.EmptyList
			}
			out = append(out, p.Bytes()...)
		}
		return value.NewBlob(out)
	default:
		return value.EmptyList
	}
}

// reverseFn implements `reverse`: reverses a List's items or a Blob's
// bytes.
func reverseFn(arg *value.Value) *value.Value {
	if arg == nil {
		return value.EmptyList
	}
	switch arg.Kind() {
	case value.KindList:
		items := arg.Items()
		out := make([]*value.Value, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return value.NewList(out)
	case value.KindBlob:
		b := arg.Bytes()
		out := make([]byte, len(b))
		for i, by := range b {
			out[len(b)-1-i] = by
		}
		return value.NewBlob(out)
	default:
		return value.EmptyList
	}
}

// negateFn implements `negate`: flips the sign byte of an integer blob.
// A blob that doesn't decode as an integer yields the empty list.
func negateFn(arg *value.Value) *value.Value {
	n, err := value.ToInt(arg)
	if err != nil {
		return value.EmptyList
	}
	return value.FromInt(new(big.Int).Neg(n))
}

func decodeIntList(arg *value.Value) ([]*big.Int, bool) {
	if arg == nil || !arg.IsList() {
		return nil, false
	}
	out := make([]*big.Int, arg.Len())
	for i, it := range arg.Items() {
		n, err := value.ToInt(it)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// addIntFn implements `add_int`: arg is a List of integer blobs; returns
// their sum. Any non-integer element yields the empty list.
func addIntFn(arg *value.Value) *value.Value {
	ns, ok := decodeIntList(arg)
	if !ok {
		return value.EmptyList
	}
	sum := big.NewInt(0)
	for _, n := range ns {
		sum.Add(sum, n)
	}
	return value.FromInt(sum)
}

// mulIntFn implements `mul_int`: arg is a List of integer blobs; returns
// their product. Any non-integer element yields the empty list.
func mulIntFn(arg *value.Value) *value.Value {
	ns, ok := decodeIntList(arg)
	if !ok {
		return value.EmptyList
	}
	product := big.NewInt(1)
	for _, n := range ns {
		product.Mul(product, n)
	}
	return value.FromInt(product)
}

// isSortedAscendingIntFn implements `is_sorted_ascending_int`: for a List
// of integer blobs, reports (as a boolean Value) whether they are
// non-decreasing; for a Blob, whether its bytes are non-decreasing. Any
// other argument yields the false-blob.
func isSortedAscendingIntFn(arg *value.Value) *value.Value {
	if arg == nil {
		return value.False
	}
	if arg.IsBlob() {
		b := arg.Bytes()
		for i := 1; i < len(b); i++ {
			if b[i] < b[i-1] {
				return value.False
			}
		}
		return value.True
	}
	ns, ok := decodeIntList(arg)
	if !ok {
		return value.False
	}
	for i := 1; i < len(ns); i++ {
		if ns[i].Cmp(ns[i-1]) < 0 {
			return value.False
		}
	}
	return value.True
}
