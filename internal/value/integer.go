package value

import (
	"fmt"
	"math/big"
)

const (
	signNonNegative byte = 4
	signNegative    byte = 2
)

// FromInt encodes an arbitrary-precision signed integer as a Blob: a sign
// byte (4 = non-negative, 2 = negative) followed by the big-endian
// unsigned magnitude. Zero is the single byte [4]; every other value
// round-trips through a blob of length >= 2.
func FromInt(n *big.Int) *Value {
	if n.Sign() == 0 {
		return NewBlob([]byte{signNonNegative})
	}
	sign := signNonNegative
	if n.Sign() < 0 {
		sign = signNegative
	}
	mag := new(big.Int).Abs(n).Bytes() // minimal big-endian magnitude, no leading zero
	buf := make([]byte, 0, len(mag)+1)
	buf = append(buf, sign)
	buf = append(buf, mag...)
	return NewBlob(buf)
}

// FromInt64 is a convenience wrapper over FromInt for small integers.
func FromInt64(n int64) *Value {
	return FromInt(big.NewInt(n))
}

// ToInt decodes a Blob encoded by FromInt. A blob of length 0 or 1 with a
// sign byte other than the implicit-zero case, or any first byte outside
// {2, 4}, is rejected as "not an integer" — callers in kernel functions
// treat that as a type mismatch and fall back to their documented
// mismatch behavior rather than propagating this error.
func ToInt(v *Value) (*big.Int, error) {
	if v == nil || !v.IsBlob() {
		return nil, fmt.Errorf("value: not an integer: not a blob")
	}
	b := v.Bytes()
	if len(b) == 0 {
		return nil, fmt.Errorf("value: not an integer: empty blob")
	}
	sign := b[0]
	if sign != signNonNegative && sign != signNegative {
		return nil, fmt.Errorf("value: not an integer: invalid sign byte %d", sign)
	}
	if len(b) == 1 {
		if sign == signNonNegative {
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("value: not an integer: negative sign with no magnitude")
	}
	mag := new(big.Int).SetBytes(b[1:])
	if sign == signNegative {
		mag.Neg(mag)
	}
	return mag, nil
}

// ToInt64 decodes a Blob produced by FromInt into an int64, erroring if
// the value does not fit.
func ToInt64(v *Value) (int64, error) {
	n, err := ToInt(v)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("value: integer %s does not fit in int64", n.String())
	}
	return n.Int64(), nil
}

// IsInt reports whether v decodes as an integer blob without surfacing
// the decode error.
func IsInt(v *Value) bool {
	_, err := ToInt(v)
	return err == nil
}
