package value

import (
	"math/big"
	"testing"
)

// TestIntegerRoundTrip covers spec §8's "Integer round-trip" invariant:
// FromInt/ToInt must agree for values well beyond int64 range, for
// negative magnitudes, and for the zero-as-[4] special case.
func TestIntegerRoundTrip(t *testing.T) {
	beyond64, ok := new(big.Int).SetString("123456789012345678901234567890123456789", 10)
	if !ok {
		t.Fatalf("failed to parse test fixture big.Int literal")
	}
	negBeyond64 := new(big.Int).Neg(beyond64)

	tests := []struct {
		name string
		n    *big.Int
	}{
		{"zero", big.NewInt(0)},
		{"small positive", big.NewInt(5)},
		{"small negative", big.NewInt(-5)},
		{"int64 max", big.NewInt(1<<63 - 1)},
		{"beyond int64 range, positive", beyond64},
		{"beyond int64 range, negative", negBeyond64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromInt(tt.n)
			got, err := ToInt(v)
			if err != nil {
				t.Fatalf("ToInt(FromInt(%s)) returned error: %v", tt.n, err)
			}
			if got.Cmp(tt.n) != 0 {
				t.Fatalf("round-trip mismatch: FromInt(%s) -> ToInt = %s", tt.n, got)
			}
		})
	}
}

func TestZeroEncodesAsSingleByteSignBlob(t *testing.T) {
	v := FromInt(big.NewInt(0))
	if !v.IsBlob() {
		t.Fatalf("FromInt(0) must be a Blob")
	}
	b := v.Bytes()
	if len(b) != 1 || b[0] != signNonNegative {
		t.Fatalf("FromInt(0) = %v, want single byte [4]", b)
	}
}

func TestNonZeroEncodesWithLengthAtLeastTwo(t *testing.T) {
	tests := []*big.Int{big.NewInt(1), big.NewInt(-1), big.NewInt(255), big.NewInt(-255)}
	for _, n := range tests {
		v := FromInt(n)
		if len(v.Bytes()) < 2 {
			t.Fatalf("FromInt(%s) produced blob of length %d, want >= 2", n, len(v.Bytes()))
		}
	}
}

func TestToIntRejectsMalformedBlobs(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
	}{
		{"empty blob", NewBlob(nil)},
		{"invalid sign byte", NewBlob([]byte{9, 1, 2})},
		{"negative sign with no magnitude", NewBlob([]byte{signNegative})},
		{"list instead of blob", NewList(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToInt(tt.v); err == nil {
				t.Fatalf("expected ToInt to reject %s, got no error", tt.name)
			}
			if IsInt(tt.v) {
				t.Fatalf("expected IsInt to report false for %s", tt.name)
			}
		})
	}
}

func TestFromInt64ToInt64RoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 1<<63 - 1, -(1 << 62)}
	for _, n := range tests {
		got, err := ToInt64(FromInt64(n))
		if err != nil {
			t.Fatalf("ToInt64(FromInt64(%d)) returned error: %v", n, err)
		}
		if got != n {
			t.Fatalf("ToInt64(FromInt64(%d)) = %d", n, got)
		}
	}
}

func TestToInt64RejectsOutOfRangeMagnitude(t *testing.T) {
	beyond64, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	if _, err := ToInt64(FromInt(beyond64)); err == nil {
		t.Fatalf("expected ToInt64 to reject a value beyond int64 range")
	}
}
