package value

import (
	"fmt"

	"golang.org/x/text/encoding/unicode/utf32"
)

// FromString encodes a Go string as a List of character Values, each a
// Blob holding the rune's code point as 1..4 big-endian bytes (minimal
// width, no leading zero byte beyond what's needed to hold the value).
func FromString(s string) *Value {
	runes := []rune(s)
	items := make([]*Value, len(runes))
	for i, r := range runes {
		items[i] = NewBlob(codepointBytes(uint32(r)))
	}
	return NewList(items)
}

func codepointBytes(cp uint32) []byte {
	switch {
	case cp <= 0xFF:
		return []byte{byte(cp)}
	case cp <= 0xFFFF:
		return []byte{byte(cp >> 8), byte(cp)}
	case cp <= 0xFFFFFF:
		return []byte{byte(cp >> 16), byte(cp >> 8), byte(cp)}
	default:
		return []byte{byte(cp >> 24), byte(cp >> 16), byte(cp >> 8), byte(cp)}
	}
}

// ToString decodes a Value produced by FromString. Every element must be
// a Blob of 1..4 bytes decoding to a valid Unicode code point; anything
// else (wrong variant, wrong-sized blob, a surrogate half or other
// non-scalar value) is a type error, matching spec's "anything else is a
// type error" for string decode. Code point validity is checked by
// round-tripping each candidate through a UTF-32BE decoder rather than
// hand-rolling range checks, so the same Unicode-scalar-value rules the
// rest of the ecosystem relies on apply here too.
func ToString(v *Value) (string, error) {
	if v == nil || !v.IsList() {
		return "", fmt.Errorf("value: not a string: not a list")
	}
	out := make([]rune, 0, v.Len())
	for i, item := range v.Items() {
		if !item.IsBlob() {
			return "", fmt.Errorf("value: not a string: element %d is not a blob", i)
		}
		b := item.Bytes()
		if len(b) < 1 || len(b) > 4 {
			return "", fmt.Errorf("value: not a string: element %d has %d bytes", i, len(b))
		}
		var cp uint32
		for _, byt := range b {
			cp = cp<<8 | uint32(byt)
		}
		padded := make([]byte, 4)
		padded[0] = byte(cp >> 24)
		padded[1] = byte(cp >> 16)
		padded[2] = byte(cp >> 8)
		padded[3] = byte(cp)
		decoded, err := utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().Bytes(padded)
		if err != nil || len(decoded) == 0 {
			return "", fmt.Errorf("value: not a string: element %d is not a valid code point", i)
		}
		r := []rune(string(decoded))
		// The decoder substitutes U+FFFD for an invalid code point instead
		// of failing, so the decoded rune must be the code point itself.
		if len(r) != 1 || uint32(r[0]) != cp {
			return "", fmt.Errorf("value: not a string: element %d is not a valid code point", i)
		}
		out = append(out, r[0])
	}
	return string(out), nil
}

// IsString reports whether v decodes as a string without surfacing the
// decode error.
func IsString(v *Value) bool {
	_, err := ToString(v)
	return err == nil
}
