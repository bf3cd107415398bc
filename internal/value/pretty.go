package value

import (
	"fmt"
	"strings"
)

// Pretty renders v as a compact, human-readable tree. Blobs that happen to
// decode as a boolean or an integer, and non-empty lists that decode as a
// string, are rendered using that convention; everything else falls back
// to a hex dump or a bracketed item list. This
// is for diagnostics only — it is not a codec and has no parse inverse.
func Pretty(v *Value) string {
	var sb strings.Builder
	prettyInto(&sb, v, 0)
	return sb.String()
}

const prettyMaxDepth = 6

func prettyInto(sb *strings.Builder, v *Value, depth int) {
	if v == nil {
		sb.WriteString("<nil>")
		return
	}
	if depth > prettyMaxDepth {
		sb.WriteString("...")
		return
	}
	switch v.Kind() {
	case KindBlob:
		prettyBlob(sb, v)
	case KindList:
		if s, err := ToString(v); err == nil && v.Len() > 0 {
			fmt.Fprintf(sb, "%q", s)
			return
		}
		sb.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				sb.WriteString(", ")
			}
			prettyInto(sb, item, depth+1)
		}
		sb.WriteByte(']')
	}
}

func prettyBlob(sb *strings.Builder, v *Value) {
	if IsTrue(v) {
		sb.WriteString("true")
		return
	}
	if IsFalse(v) {
		sb.WriteString("false")
		return
	}
	if n, err := ToInt(v); err == nil {
		sb.WriteString(n.String())
		return
	}
	sb.WriteString("0x")
	for _, b := range v.Bytes() {
		fmt.Fprintf(sb, "%02x", b)
	}
}

// Summary is a bounded-length Pretty, used by diagnostics that must not
// flood a caller with a multi-megabyte value dump.
func Summary(v *Value, maxLen int) string {
	s := Pretty(v)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "…"
}
