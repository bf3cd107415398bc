package lower

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/pine-vm/pine/internal/expr"
)

// fingerprint is a structural key for an expression tree, used by the CSE
// pass to find repeated sub-expressions. It differs from expr.Hash in one
// deliberate way: it accepts the lowerer's own internal node kinds
// (StackReference, SkipHeadPath, EqualTwo), which can legally appear in a
// tree mid-lowering (a StackReference standing in for an already-promoted
// sibling) where expr.Hash would panic.
func fingerprint(e expr.Expr) [32]byte {
	h := sha256.New()
	writeFingerprint(h, e)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func fingerprintEqual(a, b expr.Expr) bool {
	return fingerprint(a) == fingerprint(b)
}

func writeUint64(h hash.Hash, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}

func writeTag(h hash.Hash, tag byte, name string) {
	h.Write([]byte{tag})
	writeUint64(h, uint64(len(name)))
	h.Write([]byte(name))
}

func writeFingerprint(h hash.Hash, e expr.Expr) {
	switch n := e.(type) {
	case expr.Literal:
		writeTag(h, 1, "")
		vh := n.Value.Hash()
		h.Write(vh[:])
	case expr.List:
		writeTag(h, 2, "")
		writeUint64(h, uint64(len(n.Items)))
		for _, it := range n.Items {
			writeFingerprint(h, it)
		}
	case expr.Environment:
		writeTag(h, 3, "")
	case expr.KernelApplication:
		writeTag(h, 4, n.Name)
		writeFingerprint(h, n.Arg)
	case expr.Conditional:
		writeTag(h, 5, "")
		writeFingerprint(h, n.Cond)
		writeFingerprint(h, n.IfTrue)
		writeFingerprint(h, n.IfFalse)
	case expr.ParseAndEval:
		writeTag(h, 6, "")
		writeFingerprint(h, n.Encoded)
		writeFingerprint(h, n.Env)
	case expr.StringTag:
		writeTag(h, 7, n.Tag)
		writeFingerprint(h, n.Inner)
	case expr.StackReference:
		writeTag(h, 8, "")
		writeUint64(h, uint64(n.Offset))
	case expr.SkipHeadPath:
		writeTag(h, 9, "")
		writeUint64(h, uint64(len(n.Skips)))
		for _, s := range n.Skips {
			writeUint64(h, uint64(s))
		}
		writeFingerprint(h, n.Arg)
	case expr.EqualTwo:
		writeTag(h, 10, "")
		writeFingerprint(h, n.Left)
		writeFingerprint(h, n.Right)
	default:
		writeTag(h, 0, "")
	}
}
