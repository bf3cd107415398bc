package expr

import "github.com/pine-vm/pine/internal/value"

// Hash returns e's structural hash, derived from its canonical Value
// encoding. Two expressions with the same Hash are guaranteed equal
// (Equal below is the authoritative check; Hash is what makes Expr usable
// as a cache key without re-walking the tree on every lookup).
//
// Hash requires e to be encodable; internal-only nodes (StackReference,
// SkipHeadPath, EqualTwo) never reach this in practice because they only
// ever live inside a StackFrameInstructions, never inside a value that
// gets cached by expression identity.
func Hash(e Expr) [32]byte {
	return Encode(e).Hash()
}

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	return value.Equal(Encode(a), Encode(b))
}
