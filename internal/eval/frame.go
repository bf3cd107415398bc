package eval

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
)

// frame holds the state of one pushed evaluation (spec §4.4's "State per
// frame"): the environment it runs against, the lowered instructions it
// steps through, a results array pre-sized to the instruction count, an
// instruction pointer, the index of the most recently assigned slot (-1
// until the first Eval or CopyLastAssigned runs), and counters for
// instructions issued and the ParseAndEvals this frame itself spawned as
// child frames.
type frame struct {
	env    *value.Value
	instrs lower.StackFrameInstructions

	// rootExpr and exprVal identify the expression this frame is
	// evaluating, needed for FrameReport and the eval cache key; exprVal
	// is always expr.Encode(rootExpr) but is carried alongside it rather
	// than recomputed, since the ParseAndEval call site that spawned this
	// frame already had the encoded form on hand.
	rootExpr expr.Expr
	exprVal  *value.Value

	results      []*value.Value
	ip           int
	lastAssigned int

	instructionsIssued int
	subFrameCount      int
}

func newFrame(env *value.Value, instrs lower.StackFrameInstructions, rootExpr expr.Expr, exprVal *value.Value) *frame {
	return &frame{
		env:          env,
		instrs:       instrs,
		rootExpr:     rootExpr,
		exprVal:      exprVal,
		results:      make([]*value.Value, instrs.Len()),
		lastAssigned: -1,
	}
}
