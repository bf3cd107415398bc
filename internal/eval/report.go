package eval

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/value"
)

// FrameReport describes one completed frame's execution, streamed to a
// ProfileEvaluate observer as the frame returns (spec §4.4's "observer
// (if any) is called with a FrameReport"). It is the PGO analyzer's raw
// input: package pgo aggregates many of these per expression to derive
// stable path→value facts.
type FrameReport struct {
	ExpressionValue   *value.Value
	Expression        expr.Expr
	Environment       *value.Value
	InstructionCount  int
	ParseAndEvalCount int
	ReturnValue       *value.Value
}

// Observer receives a FrameReport for every frame that returns
// successfully during a ProfileEvaluate call. Observers never see a
// frame that failed (spec §7: "a failure in evaluation terminates before
// any enclosing observer callback").
type Observer func(FrameReport)

// Report is the outcome of a top-level EvaluateExpression/ProfileEvaluate
// call (spec §6's `evaluate` operation).
type Report struct {
	ExpressionValue   *value.Value
	Expression        expr.Expr
	Environment       *value.Value
	InstructionCount  int
	ParseAndEvalCount int
	ReturnValue       *value.Value
}
