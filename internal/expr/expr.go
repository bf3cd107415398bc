// Package expr defines Pine's intermediate representation: a closed set
// of expression variants, all pure and total, plus the handful of
// interpreter-internal variants the lowerer introduces. Every public
// variant has a canonical encoding as a value.Value and a structural hash derived
// from it (see encode.go), which is what lets expressions serve as cache
// keys and as first-class data that ParseAndEval can decode at runtime.
package expr

import "github.com/pine-vm/pine/internal/value"

// Expr is the sealed union of IR expression variants. The interface has
// an unexported method so no package outside expr can introduce a new
// variant; the evaluator's switch over Expr is therefore exhaustive by
// construction, not by convention.
type Expr interface {
	exprNode()
}

// Literal yields its Value unchanged.
type Literal struct {
	Value *value.Value
}

// List yields a List Value of its items' results, evaluated left to right.
type List struct {
	Items []Expr
}

// Environment yields the current environment Value.
type Environment struct{}

// KernelApplication evaluates Arg, then applies the named kernel function
// (internal/kernel) to the result.
type KernelApplication struct {
	Name string
	Arg  Expr
}

// Conditional evaluates Cond; if it equals the true-blob it evaluates and
// yields IfTrue, if the false-blob it evaluates and yields IfFalse,
// otherwise it yields the empty list without evaluating either branch.
type Conditional struct {
	Cond, IfTrue, IfFalse Expr
}

// ParseAndEval evaluates Encoded and Env, decodes the Encoded Value back
// into an Expr, and evaluates that Expr against the Env Value. This is
// the IR's only recursion mechanism and the reason the VM is
// self-interpreting: a Pine program can construct and evaluate new Pine
// programs.
type ParseAndEval struct {
	Encoded, Env Expr
}

// StringTag evaluates and yields Inner; Tag is diagnostic only and has no
// effect on the result.
type StringTag struct {
	Tag   string
	Inner Expr
}

func (Literal) exprNode()           {}
func (List) exprNode()              {}
func (Environment) exprNode()       {}
func (KernelApplication) exprNode() {}
func (Conditional) exprNode()       {}
func (ParseAndEval) exprNode()      {}
func (StringTag) exprNode()         {}

// --- Interpreter-internal variants -----------------------------------
//
// These are never produced by Encode/Parse and never appear in an
// expression a host hands to the evaluator directly; the lowerer
// introduces them while compiling an Expr into lower.StackFrameInstructions
// (package lower), and the evaluator's stackless helper consumes them.
// They are declared here, rather than in package lower, because Eval's
// dispatch switch needs one Expr union that covers both the public IR and
// these fused/internal forms.

// StackReference reads a previously computed value out of the current
// stack frame's result array. Offset must be strictly negative and must
// address an instruction that has already run in the same frame;
// constructing one any other way is a lowerer bug, not a user error.
type StackReference struct {
	Offset int
}

// SkipHeadPath is the fusion of head(skip(skip0, skip(skip1, ... Arg))):
// a chain of skip-then-eventually-head collapsed into a single fused
// step. It is semantically identical to nesting the non-fused forms.
type SkipHeadPath struct {
	Skips []int64
	Arg   Expr
}

// EqualTwo is the fusion of equal([l, r]) into a direct two-argument
// comparison, skipping the intermediate list allocation.
type EqualTwo struct {
	Left, Right Expr
}

func (StackReference) exprNode() {}
func (SkipHeadPath) exprNode()   {}
func (EqualTwo) exprNode()       {}
