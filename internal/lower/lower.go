// Package lower implements Pine's lowering pipeline (spec §4.3): it turns
// an Expression into StackFrameInstructions, the flat jump-addressed
// program package eval's explicit-stack Evaluator runs. The pipeline runs
// substitution of PGO-derived environment facts, depth-bounded constant
// folding, budget-guarded ParseAndEval inlining, imperative-graph
// construction of any root-level Conditional into jump form, common
// sub-expression elimination within each straight-line span, and a small
// peephole fusion pass, in that order.
package lower

import (
	"sort"

	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/value"
)

// DefaultMaxReduceDepth bounds how far the constant-folding pass descends
// per Lower call, used whenever a caller doesn't have a more specific
// figure from profiling.
const DefaultMaxReduceDepth = 64

// Lower compiles e into StackFrameInstructions specialized for constraint
// (pass NewConstraint(nil) for the unconstrained, generic compilation).
func Lower(e expr.Expr, kernels kernel.Registry, constraint Constraint, maxReduceDepth int) StackFrameInstructions {
	e = substitute(e, constraint)
	e = reduce(e, kernels, maxReduceDepth)
	e = inline(e, kernels, 0)
	e = reduce(e, kernels, maxReduceDepth)
	return build(e, kernels)
}

// ExpressionKey identifies an Expression by its structural hash, used to
// key per-expression PGO state (CompilationClasses) and compiled-code
// caches.
type ExpressionKey [32]byte

// KeyOf returns e's ExpressionKey.
func KeyOf(e expr.Expr) ExpressionKey { return ExpressionKey(expr.Hash(e)) }

// CompilationClasses records, per expression, the ordered (most-specific
// first) set of Constraints the PGO analyzer (package pgo) decided are
// worth compiling a dedicated specialization for. A host installs one of
// these via Evaluator.InstallCompilationClasses; the Evaluator lowers one
// specialization per listed Constraint when it next compiles that
// expression, and without an installed entry an expression gets only its
// generic compilation. Constraint.ID identifies each class for reporting
// without needing a separate lookup table.
type CompilationClasses map[ExpressionKey][]Constraint

// Specialization pairs one Constraint with the StackFrameInstructions
// Lower produced for it.
type Specialization struct {
	Constraint   Constraint
	Instructions StackFrameInstructions
}

// ExpressionCompilation is the full compiled form of one Expression: a
// generic (unconstrained) compilation plus zero or more environment-
// specialized ones, ordered most-specific-first so
// SelectInstructionsForEnvironment can stop at the first match.
type ExpressionCompilation struct {
	Generic         StackFrameInstructions
	Specializations []Specialization
}

// BuildCompilation lowers e once generically and once per non-universal
// constraint in constraints, producing the full ExpressionCompilation.
func BuildCompilation(e expr.Expr, kernels kernel.Registry, constraints []Constraint, maxReduceDepth int) ExpressionCompilation {
	generic := Lower(e, kernels, NewConstraint(nil), maxReduceDepth)
	specs := make([]Specialization, 0, len(constraints))
	for _, c := range constraints {
		if c.IsUniversal() {
			continue
		}
		specs = append(specs, Specialization{
			Constraint:   c,
			Instructions: Lower(e, kernels, c, maxReduceDepth),
		})
	}
	sort.SliceStable(specs, func(i, j int) bool {
		return len(specs[i].Constraint.facts) > len(specs[j].Constraint.facts)
	})
	return ExpressionCompilation{Generic: generic, Specializations: specs}
}

// SelectInstructionsForEnvironment picks the most specific specialization
// whose Constraint matches env, falling back to the generic compilation
// if none does (spec §9's "most specific match" selection rule).
func (ec ExpressionCompilation) SelectInstructionsForEnvironment(env *value.Value) StackFrameInstructions {
	for _, s := range ec.Specializations {
		if s.Constraint.Matches(env) {
			return s.Instructions
		}
	}
	return ec.Generic
}
