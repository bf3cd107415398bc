package lower

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
)

// Inlining budget caps (spec §4.3): a candidate's decoded body may not
// exceed 300 sub-expressions, 3 Conditionals, or 4 nested ParseAndEval
// invocations. Exceeding any cap just leaves that ParseAndEval for the
// evaluator to handle at runtime — the caps bound lowering-time cost and
// code growth, not what the program can express. inlineMaxNestingDepth
// does double duty as both the decoded fragment's own nested-invocation
// cap and the depth bound on inline's own splice-then-recurse chain,
// since both are the same "how many ParseAndEval expansions deep" budget
// spec §4.3 names once.
const (
	inlineMaxSubexpressions = 300
	inlineMaxConditionals   = 3
	inlineMaxNestingDepth   = 4
)

// inline splices statically-known ParseAndEval expansions directly into
// the expression tree: when Encoded is a Literal holding a valid encoded
// Expr, and that Expr's size and the current nesting depth are within
// budget, the ParseAndEval is replaced by the decoded expression with
// every Environment reference inside it rewritten to Env (the expression
// that built the call's new environment) — because once spliced into the
// outer tree, what was "the interpreter's new frame environment" becomes
// just another sub-expression evaluated in the outer frame.
func inline(e expr.Expr, kernels kernel.Registry, depth int) expr.Expr {
	children := expr.Children(e)
	if len(children) > 0 {
		newChildren := make([]expr.Expr, len(children))
		for i, c := range children {
			newChildren[i] = inline(c, kernels, depth)
		}
		e = expr.WithChildren(e, newChildren)
	}

	pa, ok := e.(expr.ParseAndEval)
	if !ok {
		return e
	}
	if depth >= inlineMaxNestingDepth {
		return pa
	}
	lit, ok := pa.Encoded.(expr.Literal)
	if !ok {
		return pa
	}
	decoded, err := expr.Parse(lit.Value, kernels.Known)
	if err != nil {
		return pa
	}
	if expr.Count(decoded) > inlineMaxSubexpressions || expr.CountConditionals(decoded) > inlineMaxConditionals {
		return pa
	}
	if expr.CountParseAndEval(decoded) > inlineMaxNestingDepth {
		return pa
	}
	spliced := replaceEnvironment(decoded, pa.Env)
	return inline(spliced, kernels, depth+1)
}

// replaceEnvironment substitutes every Environment node in e with env.
func replaceEnvironment(e, env expr.Expr) expr.Expr {
	if _, ok := e.(expr.Environment); ok {
		return env
	}
	children := expr.Children(e)
	if len(children) == 0 {
		return e
	}
	newChildren := make([]expr.Expr, len(children))
	for i, c := range children {
		newChildren[i] = replaceEnvironment(c, env)
	}
	return expr.WithChildren(e, newChildren)
}
