// Package refeval implements a plain recursive tree-walking evaluator for
// the Expr IR. The lowerer's reduction pass uses it to constant-fold
// environment-free sub-expressions: "evaluate expression e against
// environment env" with no stack discipline, no cache, no lowering
// involved at all.
// Production evaluation never goes through here: package eval's Evaluator
// is what §4.4 and §9's "own heap-allocated stack of frames" requirement
// describe, precisely because a naive recursive evaluator like this one
// can blow the native stack on a deeply nested value.
package refeval

import (
	"fmt"

	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/value"
)

// ParseAndEvalLimitError is returned when a recursive Eval chain exceeds
// the supplied budget. refeval's caller (the lowerer, during reduction)
// uses a small budget since it only ever evaluates
// environment-free fragments that are expected to terminate quickly.
type ParseAndEvalLimitError struct{ Limit int }

func (e *ParseAndEvalLimitError) Error() string {
	return fmt.Sprintf("refeval: parse-and-eval count exceeded limit %d", e.Limit)
}

// Eval evaluates e against env using kernels for KernelApplication
// dispatch, with no frame/stack machinery: a direct recursive walk. limit
// bounds the number of ParseAndEval encodings this call will parse and
// evaluate (0 means unlimited), guarding against runaway recursion when
// e might self-reference via ParseAndEval.
func Eval(e expr.Expr, env *value.Value, kernels kernel.Registry, limit int) (*value.Value, error) {
	count := 0
	return eval(e, env, kernels, limit, &count)
}

func eval(e expr.Expr, env *value.Value, kernels kernel.Registry, limit int, count *int) (*value.Value, error) {
	switch n := e.(type) {
	case expr.Literal:
		return n.Value, nil
	case expr.Environment:
		return env, nil
	case expr.List:
		items := make([]*value.Value, len(n.Items))
		for i, it := range n.Items {
			v, err := eval(it, env, kernels, limit, count)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return value.NewList(items), nil
	case expr.KernelApplication:
		arg, err := eval(n.Arg, env, kernels, limit, count)
		if err != nil {
			return nil, err
		}
		fn, ok := kernels.Lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("refeval: unknown kernel %q", n.Name)
		}
		return fn(arg), nil
	case expr.Conditional:
		cond, err := eval(n.Cond, env, kernels, limit, count)
		if err != nil {
			return nil, err
		}
		switch {
		case value.IsTrue(cond):
			return eval(n.IfTrue, env, kernels, limit, count)
		case value.IsFalse(cond):
			return eval(n.IfFalse, env, kernels, limit, count)
		default:
			return value.EmptyList, nil
		}
	case expr.StringTag:
		return eval(n.Inner, env, kernels, limit, count)
	case expr.ParseAndEval:
		encoded, err := eval(n.Encoded, env, kernels, limit, count)
		if err != nil {
			return nil, err
		}
		newEnv, err := eval(n.Env, env, kernels, limit, count)
		if err != nil {
			return nil, err
		}
		*count++
		if limit > 0 && *count > limit {
			return nil, &ParseAndEvalLimitError{Limit: limit}
		}
		parsed, err := expr.Parse(encoded, kernels.Known)
		if err != nil {
			return nil, err
		}
		return eval(parsed, newEnv, kernels, limit, count)
	case expr.StackReference, expr.SkipHeadPath, expr.EqualTwo:
		return nil, fmt.Errorf("refeval: interpreter-internal node %T has no closed-form evaluation", e)
	default:
		return nil, fmt.Errorf("refeval: unhandled expression node %T", e)
	}
}
