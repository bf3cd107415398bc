package lower

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/refeval"
	"github.com/pine-vm/pine/internal/value"
)

// reduceParseAndEvalBudget bounds how many ParseAndEval steps a single
// constant-folding attempt may take before reduce gives up on that
// sub-expression and leaves it unreduced. It only needs to be large enough
// to cover legitimate self-interpretation depth in environment-free
// fragments; anything open-ended is the evaluator's job, not the
// lowerer's.
const reduceParseAndEvalBudget = 64

// reduce applies bounded constant folding: any sub-expression with no
// Environment or StackReference dependency (after substitution has
// already narrowed what it can) is evaluated outright and replaced by its
// Literal result. maxDepth bounds how far below the current node reduce
// will keep descending looking for foldable sub-expressions, so a
// pathologically deep tree costs bounded work per Lower call.
func reduce(e expr.Expr, kernels kernel.Registry, maxDepth int) expr.Expr {
	if maxDepth <= 0 {
		return foldIfPossible(e, kernels)
	}
	children := expr.Children(e)
	if len(children) > 0 {
		newChildren := make([]expr.Expr, len(children))
		for i, c := range children {
			newChildren[i] = reduce(c, kernels, maxDepth-1)
		}
		e = expr.WithChildren(e, newChildren)
	}
	return foldIfPossible(e, kernels)
}

// foldIfPossible evaluates e in isolation (no environment) if it has no
// Environment or StackReference dependency, replacing it with a Literal.
// Already-Literal nodes are left alone so reduce is idempotent.
func foldIfPossible(e expr.Expr, kernels kernel.Registry) expr.Expr {
	if _, ok := e.(expr.Literal); ok {
		return e
	}
	if expr.HasEnvironment(e) {
		return e
	}
	result, err := refeval.Eval(e, value.EmptyList, kernels, reduceParseAndEvalBudget)
	if err != nil {
		return e
	}
	return expr.Literal{Value: result}
}
