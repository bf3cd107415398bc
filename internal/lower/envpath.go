package lower

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/value"
)

// recognizePath reports whether e is a fixed navigation into the
// environment — Environment itself, or a chain of
// head(skip(literal_n, inner)) steps rooted at Environment — and if so
// returns the Path it denotes. This is the substitution pass's way of
// spotting "env[1][0]"-shaped sub-expressions so a PGO-derived Constraint
// fact pinning that position can replace them with a Literal outright.
func recognizePath(e expr.Expr) (Path, bool) {
	switch n := e.(type) {
	case expr.Environment:
		return Path{}, true
	case expr.KernelApplication:
		if n.Name != kernel.Head {
			return nil, false
		}
		skipKA, ok := n.Arg.(expr.KernelApplication)
		if !ok || skipKA.Name != kernel.Skip {
			return nil, false
		}
		args, ok := skipKA.Arg.(expr.List)
		if !ok || len(args.Items) != 2 {
			return nil, false
		}
		lit, ok := args.Items[0].(expr.Literal)
		if !ok {
			return nil, false
		}
		idx, err := value.ToInt64(lit.Value)
		if err != nil || idx < 0 {
			return nil, false
		}
		prefix, ok := recognizePath(args.Items[1])
		if !ok {
			return nil, false
		}
		return append(append(Path(nil), prefix...), idx), true
	default:
		return nil, false
	}
}

// pathExpr builds the head(skip(literal_n, inner)) chain recognizePath
// would recognize for p, rooted at Environment: the inverse of
// recognizePath, describing a Path as Pine expression rather than as raw
// index numbers.
func pathExpr(p Path) expr.Expr {
	e := expr.Expr(expr.Environment{})
	for _, idx := range p {
		e = expr.KernelApplication{
			Name: kernel.Head,
			Arg: expr.KernelApplication{
				Name: kernel.Skip,
				Arg: expr.List{Items: []expr.Expr{
					expr.Literal{Value: value.FromInt64(idx)},
					e,
				}},
			},
		}
	}
	return e
}
