package lower

import "github.com/pine-vm/pine/internal/expr"

// substitute replaces every fixed env-path navigation in e that c pins to
// a known value with a Literal of that value. It is the lowerer's first
// pass: folding PGO-derived facts into the expression before any other
// simplification runs, so reduction and inlining see the narrowed tree.
func substitute(e expr.Expr, c Constraint) expr.Expr {
	if c.IsUniversal() {
		return e
	}
	if p, ok := recognizePath(e); ok {
		for _, f := range c.facts {
			if pathEqual(p, f.Path) {
				return expr.Literal{Value: f.Value}
			}
		}
	}
	children := expr.Children(e)
	if len(children) == 0 {
		return e
	}
	newChildren := make([]expr.Expr, len(children))
	for i, ch := range children {
		newChildren[i] = substitute(ch, c)
	}
	return expr.WithChildren(e, newChildren)
}

func pathEqual(a, b Path) bool { return a.equal(b) }
