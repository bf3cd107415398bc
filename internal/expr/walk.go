package expr

// Children returns e's immediate sub-expressions in evaluation order. It
// is the one place that knows every variant's shape, so lowerer passes
// that need to recurse generically (occurrence counting, environment-
// reference scanning) can be written once against Children instead of
// repeating a type switch per pass.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case Literal, Environment, StackReference:
		return nil
	case List:
		return append([]Expr(nil), n.Items...)
	case KernelApplication:
		return []Expr{n.Arg}
	case Conditional:
		return []Expr{n.Cond, n.IfTrue, n.IfFalse}
	case ParseAndEval:
		return []Expr{n.Encoded, n.Env}
	case StringTag:
		return []Expr{n.Inner}
	case SkipHeadPath:
		return []Expr{n.Arg}
	case EqualTwo:
		return []Expr{n.Left, n.Right}
	default:
		return nil
	}
}

// WithChildren returns a copy of e with its immediate children replaced by
// newChildren, in the same order Children would report them. It is the
// write side of Children, used by rewrite passes that transform children
// bottom-up and then need to rebuild the parent node.
func WithChildren(e Expr, newChildren []Expr) Expr {
	switch n := e.(type) {
	case Literal, Environment, StackReference:
		return e
	case List:
		items := make([]Expr, len(newChildren))
		copy(items, newChildren)
		return List{Items: items}
	case KernelApplication:
		return KernelApplication{Name: n.Name, Arg: newChildren[0]}
	case Conditional:
		return Conditional{Cond: newChildren[0], IfTrue: newChildren[1], IfFalse: newChildren[2]}
	case ParseAndEval:
		return ParseAndEval{Encoded: newChildren[0], Env: newChildren[1]}
	case StringTag:
		return StringTag{Tag: n.Tag, Inner: newChildren[0]}
	case SkipHeadPath:
		return SkipHeadPath{Skips: n.Skips, Arg: newChildren[0]}
	case EqualTwo:
		return EqualTwo{Left: newChildren[0], Right: newChildren[1]}
	default:
		return e
	}
}

// HasEnvironment reports whether e or any descendant is an Environment
// node or a StackReference (which, once lowered, stands in for a value
// that may itself have come from the environment — treating it as
// environment-dependent is conservative and keeps later passes sound).
func HasEnvironment(e Expr) bool {
	switch e.(type) {
	case Environment, StackReference:
		return true
	}
	for _, c := range Children(e) {
		if HasEnvironment(c) {
			return true
		}
	}
	return false
}

// Count returns the total number of nodes in e's subtree, e included.
func Count(e Expr) int {
	n := 1
	for _, c := range Children(e) {
		n += Count(c)
	}
	return n
}

// CountConditionals returns the number of Conditional nodes in e's
// subtree.
func CountConditionals(e Expr) int {
	n := 0
	if _, ok := e.(Conditional); ok {
		n = 1
	}
	for _, c := range Children(e) {
		n += CountConditionals(c)
	}
	return n
}

// CountParseAndEval returns the number of ParseAndEval nodes in e's
// subtree.
func CountParseAndEval(e Expr) int {
	n := 0
	if _, ok := e.(ParseAndEval); ok {
		n = 1
	}
	for _, c := range Children(e) {
		n += CountParseAndEval(c)
	}
	return n
}
