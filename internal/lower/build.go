package lower

import (
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/value"
)

// builder accumulates the flat Instruction sequence for one Lower call.
type builder struct {
	kernels kernel.Registry
	instrs  []Instruction
}

func (b *builder) emit(instr Instruction) int {
	b.instrs = append(b.instrs, instr)
	return len(b.instrs) - 1
}

// region tracks the CSE-promoted sub-expressions of a single straight-line
// instruction span: assigned[i] is the fingerprint promoted at position i,
// and index is its inverse. Positions never cross a Conditional boundary
// — each region starts fresh — which is what keeps the StackReference
// offsets produced below correct regardless of which branch a Conditional
// takes at runtime (see buildRegion).
type region struct {
	assigned []([32]byte)
	index    map[[32]byte]int
}

func newRegion() *region { return &region{index: map[[32]byte]int{}} }

// cseMinSubexpressions is the node count above which any repeated
// sub-expression is promoted by CSE, whatever its variant.
const cseMinSubexpressions = 10

// build runs the imperative-graph-construction and CSE/fusion passes over
// a substituted-reduced-inlined expression, producing its
// StackFrameInstructions. It is the last stage of Lower.
func build(e expr.Expr, kernels kernel.Registry) StackFrameInstructions {
	b := &builder{kernels: kernels}
	b.buildRegion(e)
	b.emit(Return{})
	return StackFrameInstructions{Instructions: b.instrs}
}

// buildRegion emits the instructions that compute e's value, leaving it
// as the frame's most-recently-assigned result. A Conditional at the
// region root is split into the four-region jump form (spec §4.3); a
// Conditional found nested inside some other expression is left embedded
// untouched, to be evaluated recursively by the evaluator's stackless
// handling of Conditional (spec §4.4) — this is what avoids ever needing
// a StackReference whose offset would depend on which branch ran.
func (b *builder) buildRegion(e expr.Expr) {
	if cond, ok := e.(expr.Conditional); ok {
		b.buildRegion(cond.Cond)
		cjIdx := b.emit(ConditionalJump{})

		b.buildRegion(cond.IfFalse)
		b.emit(CopyLastAssigned{})
		jIdx := b.emit(Jump{})

		trueStart := len(b.instrs)
		b.buildRegion(cond.IfTrue)
		b.emit(CopyLastAssigned{})

		cont := len(b.instrs)
		b.instrs[cjIdx] = ConditionalJump{TrueTarget: trueStart, InvalidTarget: cont}
		b.instrs[jIdx] = Jump{Target: cont}
		return
	}

	counts := map[[32]byte]int{}
	countOccurrences(e, counts)
	r := newRegion()
	transformed := b.promote(e, r, counts)
	final := resolvePlaceholders(transformed, len(r.assigned))
	b.emit(Eval{Expr: applyFusion(final)})
}

// qualifiesForCSE reports whether e is "large enough" to be worth
// promoting to its own instruction when repeated: any kernel application
// or tagged expression, any dynamic (non-inlined) ParseAndEval, a list of
// at least three items, or any sub-expression of more than
// cseMinSubexpressions nodes. Literal, Environment and StackReference are
// always cheap enough to simply re-embed.
func qualifiesForCSE(e expr.Expr) bool {
	if expr.Count(e) > cseMinSubexpressions {
		return true
	}
	switch n := e.(type) {
	case expr.KernelApplication, expr.StringTag, expr.ParseAndEval:
		return true
	case expr.List:
		return len(n.Items) >= 3
	default:
		return false
	}
}

// countOccurrences tallies, by fingerprint, how many times each
// CSE-eligible sub-expression appears in e, not descending into a nested
// Conditional's branches (those are out of scope for this region's CSE —
// they belong to their own region if and when they're built).
func countOccurrences(e expr.Expr, counts map[[32]byte]int) {
	if _, ok := e.(expr.Conditional); ok {
		return
	}
	for _, c := range expr.Children(e) {
		countOccurrences(c, counts)
	}
	if qualifiesForCSE(e) {
		counts[fingerprint(e)]++
	}
}

// promote rewrites e bottom-up, replacing every sub-expression that
// occurs more than once in counts with a placeholder StackReference,
// emitting the promoted sub-expression's own Eval instruction the first
// time each one is encountered. The placeholder's Offset temporarily
// holds an absolute promotion index (always >= 0); resolvePlaceholders
// converts it to the proper negative, frame-relative offset once the
// position of the instruction that will embed it is known. A Conditional
// is never itself a promotion candidate: it is left untouched, matching
// buildRegion's decision to keep nested conditionals embedded.
func (b *builder) promote(e expr.Expr, r *region, counts map[[32]byte]int) expr.Expr {
	if _, ok := e.(expr.Conditional); ok {
		return e
	}
	// origFP is computed against e before its children are rewritten: once
	// a child gets promoted to a placeholder below, e's own fingerprint
	// would stop matching the occurrence count and region index recorded
	// for its original (pre-rewrite) shape, which is the key every other
	// occurrence of this same sub-expression was also counted and indexed
	// under.
	origFP := fingerprint(e)

	rewritten := e
	children := expr.Children(e)
	if len(children) > 0 {
		newChildren := make([]expr.Expr, len(children))
		for i, c := range children {
			newChildren[i] = b.promote(c, r, counts)
		}
		rewritten = expr.WithChildren(e, newChildren)
	}
	if !qualifiesForCSE(e) {
		return rewritten
	}
	if counts[origFP] <= 1 {
		return rewritten
	}
	if pos, ok := r.index[origFP]; ok {
		return expr.StackReference{Offset: pos}
	}
	priorCount := len(r.assigned)
	resolved := resolvePlaceholders(rewritten, priorCount)
	b.emit(Eval{Expr: applyFusion(resolved)})
	r.index[origFP] = priorCount
	r.assigned = append(r.assigned, origFP)
	return expr.StackReference{Offset: priorCount}
}

// resolvePlaceholders converts every non-negative-offset StackReference
// placeholder in e (an absolute promotion index q) into the real,
// negative, frame-relative offset -(pos-q), where pos is the number of
// promotions already assigned in this region at the moment the
// instruction embedding e is about to run.
func resolvePlaceholders(e expr.Expr, pos int) expr.Expr {
	if ref, ok := e.(expr.StackReference); ok {
		if ref.Offset >= 0 {
			return expr.StackReference{Offset: -(pos - ref.Offset)}
		}
		return ref
	}
	children := expr.Children(e)
	if len(children) == 0 {
		return e
	}
	newChildren := make([]expr.Expr, len(children))
	for i, c := range children {
		newChildren[i] = resolvePlaceholders(c, pos)
	}
	return expr.WithChildren(e, newChildren)
}

// applyFusion runs the peephole pass bottom-up: equal([a, b]) becomes
// EqualTwo{a, b}, and a head(skip(n1, skip(n2, ... x))) chain becomes a
// single SkipHeadPath, skipping the intermediate list/skip-result
// allocations the unfused forms would otherwise build.
func applyFusion(e expr.Expr) expr.Expr {
	children := expr.Children(e)
	if len(children) > 0 {
		newChildren := make([]expr.Expr, len(children))
		for i, c := range children {
			newChildren[i] = applyFusion(c)
		}
		e = expr.WithChildren(e, newChildren)
	}
	ka, ok := e.(expr.KernelApplication)
	if !ok {
		return e
	}
	switch ka.Name {
	case kernel.Equal:
		if lst, ok := ka.Arg.(expr.List); ok && len(lst.Items) == 2 {
			return expr.EqualTwo{Left: lst.Items[0], Right: lst.Items[1]}
		}
	case kernel.Head:
		if skips, arg, ok := collectSkipChain(ka.Arg); ok {
			return expr.SkipHeadPath{Skips: skips, Arg: arg}
		}
	}
	return e
}

// collectSkipChain recognizes a nested chain of skip(n, inner) calls,
// returning the collected skip counts (outermost first) and the
// innermost non-skip argument.
func collectSkipChain(e expr.Expr) ([]int64, expr.Expr, bool) {
	ka, ok := e.(expr.KernelApplication)
	if !ok || ka.Name != kernel.Skip {
		return nil, e, false
	}
	args, ok := ka.Arg.(expr.List)
	if !ok || len(args.Items) != 2 {
		return nil, e, false
	}
	lit, ok := args.Items[0].(expr.Literal)
	if !ok {
		return nil, e, false
	}
	n, err := value.ToInt64(lit.Value)
	if err != nil {
		return nil, e, false
	}
	if innerSkips, inner, ok := collectSkipChain(args.Items[1]); ok {
		return append([]int64{n}, innerSkips...), inner, true
	}
	return []int64{n}, args.Items[1], true
}
