package lower

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/value"
)

func lit(n int64) expr.Expr { return expr.Literal{Value: value.FromInt64(n)} }

func TestLowerFoldsEnvironmentFreeLiterals(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.AddInt,
		Arg:  expr.List{Items: []expr.Expr{lit(2), lit(3)}},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)
	if instrs.Len() != 2 {
		t.Fatalf("expected a single Eval plus Return, got %d instructions:\n%s", instrs.Len(), instrs)
	}
	ev, ok := instrs.Instructions[0].(Eval)
	if !ok {
		t.Fatalf("expected Eval as first instruction, got %T", instrs.Instructions[0])
	}
	got, ok := ev.Expr.(expr.Literal)
	if !ok {
		t.Fatalf("expected folded literal, got %T", ev.Expr)
	}
	if !value.Equal(got.Value, value.FromInt64(5)) {
		t.Fatalf("folded value = %s, want 5", value.Pretty(got.Value))
	}
	if _, ok := instrs.Instructions[1].(Return); !ok {
		t.Fatalf("expected final instruction to be Return")
	}
}

func TestLowerSplitsRootConditionalIntoJumps(t *testing.T) {
	// Cond and IfFalse depend on Environment so the constant-folding pass
	// can't collapse the whole Conditional to a Literal before build ever
	// sees it — that would trivially satisfy the instruction
	// counts below without exercising the jump-form split at all.
	e := expr.Conditional{
		Cond:    expr.KernelApplication{Name: kernel.Equal, Arg: expr.List{Items: []expr.Expr{expr.Environment{}, lit(1)}}},
		IfTrue:  lit(100),
		IfFalse: expr.KernelApplication{Name: kernel.Head, Arg: expr.Environment{}},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)

	var sawCond, sawJump, sawCopy, sawReturn int
	for _, in := range instrs.Instructions {
		switch in.(type) {
		case ConditionalJump:
			sawCond++
		case Jump:
			sawJump++
		case CopyLastAssigned:
			sawCopy++
		case Return:
			sawReturn++
		}
	}
	if sawCond != 1 || sawJump != 1 || sawCopy != 2 || sawReturn != 1 {
		t.Fatalf("unexpected jump-form shape (cjump=%d jump=%d copy=%d return=%d):\n%s",
			sawCond, sawJump, sawCopy, sawReturn, instrs)
	}
}

func TestFusionProducesSkipHeadPath(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Head,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg:  expr.List{Items: []expr.Expr{lit(2), expr.Environment{}}},
		},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)
	ev, ok := instrs.Instructions[0].(Eval)
	if !ok {
		t.Fatalf("expected Eval, got %T", instrs.Instructions[0])
	}
	shp, ok := ev.Expr.(expr.SkipHeadPath)
	if !ok {
		t.Fatalf("expected SkipHeadPath fusion, got %T", ev.Expr)
	}
	if len(shp.Skips) != 1 || shp.Skips[0] != 2 {
		t.Fatalf("unexpected skip chain %v", shp.Skips)
	}
}

func TestFusionProducesEqualTwo(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Equal,
		Arg:  expr.List{Items: []expr.Expr{expr.Environment{}, lit(9)}},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)
	ev := instrs.Instructions[0].(Eval)
	if _, ok := ev.Expr.(expr.EqualTwo); !ok {
		t.Fatalf("expected EqualTwo fusion, got %T", ev.Expr)
	}
}

func TestCSEPromotesRepeatedSubexpression(t *testing.T) {
	repeated := expr.KernelApplication{
		Name: kernel.Length,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg:  expr.List{Items: []expr.Expr{lit(1), expr.Environment{}}},
		},
	}
	e := expr.List{Items: []expr.Expr{repeated, repeated, lit(0)}}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)

	// Both "skip(1, env)" and "length(skip(1, env))" each occur twice, so
	// both get promoted to their own instruction: skip's Eval, length's
	// Eval (referencing skip's slot), the combining List's Eval, Return.
	if instrs.Len() != 4 {
		t.Fatalf("expected skip+length promoted plus the combining Eval and Return, got %d:\n%s",
			instrs.Len(), instrs)
	}
	skipEv := instrs.Instructions[0].(Eval)
	if _, ok := skipEv.Expr.(expr.KernelApplication); !ok {
		t.Fatalf("expected the first promoted instruction to hold the skip application, got %T", skipEv.Expr)
	}
	lengthEv := instrs.Instructions[1].(Eval)
	lengthKA, ok := lengthEv.Expr.(expr.KernelApplication)
	if !ok || lengthKA.Name != kernel.Length {
		t.Fatalf("expected the second promoted instruction to hold length(ref), got %#v", lengthEv.Expr)
	}
	if ref, ok := lengthKA.Arg.(expr.StackReference); !ok || ref.Offset != -1 {
		t.Fatalf("expected length's argument to reference skip's slot via offset -1, got %#v", lengthKA.Arg)
	}
	combine := instrs.Instructions[2].(Eval)
	lst, ok := combine.Expr.(expr.List)
	if !ok || len(lst.Items) != 3 {
		t.Fatalf("expected final instruction to combine 3 items, got %#v", combine.Expr)
	}
	ref1, ok1 := lst.Items[0].(expr.StackReference)
	ref2, ok2 := lst.Items[1].(expr.StackReference)
	if !ok1 || !ok2 || ref1.Offset >= 0 || ref2.Offset >= 0 || ref1 != ref2 {
		t.Fatalf("expected both occurrences to reference the same prior slot via a negative offset, got %#v %#v", lst.Items[0], lst.Items[1])
	}
	if _, ok := instrs.Instructions[3].(Return); !ok {
		t.Fatalf("expected final instruction to be Return")
	}
}

func TestConstraintSubstitutionFoldsPinnedPath(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Head,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg:  expr.List{Items: []expr.Expr{lit(0), expr.Environment{}}},
		},
	}
	c := NewConstraint([]Fact{{Path: Path{0}, Value: value.FromInt64(42)}})
	instrs := Lower(e, kernel.DefaultRegistry(), c, DefaultMaxReduceDepth)
	if instrs.Len() != 2 {
		t.Fatalf("expected the pinned path to fold to a single literal, got:\n%s", instrs)
	}
	ev := instrs.Instructions[0].(Eval)
	got, ok := ev.Expr.(expr.Literal)
	if !ok || !value.Equal(got.Value, value.FromInt64(42)) {
		t.Fatalf("expected folded literal 42, got %#v", ev.Expr)
	}
}

// nestedParseAndEval builds a chain of n nested ParseAndEval nodes, each
// wrapping the next, bottoming out in a Literal. It is used below purely
// as a fragment whose CountParseAndEval is n — it is never actually
// evaluated.
func nestedParseAndEval(n int) expr.Expr {
	if n <= 0 {
		return lit(1)
	}
	return expr.ParseAndEval{Encoded: lit(0), Env: nestedParseAndEval(n - 1)}
}

// TestInlineRespectsNestedInvocationCap exercises spec §4.3 step 3's third
// inlining cap: a decoded fragment with more than 4 nested ParseAndEval
// invocations must be left unexpanded, even though it is well within the
// sub-expression and conditional caps.
func TestInlineRespectsNestedInvocationCap(t *testing.T) {
	decoded := nestedParseAndEval(5)
	if got := expr.CountParseAndEval(decoded); got != 5 {
		t.Fatalf("test fixture has %d nested ParseAndEval nodes, want 5", got)
	}

	e := expr.ParseAndEval{
		Encoded: expr.Literal{Value: expr.Encode(decoded)},
		Env:     expr.Environment{},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)

	if instrs.Len() != 2 {
		t.Fatalf("expected the ParseAndEval to be left as a single Eval plus Return, got %d instructions:\n%s", instrs.Len(), instrs)
	}
	ev, ok := instrs.Instructions[0].(Eval)
	if !ok {
		t.Fatalf("expected Eval as first instruction, got %T", instrs.Instructions[0])
	}
	if _, ok := ev.Expr.(expr.ParseAndEval); !ok {
		t.Fatalf("expected the over-budget ParseAndEval to survive unexpanded, got %#v", ev.Expr)
	}
}

func TestLowerDisassemblySnapshot(t *testing.T) {
	e := expr.Conditional{
		Cond: expr.KernelApplication{
			Name: kernel.IsSortedAscendingInt,
			Arg:  expr.Environment{},
		},
		IfTrue:  expr.KernelApplication{Name: kernel.Head, Arg: expr.Environment{}},
		IfFalse: expr.KernelApplication{Name: kernel.Reverse, Arg: expr.Environment{}},
	}
	instrs := Lower(e, kernel.DefaultRegistry(), NewConstraint(nil), DefaultMaxReduceDepth)
	snaps.MatchSnapshot(t, instrs.String())
}
