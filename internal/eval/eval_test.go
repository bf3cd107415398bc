package eval

import (
	"testing"

	"github.com/pine-vm/pine/internal/diag"
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
)

func lit(n int64) expr.Expr { return expr.Literal{Value: value.FromInt64(n)} }

func mustEval(t *testing.T, e expr.Expr, env *value.Value) *value.Value {
	t.Helper()
	ev := New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	report, err := ev.EvaluateExpression(e, env, Config{})
	if err != nil {
		t.Fatalf("EvaluateExpression: %v", err)
	}
	return report.ReturnValue
}

// Scenario 1: boolean negation via equal(arg, false-blob).
func TestEvaluateBooleanNegation(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Equal,
		Arg: expr.List{Items: []expr.Expr{
			expr.Environment{},
			expr.Literal{Value: value.False},
		}},
	}
	got := mustEval(t, e, value.False)
	if !value.IsTrue(got) {
		t.Fatalf("negate(false) = %v, want true", got)
	}
	got = mustEval(t, e, value.True)
	if !value.IsFalse(got) {
		t.Fatalf("negate(true) = %v, want false", got)
	}
}

// Scenario 2: integer addition via the add_int kernel.
func TestEvaluateIntegerAddition(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.AddInt,
		Arg:  expr.List{Items: []expr.Expr{lit(2), lit(3)}},
	}
	got := mustEval(t, e, value.EmptyList)
	n, err := value.ToInt64(got)
	if err != nil {
		t.Fatalf("ToInt64: %v", err)
	}
	if n != 5 {
		t.Fatalf("2+3 = %d, want 5", n)
	}
}

// Scenario 3: head(skip(n, list)) collapses into the lowerer's
// SkipHeadPath fusion and the evaluator still returns the right element.
func TestEvaluateHeadAfterSkipFusion(t *testing.T) {
	list := value.NewList([]*value.Value{
		value.FromInt64(10), value.FromInt64(20), value.FromInt64(30),
	})
	e := expr.KernelApplication{
		Name: kernel.Head,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg: expr.List{Items: []expr.Expr{
				lit(1),
				expr.Environment{},
			}},
		},
	}
	got := mustEval(t, e, list)
	n, err := value.ToInt64(got)
	if err != nil {
		t.Fatalf("ToInt64: %v", err)
	}
	if n != 20 {
		t.Fatalf("head(skip(1, list)) = %d, want 20", n)
	}
}

// Scenario 4: self-interpretation identity — ParseAndEval on an encoded
// literal yields that literal's value unchanged.
func TestEvaluateParseAndEvalIdentity(t *testing.T) {
	inner := lit(42)
	e := expr.ParseAndEval{
		Encoded: expr.Literal{Value: expr.Encode(inner)},
		Env:     expr.Literal{Value: value.EmptyList},
	}
	got := mustEval(t, e, value.EmptyList)
	n, err := value.ToInt64(got)
	if err != nil {
		t.Fatalf("ToInt64: %v", err)
	}
	if n != 42 {
		t.Fatalf("parseAndEval(lit 42) = %d, want 42", n)
	}
}

// Scenario 5: installing a Constraint-driven compilation class changes
// nothing observable about the return value — only the path taken to get
// there — so this exercises install_compilation_classes end-to-end
// without needing package pgo to exist.
func TestEvaluateWithInstalledCompilationClass(t *testing.T) {
	e := expr.KernelApplication{Name: kernel.Head, Arg: expr.Environment{}}
	env := value.NewList([]*value.Value{value.FromInt64(7)})

	ev := New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	constraint := lower.NewConstraint([]lower.Fact{
		{Path: lower.Path{0}, Value: value.FromInt64(7)},
	})
	ev.InstallCompilationClasses(lower.CompilationClasses{
		lower.KeyOf(e): {constraint},
	})

	report, err := ev.EvaluateExpression(e, env, Config{})
	if err != nil {
		t.Fatalf("EvaluateExpression: %v", err)
	}
	n, err := value.ToInt64(report.ReturnValue)
	if err != nil {
		t.Fatalf("ToInt64: %v", err)
	}
	if n != 7 {
		t.Fatalf("head(env) = %d, want 7", n)
	}
}

// Scenario 6: a ParseAndEval chain that never bottoms out aborts with
// LimitExceeded once parseAndEvalCount exceeds the configured limit, with
// the count reported as exactly limit+1 at the point of failure.
func TestEvaluateParseAndEvalCountLimit(t *testing.T) {
	// selfApply is the classic self-application combinator: encode a
	// ParseAndEval that re-parses and re-evaluates whatever it is handed
	// as its own environment, then hand it a quoted copy of itself as
	// that environment. Each expansion feeds the same quoted form back
	// in, so it never bottoms out without needing an actual quine.
	selfApply := expr.Encode(expr.ParseAndEval{Encoded: expr.Environment{}, Env: expr.Environment{}})
	loop := expr.ParseAndEval{
		Encoded: expr.Literal{Value: selfApply},
		Env:     expr.Literal{Value: selfApply},
	}

	ev := New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	_, err := ev.EvaluateExpression(loop, value.EmptyList, Config{ParseAndEvalCountLimit: 10})
	if err == nil {
		t.Fatalf("expected LimitExceeded, got nil error")
	}
	var limitErr *diag.LimitExceeded
	if !errorsAsLimitExceeded(err, &limitErr) {
		t.Fatalf("expected *diag.LimitExceeded, got %T: %v", err, err)
	}
	if limitErr.Limit != 10 {
		t.Fatalf("Limit = %d, want 10", limitErr.Limit)
	}
	if limitErr.Observed != 11 {
		t.Fatalf("Observed = %d, want 11", limitErr.Observed)
	}
}

func errorsAsLimitExceeded(err error, target **diag.LimitExceeded) bool {
	le, ok := err.(*diag.LimitExceeded)
	if ok {
		*target = le
	}
	return ok
}

func TestProfileEvaluateObservesFrames(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.AddInt,
		Arg:  expr.List{Items: []expr.Expr{lit(1), lit(1)}},
	}
	ev := New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	var frames []FrameReport
	report, err := ev.ProfileEvaluate(e, value.EmptyList, Config{}, func(fr FrameReport) {
		frames = append(frames, fr)
	})
	if err != nil {
		t.Fatalf("ProfileEvaluate: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frame reports, want 1", len(frames))
	}
	if !value.Equal(frames[0].ReturnValue, report.ReturnValue) {
		t.Fatalf("observed frame return %v != report return %v", frames[0].ReturnValue, report.ReturnValue)
	}
}
