package pgo

import (
	"fmt"
	"sort"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/pine-vm/pine/internal/eval"
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
)

func fieldEnv(fieldID int64, record []int64) *value.Value {
	items := make([]*value.Value, len(record))
	for i, n := range record {
		items[i] = value.FromInt64(n)
	}
	return value.NewList([]*value.Value{
		value.FromInt64(fieldID),
		value.NewList(items),
	})
}

func TestAnalyzeEmitsOneConstraintPerFieldID(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Head,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg: expr.List{Items: []expr.Expr{
				expr.KernelApplication{Name: kernel.Head, Arg: expr.Environment{}},
				expr.KernelApplication{
					Name: kernel.Head,
					Arg: expr.KernelApplication{
						Name: kernel.Skip,
						Arg: expr.List{Items: []expr.Expr{
							expr.Literal{Value: value.FromInt64(1)},
							expr.Environment{},
						}},
					},
				},
			}},
		},
	}

	ev := eval.New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	var reports []eval.FrameReport
	observe := func(fr eval.FrameReport) { reports = append(reports, fr) }

	records := [][]int64{{41, 47}, {1, 2}, {10, 20}, {100, 200}, {7, 8}, {9, 9}}
	fieldIDs := []int64{0, 1, 0, 1, 0, 1}
	for i := 0; i < 12; i++ {
		fieldID := fieldIDs[i%len(fieldIDs)]
		record := records[i%len(records)]
		env := fieldEnv(fieldID, record)
		if _, err := ev.ProfileEvaluate(e, env, eval.Config{}, observe); err != nil {
			t.Fatalf("ProfileEvaluate sample %d: %v", i, err)
		}
	}

	classes := Analyze(reports, DefaultConfig())
	key := lower.KeyOf(e)
	constraints, ok := classes[key]
	if !ok {
		t.Fatalf("no constraints emitted for expression")
	}
	if len(constraints) != 2 {
		t.Fatalf("got %d constraints, want 2 (one per fieldId)", len(constraints))
	}

	seen := map[int64]bool{}
	for _, c := range constraints {
		for _, f := range c.Facts() {
			if len(f.Path) == 1 && f.Path[0] == 0 {
				n, err := value.ToInt64(f.Value)
				if err != nil {
					t.Fatalf("ToInt64: %v", err)
				}
				seen[n] = true
			}
		}
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("constraints don't cover both fieldId values: %v", seen)
	}
}

// TestAnalyzeConstraintSnapshot locks down the rendered shape of the
// derived EnvConstraintId set for a fixed sample run, the way the
// teacher's go-snaps tests lock down other derived-data dumps.
func TestAnalyzeConstraintSnapshot(t *testing.T) {
	e := expr.KernelApplication{
		Name: kernel.Head,
		Arg: expr.KernelApplication{
			Name: kernel.Skip,
			Arg: expr.List{Items: []expr.Expr{
				expr.KernelApplication{Name: kernel.Head, Arg: expr.Environment{}},
				expr.KernelApplication{
					Name: kernel.Head,
					Arg: expr.KernelApplication{
						Name: kernel.Skip,
						Arg: expr.List{Items: []expr.Expr{
							expr.Literal{Value: value.FromInt64(1)},
							expr.Environment{},
						}},
					},
				},
			}},
		},
	}

	ev := eval.New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	var reports []eval.FrameReport
	observe := func(fr eval.FrameReport) { reports = append(reports, fr) }

	records := [][]int64{{41, 47}, {1, 2}, {10, 20}, {100, 200}, {7, 8}, {9, 9}}
	fieldIDs := []int64{0, 1, 0, 1, 0, 1}
	for i := 0; i < 12; i++ {
		fieldID := fieldIDs[i%len(fieldIDs)]
		record := records[i%len(records)]
		env := fieldEnv(fieldID, record)
		if _, err := ev.ProfileEvaluate(e, env, eval.Config{}, observe); err != nil {
			t.Fatalf("ProfileEvaluate sample %d: %v", i, err)
		}
	}

	classes := Analyze(reports, DefaultConfig())
	snaps.MatchSnapshot(t, renderClasses(classes))
}

func renderClasses(classes lower.CompilationClasses) string {
	keys := make([]lower.ExpressionKey, 0, len(classes))
	for k := range classes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprintf("%x", keys[i]) < fmt.Sprintf("%x", keys[j])
	})
	var out string
	for _, k := range keys {
		constraints := classes[k]
		out += fmt.Sprintf("expression %x: %d constraint(s)\n", k[:4], len(constraints))
		for i, c := range constraints {
			out += fmt.Sprintf("  [%d] ", i)
			for _, f := range c.Facts() {
				out += fmt.Sprintf("path=%v value=%s ", f.Path, value.Pretty(f.Value))
			}
			out += "\n"
		}
	}
	return out
}

func TestAnalyzeSkipsExpressionsWithNoDiscriminator(t *testing.T) {
	e := expr.Literal{Value: value.FromInt64(1)}
	ev := eval.New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	var reports []eval.FrameReport
	for i := 0; i < 5; i++ {
		_, err := ev.ProfileEvaluate(e, value.EmptyList, eval.Config{}, func(fr eval.FrameReport) {
			reports = append(reports, fr)
		})
		if err != nil {
			t.Fatalf("ProfileEvaluate: %v", err)
		}
	}
	classes := Analyze(reports, DefaultConfig())
	if len(classes) != 0 {
		t.Fatalf("expected no constraints for a constant expression, got %v", classes)
	}
}
