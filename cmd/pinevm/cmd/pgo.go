package cmd

import (
	"fmt"

	"github.com/pine-vm/pine/internal/eval"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/pgo"
	"github.com/pine-vm/pine/internal/value"
	"github.com/spf13/cobra"
)

var pgoEnvTexts []string

var pgoCmd = &cobra.Command{
	Use:   "pgo <expr>",
	Short: "Profile sample environments and print derived specialization constraints",
	Long: `Run an expression against each --env sample, collecting a FrameReport
per run, then hand the reports to the PGO analyzer and print the
Constraints it derived.

Example:
  pinevm pgo '(kernel head (kernel skip (list (kernel head (env)) (kernel head (kernel skip (list 1 (env)))))))' \
    --env '(0 (41 47))' --env '(1 (41 47))' --env '(0 (1 2))' --env '(1 (1 2))'`,
	Args: cobra.ExactArgs(1),
	RunE: runPgo,
}

func init() {
	rootCmd.AddCommand(pgoCmd)
	pgoCmd.Flags().StringArrayVar(&pgoEnvTexts, "env", nil, "exprtext value to use as a sample environment (repeatable)")
}

func runPgo(_ *cobra.Command, args []string) error {
	e, err := parseExprText(args[0])
	if err != nil {
		return fmt.Errorf("parsing expression: %w", err)
	}
	if len(pgoEnvTexts) == 0 {
		return fmt.Errorf("at least one --env sample is required")
	}

	ev := eval.New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	var reports []eval.FrameReport
	observe := func(fr eval.FrameReport) { reports = append(reports, fr) }

	for _, envText := range pgoEnvTexts {
		envVal, err := parseValueText(envText)
		if err != nil {
			return fmt.Errorf("parsing --env %q: %w", envText, err)
		}
		if _, err := ev.ProfileEvaluate(e, envVal, eval.Config{}, observe); err != nil {
			return fmt.Errorf("profiling against %q: %w", envText, err)
		}
	}

	classes := pgo.Analyze(reports, pgo.DefaultConfig())
	key := lower.KeyOf(e)
	constraints := classes[key]
	if len(constraints) == 0 {
		fmt.Println("no specialization constraints derived")
		return nil
	}
	for i, c := range constraints {
		fmt.Printf("constraint %d:\n", i)
		for _, f := range c.Facts() {
			fmt.Printf("  path %v = %s\n", []int64(f.Path), value.Pretty(f.Value))
		}
	}
	return nil
}
