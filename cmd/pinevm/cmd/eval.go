package cmd

import (
	"fmt"

	"github.com/pine-vm/pine/internal/eval"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
	"github.com/spf13/cobra"
)

var (
	evalEnvText           string
	evalParseAndEvalLimit int
)

var evalCmd = &cobra.Command{
	Use:   "eval <expr>",
	Short: "Evaluate an expression against an environment",
	Long: `Evaluate an exprtext expression and print its return value.

Examples:
  # Integer addition
  pinevm eval '(kernel add_int (list 2 3))'

  # Evaluate against a non-empty environment
  pinevm eval --env '(7 8)' '(kernel head (env))'`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalEnvText, "env", "()", "exprtext value to use as the environment")
	evalCmd.Flags().IntVar(&evalParseAndEvalLimit, "parse-and-eval-limit", 0, "abort after this many ParseAndEval expansions (0 = unlimited)")
}

func runEval(_ *cobra.Command, args []string) error {
	e, err := parseExprText(args[0])
	if err != nil {
		return fmt.Errorf("parsing expression: %w", err)
	}
	envVal, err := parseValueText(evalEnvText)
	if err != nil {
		return fmt.Errorf("parsing --env: %w", err)
	}

	ev := eval.New(kernel.DefaultRegistry(), lower.DefaultMaxReduceDepth)
	report, err := ev.EvaluateExpression(e, envVal, eval.Config{ParseAndEvalCountLimit: evalParseAndEvalLimit})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	fmt.Println(value.Pretty(report.ReturnValue))
	fmt.Printf("instructions: %d, parseAndEval: %d\n", report.InstructionCount, report.ParseAndEvalCount)
	return nil
}

// parseValueText reads a bare exprtext value (no expression forms),
// used for --env where only data, never code, is expected.
func parseValueText(s string) (*value.Value, error) {
	r := newExprReader(s)
	v, err := r.readAtomValue()
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.tokens) {
		return nil, fmt.Errorf("exprtext: trailing input after value")
	}
	return v, nil
}
