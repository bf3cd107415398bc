package cmd

import (
	"fmt"

	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/spf13/cobra"
)

var lowerCmd = &cobra.Command{
	Use:   "lower <expr>",
	Short: "Show the lowered instruction disassembly for an expression",
	Long: `Lower an exprtext expression and print its StackFrameInstructions,
the same instruction listing the evaluator itself runs.

Example:
  pinevm lower '(if (kernel equal (list (env) 1)) 100 200)'`,
	Args: cobra.ExactArgs(1),
	RunE: runLower,
}

func init() {
	rootCmd.AddCommand(lowerCmd)
}

func runLower(_ *cobra.Command, args []string) error {
	e, err := parseExprText(args[0])
	if err != nil {
		return fmt.Errorf("parsing expression: %w", err)
	}

	instrs := lower.Lower(e, kernel.DefaultRegistry(), lower.NewConstraint(nil), lower.DefaultMaxReduceDepth)
	fmt.Print(instrs.String())
	return nil
}
