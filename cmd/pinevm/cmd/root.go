package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pinevm",
	Short: "Pine VM developer CLI",
	Long: `pinevm is a debugging and demo harness over the Pine evaluator library.

Pine is a pure-functional expression VM built around a closed
expression IR (package expr), an explicit-stack evaluator (package
eval) and a profile-guided specialization analyzer (package pgo). This
CLI is not a deployment surface — it exercises the library's exported
operations for development and inspection:
  - eval:  evaluate an exprtext expression against an environment
  - lower: show the instruction disassembly the lowerer produces
  - pgo:   derive and print specialization constraints from sample runs`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
