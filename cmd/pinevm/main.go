package main

import (
	"os"

	"github.com/pine-vm/pine/cmd/pinevm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
