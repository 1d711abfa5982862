// Command stacker runs, compiles, and disassembles stacker programs, and
// hosts an interactive REPL.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/internal/cli"
)

func main() {
	log := logrus.New()
	root := cli.NewRootCommand(log)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
