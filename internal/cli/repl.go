package cli

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"
	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/pkg/vm"
)

func newReplCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Long: heredoc.Doc(`
			Repl reads one line at a time, tokenizes and parses it, and runs it
			against a single VM kept alive for the whole session — definitions
			and data pushed by one line are visible to the next.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(log)
		},
	}
}

func runRepl(log *logrus.Logger) error {
	rl, err := readline.New("stacker> ")
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	m := vm.New()
	m.SetPrintSink(func(s string) { fmt.Println(s) })

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if err := m.Parse(line); err != nil {
			log.WithError(err).Error("parse error")
			continue
		}
		if err := m.Run(); err != nil {
			log.WithError(err).Error("runtime error")
			continue
		}
		printStack(m)
	}
}

func printStack(m *vm.VM) {
	stack := m.DataStack()
	if len(stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, v := range stack {
		fmt.Printf("  [%d] %s\n", i, v.String())
	}
}
