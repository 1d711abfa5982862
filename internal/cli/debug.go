package cli

import (
	"fmt"
	"os"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/pkg/vm"
)

func newDebugCommand(log *logrus.Logger) *cobra.Command {
	var breakAt []int

	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Run a source file under the interactive stepper",
		Long: heredoc.Doc(`
			Debug parses a source file and drives it one token at a time,
			pausing at any --break offset and accepting debugger commands
			(step, continue, stack, locals, execstack, break, delete, quit) on
			standard input.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return debugFile(log, args[0], breakAt)
		},
	}
	cmd.Flags().IntSliceVar(&breakAt, "break", nil, "span-start offset(s) to break at")
	return cmd
}

func debugFile(log *logrus.Logger, path string, breakAt []int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	m := vm.New()
	if err := m.Parse(string(data)); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	d := vm.NewDebugger(m, log)
	for _, off := range breakAt {
		d.AddBreakpoint(off)
	}
	return d.Run(os.Stdin)
}
