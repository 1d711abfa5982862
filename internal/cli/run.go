package cli

import (
	"fmt"
	"os"
	"path/filepath"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/pkg/bytecode"
	"github.com/kristofer/stacker/pkg/vm"
)

// compiledExt is the extension a precompiled program cache is expected to
// carry; anything else is read as source text.
const compiledExt = ".stkc"

func newRunCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a source file or precompiled program",
		Long: heredoc.Doc(`
			Run executes a .stk source file, or a .stkc precompiled program
			produced by "stacker compile", to completion.

			Diagnostics are printed to standard error with their stack trace; the
			process exits non-zero on any runtime or parse error.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(log, args[0])
		},
	}
}

func runFile(log *logrus.Logger, path string) error {
	m := vm.New()
	if filepath.Ext(path) == compiledExt {
		if err := loadCompiled(m, path); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := m.Parse(string(data)); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := m.Run(); err != nil {
		log.WithError(err).Error("runtime error")
		return err
	}
	return nil
}

func loadCompiled(m *vm.VM, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	prog, err := bytecode.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return m.LoadProgram(prog)
}
