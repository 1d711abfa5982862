package cli

import (
	"fmt"
	"os"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/pkg/bytecode"
	"github.com/kristofer/stacker/pkg/compiler"
)

func newDisassembleCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "disassemble <file.stkc>",
		Aliases: []string{"disasm"},
		Short:   "Print a human-readable listing of a compiled program",
		Long: heredoc.Doc(`
			Disassemble decodes a .stkc program cache and prints its block
			structure, one line per token with its value and source span.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassembleFile(args[0])
		},
	}
}

func disassembleFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	prog, err := bytecode.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	fmt.Print(compiler.Disassemble(prog))
	return nil
}
