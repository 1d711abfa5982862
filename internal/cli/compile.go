package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kristofer/stacker/pkg/bytecode"
	"github.com/kristofer/stacker/pkg/compiler"
)

func newCompileCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <input> [output]",
		Short: "Precompile a source file to a .stkc program cache",
		Long: heredoc.Doc(`
			Compile parses a .stk source file and writes the parsed program to a
			.stkc file, so "stacker run" can load it later without re-tokenizing
			or re-parsing. It is not an optimizer: the decoded program steps
			through exactly the same spans as the original source.
		`),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return compileFile(log, input, output)
		},
	}
}

func compileFile(log *logrus.Logger, input, output string) error {
	if output == "" {
		output = defaultCompiledName(input)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	prog, err := compiler.Compile(string(data))
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer out.Close()

	if err := bytecode.Encode(prog, out); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	log.Infof("compiled %s -> %s", input, output)
	return nil
}

func defaultCompiledName(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + compiledExt
}
