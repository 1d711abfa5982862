// Package cli wires the stacker command-line surface: run, repl, compile,
// disassemble, debug, and version, plus the shared logging setup they log
// through.
package cli

import (
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// NewRootCommand builds the stacker root command with every subcommand
// registered, logging through log.
func NewRootCommand(log *logrus.Logger) *cobra.Command {
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: "15:04:05",
		LogFormat:       "[%lvl%] %msg%\n",
	})

	var verbose bool

	root := &cobra.Command{
		Use:     "stacker [file]",
		Short:   "A stack-oriented interpreter with a pausable evaluator",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
		// With no file argument, behave like "stacker repl"; with one,
		// behave like "stacker run <file>" (spec.md's CLI surface).
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runRepl(log)
			}
			return runFile(log, args[0])
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(log),
		newReplCommand(log),
		newCompileCommand(log),
		newDisassembleCommand(log),
		newVersionCommand(log),
		newDebugCommand(log),
	)
	return root
}
