package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newVersionCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stacker version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stacker version %s\n", version)
		},
	}
}
