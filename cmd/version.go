package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd prints the build version injected by the main package.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the steward version",
		Long:  `Prints the version this binary was built as.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "steward version %s\n", rootCmd.Version)
		},
	}
}
