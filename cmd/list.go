package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered services",
		Long:  "List the built-in and configured services with their folders and schema paths.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.List(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
