package cmd

import (
	"github.com/spf13/cobra"

	"asnconform.dev/pkg/asnconform/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View previously saved run reports",
		Long:  "View previously saved run reports from a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath()})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
