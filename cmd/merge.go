package cmd

import (
	"github.com/spf13/cobra"

	"asnconform.dev/pkg/asnconform/internal/domain"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge sharded matrix reports into a single directory",
		Long:  "Merge reports from shard_* subdirectories written by sharded matrix runs into the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Merge(cmd.Context(), domain.MergeArgs{Reports: reportsPath()})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
