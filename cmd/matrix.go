package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"asnconform.dev/pkg/asnconform/internal/domain"
)

var matrixParallelFlag int
var matrixShardFlag string

// matrixCmd represents the matrix command.
var matrixCmd = newMatrixCmd()

func newMatrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Run the configured service matrix",
		Long:  matrixLongDescription,
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadMatrixConfig()
			if err != nil {
				return err
			}

			shardIndex, totalShards := parseShardFlag(matrixShardFlag)

			_, err = workflow.Matrix(cmd.Context(), domain.MatrixArgs{
				Config:          cfg,
				Reports:         reportsPath(),
				SpillDir:        viper.GetString(spillDirKey),
				Threads:         viper.GetInt(matrixParallelKey),
				ShardIndex:      shardIndex,
				TotalShardCount: totalShards,
			})

			return err
		},
	}

	cmd.Flags().IntVarP(&matrixParallelFlag, "threads", "t", viper.GetInt(matrixParallelKey), "number of matrix cases run in parallel")
	bindFlagToConfig(cmd.Flags().Lookup("threads"), matrixParallelKey)
	cmd.Flags().StringVarP(&matrixShardFlag, "shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	return cmd
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}
