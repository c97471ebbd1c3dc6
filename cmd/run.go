package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"asnconform.dev/pkg/asnconform/internal/domain"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

var runParallelFlag int
var runVectorParallelFlag int
var runStrictFlag bool
var runSuffixFlag string
var runLangFlags []string
var runRuleFlag string
var runTestsFlag bool
var runCompareFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SERVICE",
		Short: "Run one service under one variation",
		Long:  runLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variation, err := parseVariation(viper.GetStringSlice(runLanguagesKey), viper.GetString(runRuleKey), runTestsFlag, runCompareFlag)
			if err != nil {
				return err
			}

			_, err = workflow.Run(cmd.Context(), domain.RunArgs{
				Service:      m.ServiceID(args[0]),
				FolderSuffix: runSuffixFlag,
				Variation:    variation,
				Reports:      reportsPath(),
			})

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&runLangFlags, "lang", "l", viper.GetStringSlice(runLanguagesKey), "backend language to generate: python, c, scala (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup("lang"), runLanguagesKey)

	cmd.Flags().StringVarP(&runRuleFlag, "rule", "r", viper.GetString(runRuleKey), "encoding rule: uper or acn")
	bindFlagToConfig(cmd.Flags().Lookup("rule"), runRuleKey)

	cmd.Flags().StringVar(&runSuffixFlag, "suffix", "", "workspace folder suffix (default: the service folder)")
	cmd.Flags().BoolVar(&runTestsFlag, "tests", false, "ask the generator for its test-case scaffolding")
	cmd.Flags().BoolVar(&runCompareFlag, "compare", false, "compare encodings across backends")

	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of backends built and run in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().IntVar(&runVectorParallelFlag, vectorParallelFlagName, viper.GetInt(vectorParallelKey), "number of vectors encoded in parallel per backend")
	bindFlagToConfig(cmd.Flags().Lookup(vectorParallelFlagName), vectorParallelKey)

	cmd.Flags().BoolVar(&runStrictFlag, strictFlagName, viper.GetBool(runStrictKey), "fail compared runs on any run failure")
	bindFlagToConfig(cmd.Flags().Lookup(strictFlagName), runStrictKey)
}

// parseVariation converts command-line selections into a validated Variation.
func parseVariation(langs []string, rule string, createTests, compare bool) (m.Variation, error) {
	var flags m.VariationFlag

	for _, name := range langs {
		lang, err := m.ParseLanguage(name)
		if err != nil {
			return m.Variation{}, fmt.Errorf("%w: %w", domain.ErrInvalidVariation, err)
		}

		switch lang {
		case m.LanguagePython:
			flags |= m.CreatePython
		case m.LanguageC:
			flags |= m.CreateC
		case m.LanguageScala:
			flags |= m.CreateScala
		}
	}

	encodingRule, err := m.ParseEncodingRule(rule)
	if err != nil {
		return m.Variation{}, fmt.Errorf("%w: %w", domain.ErrInvalidVariation, err)
	}

	switch encodingRule {
	case m.RuleUPER:
		flags |= m.UPER
	case m.RuleACN:
		flags |= m.ACN
	}

	if createTests {
		flags |= m.CreateTests
	}

	if compare {
		flags |= m.CompareEncodings
	}

	return m.NewVariation(flags)
}

// parseShardFlag parses INDEX/TOTAL. Invalid input disables sharding.
func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
