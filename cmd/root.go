// Package cmd provides the root command and CLI setup for asnconform.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	"asnconform.dev/pkg/asnconform/internal/controller"
	"asnconform.dev/pkg/asnconform/internal/domain"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// workflow is built on first use from the resolved configuration.
var workflow domain.Workflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

var workspaceRootFlag string
var keepWorkspaceFlag bool
var verboseFlag bool

const rootLongDescription = `asnconform checks that the encoders asn1scc generates for C, Python and Scala
agree byte for byte on ACN and uPER encodings of the same test vectors.

A run generates, builds, and drives one backend per requested language for a
service schema, then compares the encodings vector by vector.`

const runLongDescription = `Run one service under one variation.

SERVICE is a registered service identifier such as S1 or PRIMITIVES
(see "asnconform list"). The command exits non-zero when the run fails.`

const matrixLongDescription = `Run every (service, language pair, rule) case of the configured matrix.

Cases are read from the matrix section of asnconform.yaml. Combinations listed
in matrix.skip are known to be broken and are not run.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "asnconform",
		Short:        "ASN.1 encoding conformance harness",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			if workflow != nil {
				return nil
			}

			wf, err := buildWorkflow(cmd)
			if err != nil {
				return err
			}

			workflow = wf

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(reportsDirKey),
			"output directory for run reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), reportsDirKey)

	cmd.PersistentFlags().StringVar(&workspaceRootFlag, workspaceFlagName, viper.GetString(workspaceRootKey), "root directory of per-run workspaces")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(workspaceFlagName), workspaceRootKey)

	cmd.PersistentFlags().BoolVar(&keepWorkspaceFlag, keepFlagName, viper.GetBool(workspaceKeepKey), "keep generated code and outputs after the run")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(keepFlagName), workspaceKeepKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// buildWorkflow wires adapters, harness, and UI from the current configuration.
func buildWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	cfg, err := loadHarnessConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()))
	fsAdapter := adapter.NewLocalWorkspaceFSAdapter()
	runner := adapter.NewLocalProcessRunner()
	resolver := domain.NewSchemaResolver(cfg.SchemaRoot, cfg.Services...)

	harness := domain.NewHarness(domain.HarnessDeps{
		FS:        fsAdapter,
		Resolver:  resolver,
		Vectors:   domain.NewVectorSupplier(adapter.NewVectorFixtureAdapter(), cfg.VectorsDir),
		Generator: domain.NewGenerator(fsAdapter, runner, cfg.GeneratorArgv, cfg.Timeouts.Generate),
		Driver: domain.NewDriver(fsAdapter, runner, domain.DriverOptions{
			Toolchains:     cfg.Toolchains,
			BuildTimeout:   cfg.Timeouts.Build,
			RunTimeout:     cfg.Timeouts.Run,
			VectorParallel: cfg.VectorParallel,
		}),
		Reporter: domain.NewReporter(cfg.Strict),
		UI:       ui,
	}, domain.HarnessOptions{
		WorkspaceRoot: cfg.WorkspaceRoot,
		KeepWorkspace: cfg.KeepWorkspace,
		Parallel:      cfg.Parallel,
	})

	return domain.NewWorkflow(
		fsAdapter,
		adapter.NewReportStore(),
		ui,
		harness,
		resolver,
		domain.NewMatrixStreamer(),
	), nil
}

func reportsPath() m.Path {
	return m.Path(viper.GetString(reportsDirKey))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
