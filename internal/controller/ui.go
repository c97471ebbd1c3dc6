// Package controller provides output adapters for displaying conformance runs.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// Stage is one step of a backend pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageGenerate Stage = "generate"
	StageBuild    Stage = "build"
	StageExecute  Stage = "execute"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeMatrix
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode sets the UI to single run mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithMatrixMode sets the UI to matrix mode.
func WithMatrixMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeMatrix
	}
}

// WithViewMode sets the UI to report viewing mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	cfg := StartConfig{mode: ModeRun}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// RunInfo describes a run that is about to start.
type RunInfo struct {
	Service      m.ServiceID
	FolderSuffix string
	Rule         m.EncodingRule
	Languages    []m.Language
	Vectors      int
	Compare      bool
}

// UI defines how progress and reports are presented.
// Implementations can use different output methods (simple text, TUI, etc).
//
//nolint:interfacebloat // Progress events and reports share one sink.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayStageStarted(ctx context.Context, lang m.Language, stage Stage)
	DisplayStageCompleted(ctx context.Context, lang m.Language, stage Stage, failure *m.Failure)
	DisplayVerdict(ctx context.Context, verdict m.ComparisonVerdict)
	DisplayReport(ctx context.Context, report m.RunReport) error
	DisplayMatrixSummary(ctx context.Context, reports []m.RunReport, passRate float64) error
	DisplayServices(ctx context.Context, services []m.ServiceDefinition) error
}

// NewUI returns the interactive TUI when useTTY is set and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
