package controller

import (
	"context"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// NopUI discards every event. It serves library callers of the harness.
type NopUI struct{}

// Start implements UI.
func (NopUI) Start(context.Context, ...StartOption) error { return nil }

// Close implements UI.
func (NopUI) Close(context.Context) {}

// Wait implements UI.
func (NopUI) Wait(context.Context) {}

// DisplayRunInfo implements UI.
func (NopUI) DisplayRunInfo(context.Context, RunInfo) {}

// DisplayStageStarted implements UI.
func (NopUI) DisplayStageStarted(context.Context, m.Language, Stage) {}

// DisplayStageCompleted implements UI.
func (NopUI) DisplayStageCompleted(context.Context, m.Language, Stage, *m.Failure) {}

// DisplayVerdict implements UI.
func (NopUI) DisplayVerdict(context.Context, m.ComparisonVerdict) {}

// DisplayReport implements UI.
func (NopUI) DisplayReport(context.Context, m.RunReport) error { return nil }

// DisplayMatrixSummary implements UI.
func (NopUI) DisplayMatrixSummary(context.Context, []m.RunReport, float64) error { return nil }

// DisplayServices implements UI.
func (NopUI) DisplayServices(context.Context, []m.ServiceDefinition) error { return nil }

var _ UI = NopUI{}
