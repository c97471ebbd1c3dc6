// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"asnconform.dev/pkg/asnconform/internal/controller"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// MockUI is a mock of controller.UI.
type MockUI struct {
	mock.Mock
}

// NewMockUI creates a MockUI that asserts its expectations on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mu := &MockUI{}
	mu.Mock.Test(t)
	t.Cleanup(func() { mu.AssertExpectations(t) })

	return mu
}

// Start provides a mock function.
func (mu *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	return mu.Called(ctx, options).Error(0)
}

// Close provides a mock function.
func (mu *MockUI) Close(ctx context.Context) {
	mu.Called(ctx)
}

// Wait provides a mock function.
func (mu *MockUI) Wait(ctx context.Context) {
	mu.Called(ctx)
}

// DisplayRunInfo provides a mock function.
func (mu *MockUI) DisplayRunInfo(ctx context.Context, info controller.RunInfo) {
	mu.Called(ctx, info)
}

// DisplayStageStarted provides a mock function.
func (mu *MockUI) DisplayStageStarted(ctx context.Context, lang m.Language, stage controller.Stage) {
	mu.Called(ctx, lang, stage)
}

// DisplayStageCompleted provides a mock function.
func (mu *MockUI) DisplayStageCompleted(ctx context.Context, lang m.Language, stage controller.Stage, failure *m.Failure) {
	mu.Called(ctx, lang, stage, failure)
}

// DisplayVerdict provides a mock function.
func (mu *MockUI) DisplayVerdict(ctx context.Context, verdict m.ComparisonVerdict) {
	mu.Called(ctx, verdict)
}

// DisplayReport provides a mock function.
func (mu *MockUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	return mu.Called(ctx, report).Error(0)
}

// DisplayMatrixSummary provides a mock function.
func (mu *MockUI) DisplayMatrixSummary(ctx context.Context, reports []m.RunReport, passRate float64) error {
	return mu.Called(ctx, reports, passRate).Error(0)
}

// DisplayServices provides a mock function.
func (mu *MockUI) DisplayServices(ctx context.Context, services []m.ServiceDefinition) error {
	return mu.Called(ctx, services).Error(0)
}

var _ controller.UI = (*MockUI)(nil)
