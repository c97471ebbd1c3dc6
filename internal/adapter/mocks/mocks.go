// Package mocks provides testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// MockProcessRunner is a mock of adapter.ProcessRunner.
type MockProcessRunner struct {
	mock.Mock
}

// NewMockProcessRunner creates a MockProcessRunner that asserts its expectations on cleanup.
func NewMockProcessRunner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProcessRunner {
	mr := &MockProcessRunner{}
	mr.Mock.Test(t)
	t.Cleanup(func() { mr.AssertExpectations(t) })

	return mr
}

// Run provides a mock function.
func (mr *MockProcessRunner) Run(ctx context.Context, spec adapter.ProcessSpec) (adapter.ProcessResult, error) {
	args := mr.Called(ctx, spec)

	return args.Get(0).(adapter.ProcessResult), args.Error(1)
}

// MockReportStore is a mock of adapter.ReportStore.
type MockReportStore struct {
	mock.Mock
}

// SaveReport provides a mock function.
func (ms *MockReportStore) SaveReport(ctx context.Context, dir m.Path, report m.RunReport) (m.Path, error) {
	args := ms.Called(ctx, dir, report)

	return args.Get(0).(m.Path), args.Error(1)
}

// LoadReports provides a mock function.
func (ms *MockReportStore) LoadReports(ctx context.Context, dir m.Path) ([]m.RunReport, error) {
	args := ms.Called(ctx, dir)

	reports, _ := args.Get(0).([]m.RunReport)

	return reports, args.Error(1)
}

// MockVectorFixtureAdapter is a mock of adapter.VectorFixtureAdapter.
type MockVectorFixtureAdapter struct {
	mock.Mock
}

// LoadFixture provides a mock function.
func (ma *MockVectorFixtureAdapter) LoadFixture(ctx context.Context, path m.Path) (adapter.VectorFixture, error) {
	args := ma.Called(ctx, path)

	return args.Get(0).(adapter.VectorFixture), args.Error(1)
}

var (
	_ adapter.ProcessRunner        = (*MockProcessRunner)(nil)
	_ adapter.ReportStore          = (*MockReportStore)(nil)
	_ adapter.VectorFixtureAdapter = (*MockVectorFixtureAdapter)(nil)
)
