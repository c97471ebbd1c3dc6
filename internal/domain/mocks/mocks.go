// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"asnconform.dev/pkg/asnconform/internal/domain"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow that asserts its expectations on cleanup.
func NewMockWorkflow(t testingT) *MockWorkflow {
	mw := &MockWorkflow{}
	mw.Mock.Test(t)
	t.Cleanup(func() { mw.AssertExpectations(t) })

	return mw
}

// Run provides a mock function.
func (mw *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) (m.RunReport, error) {
	ret := mw.Called(ctx, args)

	report, _ := ret.Get(0).(m.RunReport)

	return report, ret.Error(1)
}

// Matrix provides a mock function.
func (mw *MockWorkflow) Matrix(ctx context.Context, args domain.MatrixArgs) (float64, error) {
	ret := mw.Called(ctx, args)

	return ret.Get(0).(float64), ret.Error(1)
}

// View provides a mock function.
func (mw *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return mw.Called(ctx, args).Error(0)
}

// List provides a mock function.
func (mw *MockWorkflow) List(ctx context.Context) error {
	return mw.Called(ctx).Error(0)
}

// Merge provides a mock function.
func (mw *MockWorkflow) Merge(ctx context.Context, args domain.MergeArgs) error {
	return mw.Called(ctx, args).Error(0)
}

// MockHarness is a mock of domain.Harness.
type MockHarness struct {
	mock.Mock
}

// NewMockHarness creates a MockHarness that asserts its expectations on cleanup.
func NewMockHarness(t testingT) *MockHarness {
	mh := &MockHarness{}
	mh.Mock.Test(t)
	t.Cleanup(func() { mh.AssertExpectations(t) })

	return mh
}

// RunTestService provides a mock function.
func (mh *MockHarness) RunTestService(ctx context.Context, id m.ServiceID, folderSuffix string, variation m.Variation) (m.RunReport, error) {
	ret := mh.Called(ctx, id, folderSuffix, variation)

	report, _ := ret.Get(0).(m.RunReport)

	return report, ret.Error(1)
}

var (
	_ domain.Workflow = (*MockWorkflow)(nil)
	_ domain.Harness  = (*MockHarness)(nil)
)
