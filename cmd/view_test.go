package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asnconform.dev/pkg/asnconform/internal/domain"
	domainmocks "asnconform.dev/pkg/asnconform/internal/domain/mocks"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path(".asnconform-reports")
	})).Return(nil)

	_, err := executeRootCmd(t, mockWorkflow, newViewCmd(), "view")
	require.NoError(t, err)
}

func TestViewCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path("./reports-dir")
	})).Return(nil)

	_, err := executeRootCmd(t, mockWorkflow, newViewCmd(), "view", "--output", "./reports-dir")
	require.NoError(t, err)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	_, err := executeRootCmd(t, domainmocks.NewMockWorkflow(t), newViewCmd(), "view", "./custom-reports")
	require.Error(t, err)
}
