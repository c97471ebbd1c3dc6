package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asnconform.dev/pkg/asnconform/internal/domain"
	domainmocks "asnconform.dev/pkg/asnconform/internal/domain/mocks"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestRunCmd_Defaults(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Service == m.ServiceID("S1") &&
			args.FolderSuffix == "" &&
			args.Reports == m.Path(".asnconform-reports") &&
			assert.ObjectsAreEqual([]m.Language{m.LanguagePython, m.LanguageC}, args.Variation.Languages) &&
			args.Variation.Rule == m.RuleUPER &&
			!args.Variation.CreateTests &&
			!args.Variation.CompareEncodings
	})).Return(m.RunReport{}, nil)

	_, err := executeRootCmd(t, mockWorkflow, newRunCmd(), "run", "S1")
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_VariationFlags(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Service == m.ServiceID("S5") &&
			args.FolderSuffix == "S5_acn" &&
			assert.ObjectsAreEqual([]m.Language{m.LanguageC, m.LanguageScala}, args.Variation.Languages) &&
			args.Variation.Rule == m.RuleACN &&
			args.Variation.CreateTests &&
			args.Variation.CompareEncodings
	})).Return(m.RunReport{}, nil)

	_, err := executeRootCmd(t, mockWorkflow, newRunCmd(),
		"run", "S5", "--lang", "scala", "-l", "c", "--rule", "ACN", "--tests", "--compare", "--suffix", "S5_acn")
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Reports == m.Path("./reports-dir")
	})).Return(m.RunReport{}, nil)

	_, err := executeRootCmd(t, mockWorkflow, newRunCmd(), "--output", "./reports-dir", "run", "S2")
	require.NoError(t, err)
}

func TestRunCmd_FailedRunReturnsError(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(m.RunReport{}, domain.ErrRunFailed)

	_, err := executeRootCmd(t, mockWorkflow, newRunCmd(), "run", "S1", "--compare")
	require.ErrorIs(t, err, domain.ErrRunFailed)
}

func TestRunCmd_InvalidVariationSkipsWorkflow(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown language", []string{"run", "S1", "--lang", "cobol"}},
		{"unknown rule", []string{"run", "S1", "--rule", "ber"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow := domainmocks.NewMockWorkflow(t)

			_, err := executeRootCmd(t, mockWorkflow, newRunCmd(), tt.args...)
			require.ErrorIs(t, err, domain.ErrInvalidVariation)

			mockWorkflow.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestRunCmd_RequiresService(t *testing.T) {
	_, err := executeRootCmd(t, domainmocks.NewMockWorkflow(t), newRunCmd(), "run")
	require.Error(t, err)
}

func TestNewRunCmd(t *testing.T) {
	cmd := newRunCmd()

	assert.Equal(t, "run SERVICE", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, runLongDescription, cmd.Long)

	for _, name := range []string{"parallel", "vector-parallel", "strict", "lang", "rule", "suffix", "tests", "compare"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestParseVariation(t *testing.T) {
	tests := []struct {
		name    string
		langs   []string
		rule    string
		tests   bool
		compare bool
		want    m.Variation
		wantErr bool
	}{
		{
			name:  "python and c over uper",
			langs: []string{"c", "python"},
			rule:  "uper",
			want:  m.Variation{Languages: []m.Language{m.LanguagePython, m.LanguageC}, Rule: m.RuleUPER},
		},
		{
			name:    "all languages with tests and comparison",
			langs:   []string{"Scala", "C", "Python"},
			rule:    "acn",
			tests:   true,
			compare: true,
			want: m.Variation{
				Languages:        []m.Language{m.LanguagePython, m.LanguageC, m.LanguageScala},
				Rule:             m.RuleACN,
				CreateTests:      true,
				CompareEncodings: true,
			},
		},
		{name: "no language", rule: "uper", wantErr: true},
		{name: "unknown language", langs: []string{"rust"}, rule: "uper", wantErr: true},
		{name: "empty rule", langs: []string{"c"}, rule: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVariation(tt.langs, tt.rule, tt.tests, tt.compare)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
