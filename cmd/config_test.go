package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asnconform.dev/pkg/asnconform/internal/domain"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "asnconform", configBaseName)
	assert.Equal(t, "asnconform.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "parallel", runParallelFlagName)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, ".asnconform-reports", defaultReportsDir)
	assert.Equal(t, 3, defaultRunParallel)
	assert.Equal(t, "ASNCONFORM", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

// setConfig overrides a viper key for the duration of the test.
func setConfig(t *testing.T, key string, value any) {
	t.Helper()

	previous := viper.Get(key)
	viper.Set(key, value)

	t.Cleanup(func() { viper.Set(key, previous) })
}

func TestLoadToolchains_Defaults(t *testing.T) {
	toolchains, err := loadToolchains()
	require.NoError(t, err)

	assert.Len(t, toolchains, len(m.Languages))

	for _, lang := range m.Languages {
		tc, ok := toolchains[lang]
		require.True(t, ok, "missing toolchain for %s", lang)
		assert.NotEmpty(t, tc.Run)
	}
}

func TestLoadToolchains_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]any
	}{
		{
			name:  "unknown language",
			value: map[string]any{"rust": map[string]any{"run": []string{"./enc"}, "output": "stdout"}},
		},
		{
			name:  "empty run command",
			value: map[string]any{"c": map[string]any{"build": []string{"make"}, "output": "stdout"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setConfig(t, toolchainsKey, tt.value)

			_, err := loadToolchains()
			require.Error(t, err)
			assert.Contains(t, err.Error(), toolchainsKey)
		})
	}
}

func TestLoadServices(t *testing.T) {
	setConfig(t, servicesKey, []map[string]any{
		{"id": "S99", "schema": []string{"S99/s99.asn", "S99/s99.acn"}, "folder_suffix": "S99"},
	})

	services, err := loadServices()
	require.NoError(t, err)

	require.Len(t, services, 1)
	assert.Equal(t, m.ServiceID("S99"), services[0].ID)
	assert.Equal(t, "S99", services[0].FolderSuffix)
	assert.Equal(t, []m.Path{"S99/s99.asn", "S99/s99.acn"}, services[0].Schema)
}

func TestLoadServices_MissingID(t *testing.T) {
	setConfig(t, servicesKey, []map[string]any{{"schema": []string{"x.asn"}}})

	_, err := loadServices()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestLoadMatrixConfig_Defaults(t *testing.T) {
	cfg, err := loadMatrixConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.Services)
	assert.Equal(t, domain.DefaultMatrixPairs, cfg.Pairs)
	assert.Equal(t, []m.EncodingRule{m.RuleUPER, m.RuleACN}, cfg.Rules)
	assert.Equal(t, domain.DefaultMatrixSkip, cfg.Skip)
	assert.True(t, cfg.Compare)
	assert.False(t, cfg.CreateTests)
}

func TestLoadMatrixConfig_Overrides(t *testing.T) {
	setConfig(t, matrixServicesKey, []string{"S1", "S2"})
	setConfig(t, matrixPairsKey, [][]string{{"Python", "scala"}})
	setConfig(t, matrixRulesKey, []string{"acn"})
	setConfig(t, matrixCreateTestsKey, true)

	cfg, err := loadMatrixConfig()
	require.NoError(t, err)

	assert.Equal(t, []m.ServiceID{"S1", "S2"}, cfg.Services)
	assert.Equal(t, [][]m.Language{{m.LanguagePython, m.LanguageScala}}, cfg.Pairs)
	assert.Equal(t, []m.EncodingRule{m.RuleACN}, cfg.Rules)
	assert.True(t, cfg.CreateTests)
}

func TestLoadMatrixConfig_Errors(t *testing.T) {
	t.Run("unknown rule", func(t *testing.T) {
		setConfig(t, matrixRulesKey, []string{"ber"})

		_, err := loadMatrixConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), matrixRulesKey)
	})

	t.Run("unknown pair language", func(t *testing.T) {
		setConfig(t, matrixPairsKey, [][]string{{"python", "cobol"}})

		_, err := loadMatrixConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), matrixPairsKey)
	})
}

func TestLoadHarnessConfig_Defaults(t *testing.T) {
	cfg, err := loadHarnessConfig()
	require.NoError(t, err)

	assert.Equal(t, m.Path(defaultSchemasRoot), cfg.SchemaRoot)
	assert.Equal(t, m.Path(defaultWorkspaceRoot), cfg.WorkspaceRoot)
	assert.Equal(t, defaultRunParallel, cfg.Parallel)
	assert.Equal(t, defaultVectorParallel, cfg.VectorParallel)
	assert.Equal(t, domain.DefaultTimeouts, cfg.Timeouts)
	assert.Equal(t, domain.DefaultGeneratorArgv, cfg.GeneratorArgv)
	assert.Empty(t, cfg.Services)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}
