package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"asnconform.dev/pkg/asnconform/internal/domain"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "asnconform"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName         = "output"
	workspaceFlagName      = "workspace"
	keepFlagName           = "keep"
	verboseFlagName        = "verbose"
	runParallelFlagName    = "parallel"
	vectorParallelFlagName = "vector-parallel"
	strictFlagName         = "strict"

	reportsDirKey        = "reports.dir"
	schemasRootKey       = "schemas.root"
	vectorsDirKey        = "vectors.dir"
	workspaceRootKey     = "workspace.root"
	workspaceKeepKey     = "workspace.keep"
	runParallelConfigKey = "run.parallel"
	vectorParallelKey    = "run.vector_parallel"
	runStrictKey         = "run.strict"
	runLanguagesKey      = "run.languages"
	runRuleKey           = "run.rule"
	generateTimeoutKey   = "timeouts.generate"
	buildTimeoutKey      = "timeouts.build"
	runTimeoutKey        = "timeouts.run"
	generatorArgvKey     = "generator.argv"
	toolchainsKey        = "toolchains"
	servicesKey          = "services"
	spillDirKey          = "spill.dir"

	matrixServicesKey    = "matrix.services"
	matrixPairsKey       = "matrix.pairs"
	matrixRulesKey       = "matrix.rules"
	matrixSkipKey        = "matrix.skip"
	matrixCreateTestsKey = "matrix.create_tests"
	matrixCompareKey     = "matrix.compare"
	matrixParallelKey    = "matrix.parallel"

	defaultReportsDir     = ".asnconform-reports"
	defaultSchemasRoot    = "schemas"
	defaultVectorsDir     = "vectors"
	defaultWorkspaceRoot  = ".asnconform-work"
	defaultWorkspaceKeep  = false
	defaultRunParallel    = 3
	defaultVectorParallel = 4
	defaultRunStrict      = false
	defaultMatrixParallel = 1

	envPrefix = "ASNCONFORM"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".asnconform.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(reportsDirKey, defaultReportsDir)
	viper.SetDefault(schemasRootKey, defaultSchemasRoot)
	viper.SetDefault(vectorsDirKey, defaultVectorsDir)
	viper.SetDefault(workspaceRootKey, defaultWorkspaceRoot)
	viper.SetDefault(workspaceKeepKey, defaultWorkspaceKeep)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(vectorParallelKey, defaultVectorParallel)
	viper.SetDefault(runStrictKey, defaultRunStrict)
	viper.SetDefault(runLanguagesKey, []string{string(m.LanguagePython), string(m.LanguageC)})
	viper.SetDefault(runRuleKey, string(m.RuleUPER))
	viper.SetDefault(generateTimeoutKey, domain.DefaultTimeouts.Generate.String())
	viper.SetDefault(buildTimeoutKey, domain.DefaultTimeouts.Build.String())
	viper.SetDefault(runTimeoutKey, domain.DefaultTimeouts.Run.String())
	viper.SetDefault(generatorArgvKey, domain.DefaultGeneratorArgv)
	viper.SetDefault(toolchainsKey, toolchainDefaults())
	viper.SetDefault(servicesKey, []map[string]any{})
	viper.SetDefault(spillDirKey, "")

	viper.SetDefault(matrixServicesKey, []string{})
	viper.SetDefault(matrixPairsKey, pairNames(domain.DefaultMatrixPairs))
	viper.SetDefault(matrixRulesKey, []string{string(m.RuleUPER), string(m.RuleACN)})
	viper.SetDefault(matrixSkipKey, domain.DefaultMatrixSkip)
	viper.SetDefault(matrixCreateTestsKey, false)
	viper.SetDefault(matrixCompareKey, true)
	viper.SetDefault(matrixParallelKey, defaultMatrixParallel)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// toolchainDefaults renders DefaultToolchains as plain maps so `init` writes
// them the way users edit them.
func toolchainDefaults() map[string]any {
	defaults := map[string]any{}

	for lang, tc := range domain.DefaultToolchains() {
		defaults[string(lang)] = map[string]any{
			"build":  tc.Build,
			"run":    tc.Run,
			"output": string(tc.Output),
		}
	}

	return defaults
}

func pairNames(pairs [][]m.Language) [][]string {
	names := make([][]string, 0, len(pairs))

	for _, pair := range pairs {
		langs := make([]string, 0, len(pair))
		for _, lang := range pair {
			langs = append(langs, string(lang))
		}

		names = append(names, langs)
	}

	return names
}

// serviceConfig is one entry of the services list. It adds a service or
// replaces the schema of a built-in one.
type serviceConfig struct {
	ID           string   `mapstructure:"id"`
	Schema       []string `mapstructure:"schema"`
	FolderSuffix string   `mapstructure:"folder_suffix"`
}

// harnessConfig is everything needed to wire a Harness.
type harnessConfig struct {
	SchemaRoot     m.Path
	VectorsDir     m.Path
	WorkspaceRoot  m.Path
	KeepWorkspace  bool
	Parallel       int
	VectorParallel int
	Strict         bool
	Timeouts       domain.Timeouts
	GeneratorArgv  []string
	Toolchains     map[m.Language]domain.ToolchainConfig
	Services       []m.ServiceDefinition
}

func loadHarnessConfig() (harnessConfig, error) {
	cfg := harnessConfig{
		SchemaRoot:     m.Path(viper.GetString(schemasRootKey)),
		VectorsDir:     m.Path(viper.GetString(vectorsDirKey)),
		WorkspaceRoot:  m.Path(viper.GetString(workspaceRootKey)),
		KeepWorkspace:  viper.GetBool(workspaceKeepKey),
		Parallel:       viper.GetInt(runParallelConfigKey),
		VectorParallel: viper.GetInt(vectorParallelKey),
		Strict:         viper.GetBool(runStrictKey),
		Timeouts: domain.Timeouts{
			Generate: viper.GetDuration(generateTimeoutKey),
			Build:    viper.GetDuration(buildTimeoutKey),
			Run:      viper.GetDuration(runTimeoutKey),
		},
		GeneratorArgv: viper.GetStringSlice(generatorArgvKey),
	}

	toolchains, err := loadToolchains()
	if err != nil {
		return cfg, err
	}

	cfg.Toolchains = toolchains

	services, err := loadServices()
	if err != nil {
		return cfg, err
	}

	cfg.Services = services

	return cfg, nil
}

func loadToolchains() (map[m.Language]domain.ToolchainConfig, error) {
	var raw map[string]domain.ToolchainConfig
	if err := viper.UnmarshalKey(toolchainsKey, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", toolchainsKey, err)
	}

	toolchains := make(map[m.Language]domain.ToolchainConfig, len(raw))

	for name, tc := range raw {
		lang, err := m.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", toolchainsKey, err)
		}

		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", toolchainsKey, lang, err)
		}

		toolchains[lang] = tc
	}

	return toolchains, nil
}

func loadServices() ([]m.ServiceDefinition, error) {
	var raw []serviceConfig
	if err := viper.UnmarshalKey(servicesKey, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", servicesKey, err)
	}

	services := make([]m.ServiceDefinition, 0, len(raw))

	for i, svc := range raw {
		if strings.TrimSpace(svc.ID) == "" {
			return nil, fmt.Errorf("%s[%d]: id is required", servicesKey, i)
		}

		def := m.ServiceDefinition{ID: m.ServiceID(svc.ID), FolderSuffix: svc.FolderSuffix}
		for _, path := range svc.Schema {
			def.Schema = append(def.Schema, m.Path(path))
		}

		services = append(services, def)
	}

	return services, nil
}

func loadMatrixConfig() (domain.MatrixConfig, error) {
	cfg := domain.MatrixConfig{
		Skip:        viper.GetStringSlice(matrixSkipKey),
		CreateTests: viper.GetBool(matrixCreateTestsKey),
		Compare:     viper.GetBool(matrixCompareKey),
	}

	for _, id := range viper.GetStringSlice(matrixServicesKey) {
		cfg.Services = append(cfg.Services, m.ServiceID(id))
	}

	for _, name := range viper.GetStringSlice(matrixRulesKey) {
		rule, err := m.ParseEncodingRule(name)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", matrixRulesKey, err)
		}

		cfg.Rules = append(cfg.Rules, rule)
	}

	var pairs [][]string
	if err := viper.UnmarshalKey(matrixPairsKey, &pairs); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", matrixPairsKey, err)
	}

	for _, pair := range pairs {
		langs, err := parseLanguages(pair)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", matrixPairsKey, err)
		}

		cfg.Pairs = append(cfg.Pairs, langs)
	}

	return cfg, nil
}

func parseLanguages(names []string) ([]m.Language, error) {
	langs := make([]m.Language, 0, len(names))

	for _, name := range names {
		lang, err := m.ParseLanguage(name)
		if err != nil {
			return nil, err
		}

		langs = append(langs, lang)
	}

	return langs, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
