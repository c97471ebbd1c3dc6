package domain

import (
	"fmt"
	"strings"
	"time"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// OutputMode tells the driver how a backend hands back the encoded bytes.
type OutputMode string

// Supported output modes.
const (
	OutputStdout OutputMode = "stdout"
	OutputHex    OutputMode = "hex"
	OutputFile   OutputMode = "file"
)

// Argv placeholders.
const (
	placeholderLang   = "{lang}"
	placeholderRule   = "{rule}"
	placeholderTests  = "{tests}"
	placeholderOut    = "{out}"
	placeholderSchema = "{schema}"
	placeholderSrc    = "{src}"
	placeholderPDU    = "{pdu}"
	placeholderVector = "{vector}"
	placeholderOutput = "{output}"
)

// ToolchainConfig describes how to build and drive the generated code of one language.
type ToolchainConfig struct {
	Build  []string   `mapstructure:"build" yaml:"build"`
	Run    []string   `mapstructure:"run" yaml:"run"`
	Output OutputMode `mapstructure:"output" yaml:"output"`
}

// Validate checks that the toolchain can drive a backend.
func (c ToolchainConfig) Validate() error {
	if len(c.Run) == 0 {
		return fmt.Errorf("%w: run command is empty", ErrToolchain)
	}

	switch c.Output {
	case OutputStdout, OutputHex, OutputFile:
	default:
		return fmt.Errorf("%w: unknown output mode %q", ErrToolchain, c.Output)
	}

	return nil
}

// Timeouts bound each subprocess stage.
type Timeouts struct {
	Generate time.Duration
	Build    time.Duration
	Run      time.Duration
}

// DefaultTimeouts are used for stages without a configured timeout.
var DefaultTimeouts = Timeouts{
	Generate: 2 * time.Minute,
	Build:    5 * time.Minute,
	Run:      30 * time.Second,
}

// DefaultGeneratorArgv invokes asn1scc with one backend and one encoding rule.
var DefaultGeneratorArgv = []string{
	"asn1scc", placeholderLang, placeholderRule, placeholderTests,
	"-o", placeholderOut, placeholderSchema,
}

// DefaultToolchains returns the built-in toolchains for every backend.
func DefaultToolchains() map[m.Language]ToolchainConfig {
	return map[m.Language]ToolchainConfig{
		m.LanguageC: {
			Build:  []string{"make", "-C", placeholderSrc},
			Run:    []string{"{src}/encoder", placeholderPDU, placeholderVector, placeholderOutput},
			Output: OutputFile,
		},
		m.LanguagePython: {
			Build:  []string{"python3", "-m", "compileall", "-q", placeholderSrc},
			Run:    []string{"python3", "{src}/encoder.py", placeholderPDU, placeholderVector},
			Output: OutputHex,
		},
		m.LanguageScala: {
			Build:  []string{"sbt", "-batch", "compile"},
			Run:    []string{"sbt", "-batch", "run {pdu} {vector} {output}"},
			Output: OutputFile,
		},
	}
}

var generatorLanguageFlags = map[m.Language]string{
	m.LanguageC:      "-c",
	m.LanguagePython: "-Python",
	m.LanguageScala:  "-Scala",
}

var generatorRuleFlags = map[m.EncodingRule]string{
	m.RuleUPER: "-uPER",
	m.RuleACN:  "-ACN",
}

// expandArgv substitutes placeholders in template. An argument that is exactly a
// key of lists is replaced by every element of that list. Arguments that expand
// to the empty string are dropped.
func expandArgv(template []string, values map[string]string, lists map[string][]string) []string {
	pairs := make([]string, 0, 2*len(values))
	for key, value := range values {
		pairs = append(pairs, key, value)
	}

	replacer := strings.NewReplacer(pairs...)

	argv := make([]string, 0, len(template))

	for _, arg := range template {
		if list, ok := lists[arg]; ok {
			argv = append(argv, list...)
			continue
		}

		expanded := replacer.Replace(arg)
		if expanded == "" {
			continue
		}

		argv = append(argv, expanded)
	}

	return argv
}
