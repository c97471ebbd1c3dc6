package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Language identifies a backend the generator can emit.
type Language string

// Supported backend languages.
const (
	LanguagePython Language = "python"
	LanguageC      Language = "c"
	LanguageScala  Language = "scala"
)

// Languages lists every supported backend in canonical order.
var Languages = []Language{LanguagePython, LanguageC, LanguageScala}

// ParseLanguage converts a user supplied name to a Language.
func ParseLanguage(value string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Languages {
		if lang == known {
			return lang, nil
		}
	}

	return "", fmt.Errorf("unknown language %q", value)
}

// EncodingRule selects the wire format under test.
type EncodingRule string

// Supported encoding rules.
const (
	RuleACN  EncodingRule = "acn"
	RuleUPER EncodingRule = "uper"
)

// ParseEncodingRule converts a user supplied name to an EncodingRule.
func ParseEncodingRule(value string) (EncodingRule, error) {
	switch EncodingRule(strings.ToLower(strings.TrimSpace(value))) {
	case RuleACN:
		return RuleACN, nil
	case RuleUPER:
		return RuleUPER, nil
	}

	return "", fmt.Errorf("unknown encoding rule %q", value)
}

// VariationFlag is one independent option of a run. Flags are combined with |.
type VariationFlag uint16

// Available variation flags.
const (
	CreatePython VariationFlag = 1 << iota
	CreateC
	CreateScala
	ACN
	UPER
	CreateTests
	CompareEncodings
)

var languageFlags = map[VariationFlag]Language{
	CreatePython: LanguagePython,
	CreateC:      LanguageC,
	CreateScala:  LanguageScala,
}

var flagNames = []struct {
	flag VariationFlag
	name string
}{
	{CreatePython, "CREATE_PYTHON"},
	{CreateC, "CREATE_C"},
	{CreateScala, "CREATE_SCALA"},
	{ACN, "ACN"},
	{UPER, "UPER"},
	{CreateTests, "CREATE_TESTS"},
	{CompareEncodings, "COMPARE_ENCODINGS"},
}

// Has reports whether every bit of other is set in f.
func (f VariationFlag) Has(other VariationFlag) bool {
	return f&other == other
}

func (f VariationFlag) String() string {
	parts := make([]string, 0, len(flagNames))

	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}

	if len(parts) == 0 {
		return "NONE"
	}

	return strings.Join(parts, "|")
}

// ErrVariation is returned when a flag combination cannot describe a run.
var ErrVariation = errors.New("invalid variation")

// Variation fully parameterizes one harness run.
type Variation struct {
	Languages        []Language   `yaml:"languages"`
	Rule             EncodingRule `yaml:"rule"`
	CreateTests      bool         `yaml:"create_tests"`
	CompareEncodings bool         `yaml:"compare_encodings"`
}

// NewVariation validates a flag set and converts it to a Variation.
// Exactly one of ACN and UPER must be set and at least one language requested.
func NewVariation(flags VariationFlag) (Variation, error) {
	var v Variation

	switch {
	case flags.Has(ACN) && flags.Has(UPER):
		return v, fmt.Errorf("%w: ACN and UPER are mutually exclusive", ErrVariation)
	case flags.Has(ACN):
		v.Rule = RuleACN
	case flags.Has(UPER):
		v.Rule = RuleUPER
	default:
		return v, fmt.Errorf("%w: one of ACN or UPER is required", ErrVariation)
	}

	for _, lang := range Languages {
		for flag, flagLang := range languageFlags {
			if flagLang == lang && flags.Has(flag) {
				v.Languages = append(v.Languages, lang)
			}
		}
	}

	if len(v.Languages) == 0 {
		return v, fmt.Errorf("%w: no backend language selected", ErrVariation)
	}

	v.CreateTests = flags.Has(CreateTests)
	v.CompareEncodings = flags.Has(CompareEncodings)

	return v, nil
}

// Validate checks a Variation built without NewVariation.
func (v Variation) Validate() error {
	if v.Rule != RuleACN && v.Rule != RuleUPER {
		return fmt.Errorf("%w: unknown encoding rule %q", ErrVariation, v.Rule)
	}

	if len(v.Languages) == 0 {
		return fmt.Errorf("%w: no backend language selected", ErrVariation)
	}

	seen := make(map[Language]bool, len(v.Languages))
	for _, lang := range v.Languages {
		if _, err := ParseLanguage(string(lang)); err != nil {
			return fmt.Errorf("%w: %w", ErrVariation, err)
		}

		if seen[lang] {
			return fmt.Errorf("%w: language %q requested twice", ErrVariation, lang)
		}

		seen[lang] = true
	}

	return nil
}

// Flags converts the Variation back to its flag form.
func (v Variation) Flags() VariationFlag {
	var flags VariationFlag

	for flag, lang := range languageFlags {
		for _, selected := range v.Languages {
			if selected == lang {
				flags |= flag
			}
		}
	}

	switch v.Rule {
	case RuleACN:
		flags |= ACN
	case RuleUPER:
		flags |= UPER
	}

	if v.CreateTests {
		flags |= CreateTests
	}

	if v.CompareEncodings {
		flags |= CompareEncodings
	}

	return flags
}

// SortedLanguages returns the requested languages in lexical order.
func (v Variation) SortedLanguages() []Language {
	langs := append([]Language(nil), v.Languages...)
	SortLanguages(langs)

	return langs
}

// SortLanguages sorts languages lexically in place.
func SortLanguages(langs []Language) {
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
}
