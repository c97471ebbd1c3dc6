package model

import (
	"fmt"
	"time"
)

// VerdictKind is the outcome of comparing one vector across backends.
type VerdictKind int

const (
	// Agree indicates every compared backend emitted identical bytes.
	Agree VerdictKind = iota
	// Mismatch indicates at least two compared backends diverged.
	Mismatch
	// Inconclusive indicates fewer than two backends produced bytes.
	Inconclusive
)

func (k VerdictKind) String() string {
	switch k {
	case Agree:
		return "agree"
	case Mismatch:
		return "mismatch"
	case Inconclusive:
		return "inconclusive"
	}

	return fmt.Sprintf("VerdictKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k VerdictKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *VerdictKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "agree":
		*k = Agree
	case "mismatch":
		*k = Mismatch
	case "inconclusive":
		*k = Inconclusive
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}

	return nil
}

// ByteAt is a backend's byte at the divergence offset. Present is false when the
// backend's encoding ended before the offset.
type ByteAt struct {
	Value   byte `yaml:"value"`
	Present bool `yaml:"present"`
}

func (b ByteAt) String() string {
	if !b.Present {
		return "EOF"
	}

	return fmt.Sprintf("0x%02x", b.Value)
}

// ComparisonVerdict is the comparator's finding for one vector.
type ComparisonVerdict struct {
	VectorID     string              `yaml:"vector"`
	Kind         VerdictKind         `yaml:"kind"`
	Participants []Language          `yaml:"participants"`
	Canonical    Bytes               `yaml:"canonical,omitempty"`
	Offset       int                 `yaml:"offset,omitempty"`
	Values       map[Language]ByteAt `yaml:"values,omitempty"`
	Divergent    []Language          `yaml:"divergent,omitempty"`
	Diff         string              `yaml:"diff,omitempty"`
}

// Outcome is the overall verdict of a run.
type Outcome string

// Run outcomes.
const (
	Pass Outcome = "pass"
	Fail Outcome = "fail"
)

// CauseKind classifies why a run failed.
type CauseKind string

// Failure causes. A run may carry several; none masks another.
const (
	CauseNoTestVectors    CauseKind = "no_test_vectors"
	CauseNoBackends       CauseKind = "no_backends"
	CauseGenerationFailed CauseKind = "generation_failed"
	CauseBuildFailed      CauseKind = "build_failed"
	CauseRunFailed        CauseKind = "run_failed"
	CauseMismatch         CauseKind = "mismatch"
	CauseNoAgreement      CauseKind = "no_agreement"
)

// Cause is one reason contributing to a failed run.
type Cause struct {
	Kind     CauseKind `yaml:"kind"`
	Language Language  `yaml:"language,omitempty"`
	VectorID string    `yaml:"vector,omitempty"`
	Message  string    `yaml:"message"`
}

// RunReport aggregates every result of one service/variation run.
type RunReport struct {
	RunID              string              `yaml:"run_id"`
	Service            ServiceID           `yaml:"service"`
	FolderSuffix       string              `yaml:"folder_suffix"`
	Rule               EncodingRule        `yaml:"rule"`
	Languages          []Language          `yaml:"languages"`
	Compared           bool                `yaml:"compared"`
	Outcome            Outcome             `yaml:"outcome"`
	Vectors            int                 `yaml:"vectors"`
	Verdicts           []ComparisonVerdict `yaml:"verdicts,omitempty"`
	GenerationFailures []Failure           `yaml:"generation_failures,omitempty"`
	BuildFailures      []Failure           `yaml:"build_failures,omitempty"`
	RunFailures        []Failure           `yaml:"run_failures,omitempty"`
	Causes             []Cause             `yaml:"causes,omitempty"`
	StartedAt          time.Time           `yaml:"started_at"`
	Duration           time.Duration       `yaml:"duration"`
}

// Passed reports whether the run passed.
func (r RunReport) Passed() bool {
	return r.Outcome == Pass
}

// CountVerdicts returns how many verdicts have the given kind.
func (r RunReport) CountVerdicts(kind VerdictKind) int {
	count := 0

	for _, v := range r.Verdicts {
		if v.Kind == kind {
			count++
		}
	}

	return count
}

// Name identifies the report on disk and in listings.
func (r RunReport) Name() string {
	name := fmt.Sprintf("%s-%s", r.FolderSuffix, r.Rule)
	for _, lang := range r.Languages {
		name += "-" + string(lang)
	}

	return name
}
