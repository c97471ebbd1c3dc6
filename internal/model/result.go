package model

// FailureKind names the stage a backend failed in.
type FailureKind string

// Failure kinds.
const (
	FailureGeneration FailureKind = "generation"
	FailureBuild      FailureKind = "build"
	FailureRun        FailureKind = "run"
)

// TimeoutDiagnostic is the diagnostic recorded when a subprocess exceeds its timeout.
const TimeoutDiagnostic = "timeout"

// Failure records a per-backend or per-vector failure together with its diagnostic.
type Failure struct {
	Kind       FailureKind `yaml:"kind"`
	Language   Language    `yaml:"language"`
	VectorID   string      `yaml:"vector,omitempty"`
	Diagnostic string      `yaml:"diagnostic"`
	TimedOut   bool        `yaml:"timed_out,omitempty"`
}

// EncodingResult is the outcome of encoding one vector with one backend.
// Exactly one of Bytes and Failure is meaningful.
type EncodingResult struct {
	Language Language `yaml:"language"`
	VectorID string   `yaml:"vector"`
	Bytes    Bytes    `yaml:"bytes"`
	Failure  *Failure `yaml:"failure,omitempty"`
}

// OK reports whether the backend produced bytes for the vector.
func (r EncodingResult) OK() bool {
	return r.Failure == nil
}
