package domain

import (
	"errors"
	"fmt"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// Configuration-level errors. They abort RunTestService; everything else is
// reported as data in the RunReport.
var (
	ErrUnknownService   = errors.New("unknown service")
	ErrNoTestVectors    = errors.New("no test vectors")
	ErrInvalidVariation = m.ErrVariation
	ErrWorkspace        = errors.New("workspace unavailable")
	ErrToolchain        = errors.New("toolchain not configured")
)

// ErrRunFailed is returned by workflows when at least one report did not pass.
var ErrRunFailed = errors.New("run failed")

// FailureError carries a generation, build, or run failure of one backend.
// The harness converts it into report data with errors.As.
type FailureError struct {
	Failure m.Failure
}

func (e *FailureError) Error() string {
	if e.Failure.VectorID != "" {
		return fmt.Sprintf("%s failed for %s on vector %s: %s",
			e.Failure.Kind, e.Failure.Language, e.Failure.VectorID, firstLine(e.Failure.Diagnostic))
	}

	return fmt.Sprintf("%s failed for %s: %s", e.Failure.Kind, e.Failure.Language, firstLine(e.Failure.Diagnostic))
}

func newFailureError(kind m.FailureKind, lang m.Language, vectorID, diagnostic string, timedOut bool) *FailureError {
	return &FailureError{Failure: m.Failure{
		Kind:       kind,
		Language:   lang,
		VectorID:   vectorID,
		Diagnostic: diagnostic,
		TimedOut:   timedOut,
	}}
}

// AsFailure extracts the failure carried by err, if any.
func AsFailure(err error) (m.Failure, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Failure, true
	}

	return m.Failure{}, false
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}

	return text
}
