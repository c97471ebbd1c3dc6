package domain

import (
	"fmt"
	"sort"
	"time"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// RunContext is everything a finished run produced.
type RunContext struct {
	RunID        string
	Service      m.ServiceID
	FolderSuffix string
	Variation    m.Variation
	StartedAt    time.Time
	Duration     time.Duration

	// Vectors is the ordered list of vector ids the run used.
	Vectors   []string
	NoVectors bool

	// StageFailures holds generation and build failures, one per failed backend.
	StageFailures []m.Failure
	Results       []m.EncodingResult
	Verdicts      []m.ComparisonVerdict
}

// Reporter turns a RunContext into a RunReport with a single outcome.
type Reporter interface {
	Aggregate(rc RunContext) m.RunReport
}

type reporter struct {
	strictRunFailures bool
}

// NewReporter constructs a Reporter. With strictRunFailures, run failures fail a
// comparing run even when the remaining backends agree.
func NewReporter(strictRunFailures bool) Reporter {
	return &reporter{strictRunFailures: strictRunFailures}
}

// Aggregate enumerates every failure cause. The run passes only when there is none.
func (r *reporter) Aggregate(rc RunContext) m.RunReport {
	report := m.RunReport{
		RunID:        rc.RunID,
		Service:      rc.Service,
		FolderSuffix: rc.FolderSuffix,
		Rule:         rc.Variation.Rule,
		Languages:    append([]m.Language(nil), rc.Variation.Languages...),
		Compared:     rc.Variation.CompareEncodings,
		Vectors:      len(rc.Vectors),
		StartedAt:    rc.StartedAt,
		Duration:     rc.Duration,
	}

	for _, f := range rc.StageFailures {
		switch f.Kind {
		case m.FailureGeneration:
			report.GenerationFailures = append(report.GenerationFailures, f)
		case m.FailureBuild:
			report.BuildFailures = append(report.BuildFailures, f)
		case m.FailureRun:
			report.RunFailures = append(report.RunFailures, f)
		}
	}

	vectorIndex := make(map[string]int, len(rc.Vectors))
	for i, id := range rc.Vectors {
		vectorIndex[id] = i
	}

	successes := 0

	for _, result := range rc.Results {
		if result.OK() {
			successes++
			continue
		}

		if result.Failure.Kind == m.FailureRun {
			report.RunFailures = append(report.RunFailures, *result.Failure)
		}
	}

	sortFailures(report.GenerationFailures, vectorIndex)
	sortFailures(report.BuildFailures, vectorIndex)
	sortFailures(report.RunFailures, vectorIndex)

	if report.Compared {
		report.Verdicts = append([]m.ComparisonVerdict(nil), rc.Verdicts...)
		sort.SliceStable(report.Verdicts, func(i, j int) bool {
			return vectorIndex[report.Verdicts[i].VectorID] < vectorIndex[report.Verdicts[j].VectorID]
		})
	}

	report.Causes = r.causes(rc, report, successes)

	report.Outcome = m.Pass
	if len(report.Causes) > 0 {
		report.Outcome = m.Fail
	}

	return report
}

func (r *reporter) causes(rc RunContext, report m.RunReport, successes int) []m.Cause {
	var causes []m.Cause

	if rc.NoVectors || report.Vectors == 0 {
		causes = append(causes, m.Cause{
			Kind:    m.CauseNoTestVectors,
			Message: fmt.Sprintf("no test vectors for %s under %s", rc.Service, report.Rule),
		})
	}

	if !rc.NoVectors && len(report.GenerationFailures)+len(report.BuildFailures) >= len(report.Languages) {
		causes = append(causes, m.Cause{
			Kind:    m.CauseNoBackends,
			Message: "no backend was generated and built",
		})
	}

	for _, f := range report.GenerationFailures {
		causes = append(causes, m.Cause{Kind: m.CauseGenerationFailed, Language: f.Language, Message: firstLine(f.Diagnostic)})
	}

	for _, f := range report.BuildFailures {
		causes = append(causes, m.Cause{Kind: m.CauseBuildFailed, Language: f.Language, Message: firstLine(f.Diagnostic)})
	}

	if !report.Compared || r.strictRunFailures {
		for _, f := range report.RunFailures {
			causes = append(causes, m.Cause{Kind: m.CauseRunFailed, Language: f.Language, VectorID: f.VectorID, Message: firstLine(f.Diagnostic)})
		}
	}

	if !report.Compared {
		return causes
	}

	for _, v := range report.Verdicts {
		if v.Kind != m.Mismatch {
			continue
		}

		causes = append(causes, m.Cause{
			Kind:     m.CauseMismatch,
			VectorID: v.VectorID,
			Message:  mismatchMessage(v),
		})
	}

	if report.Vectors > 0 && report.CountVerdicts(m.Agree) == 0 {
		causes = append(causes, m.Cause{
			Kind:    m.CauseNoAgreement,
			Message: fmt.Sprintf("no vector was encoded identically by two backends (%d encodings succeeded)", successes),
		})
	}

	return causes
}

func mismatchMessage(v m.ComparisonVerdict) string {
	msg := fmt.Sprintf("encodings diverge at byte %d:", v.Offset)
	for _, lang := range v.Participants {
		msg += fmt.Sprintf(" %s=%s", lang, v.Values[lang])
	}

	return msg
}

func sortFailures(failures []m.Failure, vectorIndex map[string]int) {
	sort.SliceStable(failures, func(i, j int) bool {
		vi, vj := vectorIndex[failures[i].VectorID], vectorIndex[failures[j].VectorID]
		if vi != vj {
			return vi < vj
		}

		return languageLess(failures[i].Language, failures[j].Language)
	})
}
