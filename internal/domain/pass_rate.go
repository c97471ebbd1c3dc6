package domain

import (
	m "asnconform.dev/pkg/asnconform/internal/model"
	"asnconform.dev/pkg/asnconform/pkg"
)

// passRateFromReports returns the percentage of passed reports. An empty
// spill is a vacuous 100.
func passRateFromReports(reports pkg.FileSpill[m.RunReport]) (float64, error) {
	passed := 0
	total := 0

	err := reports.Range(func(_ uint64, report m.RunReport) error {
		total++

		if report.Passed() {
			passed++
		}

		return nil
	})
	if err != nil {
		return 0.0, err
	}

	if total == 0 {
		return 100.0, nil
	}

	return 100.0 * float64(passed) / float64(total), nil
}

func passRateOf(reports []m.RunReport) float64 {
	if len(reports) == 0 {
		return 100.0
	}

	return 100.0 * float64(len(reports)-countFailed(reports)) / float64(len(reports))
}
