package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

const reportExtension = ".yaml"

// ReportStore persists run reports so they can be inspected after the run.
type ReportStore interface {
	SaveReport(ctx context.Context, dir m.Path, report m.RunReport) (m.Path, error)
	LoadReports(ctx context.Context, dir m.Path) ([]m.RunReport, error)
}

// YAMLReportStore stores one YAML document per report.
type YAMLReportStore struct{}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report to <dir>/<report name>.yaml, replacing any previous
// report of the same service/rule/language combination.
func (s *YAMLReportStore) SaveReport(ctx context.Context, dir m.Path, report m.RunReport) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report %s: %w", report.Name(), err)
	}

	path := filepath.Join(string(dir), report.Name()+reportExtension)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Error("Failed to write report", "path", path, "error", err)
		return "", fmt.Errorf("write report: %w", err)
	}

	slog.Debug("Saved report", "path", path, "outcome", report.Outcome)

	return m.Path(path), nil
}

// LoadReports reads every report in dir, sorted by name.
func (s *YAMLReportStore) LoadReports(ctx context.Context, dir m.Path) ([]m.RunReport, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), reportExtension) {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	reports := make([]m.RunReport, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(string(dir), name)

		// #nosec G304 - path is inside the configured reports directory
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", name, err)
		}

		var report m.RunReport
		if err := yaml.Unmarshal(data, &report); err != nil {
			slog.Error("Failed to parse report", "path", path, "error", err)
			return nil, fmt.Errorf("parse report %s: %w", name, err)
		}

		reports = append(reports, report)
	}

	return reports, nil
}
