package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayRunInfo prints the run header.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running %s (%s) %s with %s on %d vector(s)%s\n",
		info.Service, info.FolderSuffix, info.Rule, joinLanguages(info.Languages), info.Vectors, compareSuffix(info.Compare))
}

// DisplayStageStarted prints the stage a backend entered.
func (s *SimpleUI) DisplayStageStarted(ctx context.Context, lang m.Language, stage Stage) {
	if ctx.Err() != nil {
		return
	}

	s.printf("[%s] %s...\n", lang, stage)
}

// DisplayStageCompleted prints the outcome of a backend stage.
func (s *SimpleUI) DisplayStageCompleted(ctx context.Context, lang m.Language, stage Stage, failure *m.Failure) {
	if ctx.Err() != nil {
		return
	}

	if failure != nil {
		s.printf("[%s] %s failed: %s\n", lang, stage, firstLine(failure.Diagnostic))
		return
	}

	s.printf("[%s] %s done\n", lang, stage)
}

// DisplayVerdict prints the verdict of one vector.
func (s *SimpleUI) DisplayVerdict(ctx context.Context, verdict m.ComparisonVerdict) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s: %s\n", verdict.VectorID, verdictDetail(verdict))
}

// DisplayReport prints the full report of a run.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderReport(report))

	return nil
}

// DisplayMatrixSummary prints one row per run and the pass rate.
func (s *SimpleUI) DisplayMatrixSummary(ctx context.Context, reports []m.RunReport, passRate float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderMatrixSummary(reports, passRate))

	return nil
}

// DisplayServices prints the registered services.
func (s *SimpleUI) DisplayServices(ctx context.Context, services []m.ServiceDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderServices(services))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderReport(report m.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s [%s]\n", report.Name(), report.RunID)
	fmt.Fprintf(&b, "Service %s, rule %s, backends %s, %d vector(s)%s, %s\n\n",
		report.Service, report.Rule, joinLanguages(report.Languages), report.Vectors,
		compareSuffix(report.Compared), report.Duration.Round(time.Millisecond))

	if len(report.Verdicts) > 0 {
		var buf bytes.Buffer

		table := newTable(&buf, []string{"Vector", "Verdict", "Backends", "Detail"})
		table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

		for _, v := range report.Verdicts {
			table.Append([]string{v.VectorID, v.Kind.String(), joinLanguages(v.Participants), verdictDetail(v)})
		}

		table.SetFooter([]string{
			fmt.Sprintf("Total %d", len(report.Verdicts)),
			fmt.Sprintf("%d agree", report.CountVerdicts(m.Agree)),
			fmt.Sprintf("%d mismatch", report.CountVerdicts(m.Mismatch)),
			fmt.Sprintf("%d inconclusive", report.CountVerdicts(m.Inconclusive)),
		})
		table.Render()
		b.WriteString(buf.String())
		b.WriteString("\n")
	}

	failures := make([]m.Failure, 0, len(report.GenerationFailures)+len(report.BuildFailures)+len(report.RunFailures))
	failures = append(failures, report.GenerationFailures...)
	failures = append(failures, report.BuildFailures...)
	failures = append(failures, report.RunFailures...)

	if len(failures) > 0 {
		var buf bytes.Buffer

		table := newTable(&buf, []string{"Stage", "Backend", "Vector", "Diagnostic"})
		for _, f := range failures {
			table.Append([]string{string(f.Kind), string(f.Language), f.VectorID, firstLine(f.Diagnostic)})
		}

		table.Render()
		b.WriteString(buf.String())
		b.WriteString("\n")
	}

	for _, v := range report.Verdicts {
		if v.Kind == m.Mismatch && v.Diff != "" {
			fmt.Fprintf(&b, "Diff for %s:\n%s\n", v.VectorID, v.Diff)
		}
	}

	if report.Passed() {
		b.WriteString("Outcome: PASS\n")
		return b.String()
	}

	b.WriteString("Outcome: FAIL\n")

	for _, c := range report.Causes {
		subject := ""

		switch {
		case c.Language != "" && c.VectorID != "":
			subject = fmt.Sprintf(" [%s %s]", c.Language, c.VectorID)
		case c.Language != "":
			subject = fmt.Sprintf(" [%s]", c.Language)
		case c.VectorID != "":
			subject = fmt.Sprintf(" [%s]", c.VectorID)
		}

		fmt.Fprintf(&b, "  - %s%s: %s\n", c.Kind, subject, c.Message)
	}

	return b.String()
}

func renderMatrixSummary(reports []m.RunReport, passRate float64) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Run", "Vectors", "Agree", "Mismatch", "Failures", "Outcome"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	passed := 0

	for _, r := range reports {
		if r.Passed() {
			passed++
		}

		failures := len(r.GenerationFailures) + len(r.BuildFailures) + len(r.RunFailures)
		table.Append([]string{
			r.Name(),
			fmt.Sprintf("%d", r.Vectors),
			fmt.Sprintf("%d", r.CountVerdicts(m.Agree)),
			fmt.Sprintf("%d", r.CountVerdicts(m.Mismatch)),
			fmt.Sprintf("%d", failures),
			strings.ToUpper(string(r.Outcome)),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Runs %d", len(reports)),
		"", "", "", "",
		fmt.Sprintf("%d passed", passed),
	})
	table.Render()

	fmt.Fprintf(&buf, "\nPass rate: %.2f%%\n", passRate*100)

	return buf.String()
}

func renderServices(services []m.ServiceDefinition) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Service", "Folder", "Schema"})

	for _, svc := range services {
		schema := make([]string, 0, len(svc.Schema))
		for _, p := range svc.Schema {
			schema = append(schema, string(p))
		}

		table.Append([]string{string(svc.ID), svc.FolderSuffix, strings.Join(schema, ", ")})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(services)), "", ""})
	table.Render()

	return buf.String()
}

func verdictDetail(v m.ComparisonVerdict) string {
	switch v.Kind {
	case m.Agree:
		return fmt.Sprintf("%d byte(s) %s", len(v.Canonical), v.Canonical)
	case m.Mismatch:
		values := make([]string, 0, len(v.Participants))
		for _, lang := range v.Participants {
			values = append(values, fmt.Sprintf("%s=%s", lang, v.Values[lang]))
		}

		return fmt.Sprintf("offset %d: %s; divergent %s", v.Offset, strings.Join(values, " "), joinLanguages(v.Divergent))
	default:
		return fmt.Sprintf("%d backend(s) produced bytes", len(v.Participants))
	}
}

func joinLanguages(langs []m.Language) string {
	if len(langs) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, string(lang))
	}

	return strings.Join(parts, ",")
}

func compareSuffix(compare bool) string {
	if compare {
		return ", comparing encodings"
	}

	return ""
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}

	return text
}
