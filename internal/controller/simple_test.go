package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

func newTestSimpleUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func mismatchReport() m.RunReport {
	return m.RunReport{
		RunID:        "run-1",
		Service:      m.ServiceS1,
		FolderSuffix: "S1",
		Rule:         m.RuleUPER,
		Languages:    []m.Language{m.LanguagePython, m.LanguageC},
		Compared:     true,
		Outcome:      m.Fail,
		Vectors:      3,
		Verdicts: []m.ComparisonVerdict{
			{VectorID: "v1", Kind: m.Agree, Participants: []m.Language{m.LanguagePython, m.LanguageC}, Canonical: m.Bytes{0x01}},
			{VectorID: "v2", Kind: m.Agree, Participants: []m.Language{m.LanguagePython, m.LanguageC}, Canonical: m.Bytes{0x02}},
			{
				VectorID:     "v3",
				Kind:         m.Mismatch,
				Participants: []m.Language{m.LanguagePython, m.LanguageC},
				Offset:       1,
				Values: map[m.Language]m.ByteAt{
					m.LanguagePython: {Value: 0x03, Present: true},
					m.LanguageC:      {Value: 0x02, Present: true},
				},
				Divergent: []m.Language{m.LanguageC},
				Diff:      "--- python\n+++ c\n",
			},
		},
		RunFailures: []m.Failure{
			{Kind: m.FailureRun, Language: m.LanguageC, VectorID: "v4", Diagnostic: "segfault\ncore dumped"},
		},
		Causes: []m.Cause{
			{Kind: m.CauseMismatch, VectorID: "v3", Message: "encodings diverge at byte 1"},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	ui, buf := newTestSimpleUI()

	if err := ui.DisplayReport(context.Background(), mismatchReport()); err != nil {
		t.Fatalf("DisplayReport() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Run S1-uper-python-c [run-1]",
		"comparing encodings",
		"offset 1: python=0x03 c=0x02; divergent c",
		"1 MISMATCH",
		"2 AGREE",
		"segfault",
		"Diff for v3:",
		"+++ c",
		"Outcome: FAIL",
		"- mismatch [v3]: encodings diverge at byte 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("DisplayReport() output missing %q:\n%s", want, output)
		}
	}

	if strings.Contains(output, "core dumped") {
		t.Errorf("DisplayReport() should only show the first diagnostic line")
	}
}

func TestSimpleUI_DisplayReport_Pass(t *testing.T) {
	ui, buf := newTestSimpleUI()

	report := m.RunReport{FolderSuffix: "S2", Rule: m.RuleACN, Languages: []m.Language{m.LanguagePython}, Outcome: m.Pass, Vectors: 1}
	if err := ui.DisplayReport(context.Background(), report); err != nil {
		t.Fatalf("DisplayReport() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Outcome: PASS") {
		t.Errorf("expected pass outcome, got:\n%s", output)
	}

	if strings.Contains(output, "VERDICT") {
		t.Errorf("encode-only report should not render a verdict table:\n%s", output)
	}
}

func TestSimpleUI_DisplayMatrixSummary(t *testing.T) {
	ui, buf := newTestSimpleUI()

	pass := m.RunReport{FolderSuffix: "S2", Rule: m.RuleACN, Languages: []m.Language{m.LanguagePython, m.LanguageScala}, Outcome: m.Pass}

	if err := ui.DisplayMatrixSummary(context.Background(), []m.RunReport{mismatchReport(), pass}, 0.5); err != nil {
		t.Fatalf("DisplayMatrixSummary() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"S1-uper-python-c", "S2-acn-python-scala", "FAIL", "PASS", "1 PASSED", "Pass rate: 50.00%"} {
		if !strings.Contains(output, want) {
			t.Errorf("DisplayMatrixSummary() output missing %q:\n%s", want, output)
		}
	}
}

func TestSimpleUI_Progress(t *testing.T) {
	ui, buf := newTestSimpleUI()
	ctx := context.Background()

	ui.DisplayRunInfo(ctx, RunInfo{Service: m.ServiceS5, FolderSuffix: "S5", Rule: m.RuleACN, Languages: []m.Language{m.LanguageC}, Vectors: 2})
	ui.DisplayStageStarted(ctx, m.LanguageC, StageBuild)
	ui.DisplayStageCompleted(ctx, m.LanguageC, StageBuild, &m.Failure{Diagnostic: "make: *** no rule\nmore"})
	ui.DisplayVerdict(ctx, m.ComparisonVerdict{VectorID: "v1", Kind: m.Inconclusive})

	output := buf.String()
	for _, want := range []string{
		"Running S5 (S5) acn with c on 2 vector(s)",
		"[c] build...",
		"[c] build failed: make: *** no rule",
		"v1: 0 backend(s) produced bytes",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ui, buf := newTestSimpleUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui.DisplayStageStarted(ctx, m.LanguageC, StageGenerate)

	if err := ui.DisplayReport(ctx, mismatchReport()); err == nil {
		t.Fatalf("DisplayReport() expected context error")
	}

	if buf.Len() != 0 {
		t.Fatalf("expected no output after cancellation, got %q", buf.String())
	}
}

func TestSimpleUI_DisplayServices(t *testing.T) {
	ui, buf := newTestSimpleUI()

	services := []m.ServiceDefinition{
		{ID: m.ServiceS1, FolderSuffix: "S1", Schema: []m.Path{"schemas/S1"}},
		{ID: m.ServicePrimitives, FolderSuffix: "Primitives", Schema: []m.Path{"a.asn", "a.acn"}},
	}

	if err := ui.DisplayServices(context.Background(), services); err != nil {
		t.Fatalf("DisplayServices() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"PRIMITIVES", "schemas/S1", "a.asn, a.acn", "TOTAL 2"} {
		if !strings.Contains(output, want) {
			t.Errorf("DisplayServices() output missing %q:\n%s", want, output)
		}
	}
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	if _, ok := NewUI(cmd, false).(*SimpleUI); !ok {
		t.Errorf("NewUI(false) should return SimpleUI")
	}

	if _, ok := NewUI(cmd, true).(*TUI); !ok {
		t.Errorf("NewUI(true) should return TUI")
	}

	if IsTTY(&bytes.Buffer{}) {
		t.Errorf("IsTTY(buffer) = true")
	}
}
