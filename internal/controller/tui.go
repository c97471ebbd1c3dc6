package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Border(lipgloss.DoubleBorder()).Padding(0, 2)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	backendStyle = lipgloss.NewStyle().Width(8)
)

// TUI implements UI using Bubble Tea for live progress.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	mode    StartMode
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program. Only view mode reads the keyboard.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	programOptions := []tea.ProgramOption{tea.WithOutput(t.output)}
	if cfg.mode != ModeView {
		programOptions = append(programOptions, tea.WithInput(nil))
	}

	t.mode = cfg.mode
	t.program = tea.NewProgram(newProgressModel(cfg.mode), programOptions...)
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Error("TUI program failed", "error", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program, t.done = nil, nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the user quits in view mode.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done, mode := t.done, t.mode
	t.mu.Unlock()

	if done == nil || mode != ModeView {
		return
	}

	select {
	case <-ctx.Done():
	case <-done:
	}
}

// DisplayRunInfo shows the run header.
func (t *TUI) DisplayRunInfo(_ context.Context, info RunInfo) {
	t.send(runInfoMsg(info))
}

// DisplayStageStarted marks a backend as busy with stage.
func (t *TUI) DisplayStageStarted(_ context.Context, lang m.Language, stage Stage) {
	t.send(stageMsg{lang: lang, stage: stage})
}

// DisplayStageCompleted marks the end of a backend stage.
func (t *TUI) DisplayStageCompleted(_ context.Context, lang m.Language, stage Stage, failure *m.Failure) {
	t.send(stageMsg{lang: lang, stage: stage, done: true, failure: failure})
}

// DisplayVerdict counts a verdict.
func (t *TUI) DisplayVerdict(_ context.Context, verdict m.ComparisonVerdict) {
	t.send(verdictMsg(verdict))
}

// DisplayReport shows the rendered report below the progress lines.
func (t *TUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.show(outcomeLine(report.Passed(), report.Name()) + "\n" + renderReport(report))
}

// DisplayMatrixSummary shows the matrix table.
func (t *TUI) DisplayMatrixSummary(ctx context.Context, reports []m.RunReport, passRate float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.show(renderMatrixSummary(reports, passRate))
}

// DisplayServices prints the registered services.
func (t *TUI) DisplayServices(ctx context.Context, services []m.ServiceDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.show(renderServices(services))
}

func (t *TUI) show(text string) error {
	if t.send(textMsg(text)) {
		return nil
	}

	_, err := fmt.Fprint(t.output, text)

	return err
}

// send forwards msg to the running program and reports whether one was running.
func (t *TUI) send(msg tea.Msg) bool {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

func outcomeLine(passed bool, name string) string {
	if passed {
		return passStyle.Render("PASS") + " " + name
	}

	return failStyle.Render("FAIL") + " " + name
}

type runInfoMsg RunInfo

type stageMsg struct {
	lang    m.Language
	stage   Stage
	done    bool
	failure *m.Failure
}

type verdictMsg m.ComparisonVerdict

type textMsg string

type backendProgress struct {
	stage   Stage
	done    bool
	failure *m.Failure
}

// progressModel is the Bubble Tea model behind TUI.
type progressModel struct {
	mode     StartMode
	spinner  spinner.Model
	runs     []RunInfo
	order    []m.Language
	backends map[m.Language]backendProgress
	verdicts map[m.VerdictKind]int
	texts    []string
	height   int
	offset   int
	quitting bool
}

func newProgressModel(mode StartMode) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return progressModel{
		mode:     mode,
		spinner:  s,
		backends: make(map[m.Language]backendProgress),
		verdicts: make(map[m.VerdictKind]int),
	}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.height = msg.Height
		return pm, nil

	case tea.KeyMsg:
		return pm.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd

	case runInfoMsg:
		pm.runs = append(pm.runs, RunInfo(msg))
		pm.order = nil
		pm.backends = make(map[m.Language]backendProgress)
		pm.verdicts = make(map[m.VerdictKind]int)

		for _, lang := range msg.Languages {
			pm.order = append(pm.order, lang)
			pm.backends[lang] = backendProgress{}
		}

		return pm, nil

	case stageMsg:
		if _, known := pm.backends[msg.lang]; !known {
			pm.order = append(pm.order, msg.lang)
		}

		pm.backends[msg.lang] = backendProgress{stage: msg.stage, done: msg.done, failure: msg.failure}

		return pm, nil

	case verdictMsg:
		pm.verdicts[msg.Kind]++
		return pm, nil

	case textMsg:
		pm.texts = append(pm.texts, string(msg))
		return pm, nil
	}

	return pm, nil
}

//nolint:exhaustive // Only navigation keys are handled.
func (pm progressModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		pm.quitting = true
		return pm, tea.Quit
	case tea.KeyDown:
		pm.offset = min(pm.offset+1, pm.maxOffset())
		return pm, nil
	case tea.KeyUp:
		pm.offset = max(pm.offset-1, 0)
		return pm, nil
	}

	switch msg.String() {
	case "q":
		pm.quitting = true
		return pm, tea.Quit
	case "j":
		pm.offset = min(pm.offset+1, pm.maxOffset())
	case "k":
		pm.offset = max(pm.offset-1, 0)
	case "g":
		pm.offset = 0
	case "G":
		pm.offset = pm.maxOffset()
	}

	return pm, nil
}

func (pm progressModel) lines() []string {
	var lines []string

	for _, text := range pm.texts {
		lines = append(lines, strings.Split(strings.TrimRight(text, "\n"), "\n")...)
	}

	return lines
}

func (pm progressModel) maxOffset() int {
	visible := pm.height - 6
	if visible <= 0 {
		return 0
	}

	return max(len(pm.lines())-visible, 0)
}

func (pm progressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("asnconform - ACN/uPER conformance"))
	b.WriteString("\n\n")

	if len(pm.runs) > 0 {
		info := pm.runs[len(pm.runs)-1]
		fmt.Fprintf(&b, "  %s (%s) %s, %d vector(s)%s\n\n",
			info.Service, info.FolderSuffix, info.Rule, info.Vectors, compareSuffix(info.Compare))
	}

	for _, lang := range pm.order {
		b.WriteString("  ")
		b.WriteString(pm.renderBackend(lang, pm.backends[lang]))
		b.WriteString("\n")
	}

	if total := pm.verdicts[m.Agree] + pm.verdicts[m.Mismatch] + pm.verdicts[m.Inconclusive]; total > 0 {
		fmt.Fprintf(&b, "\n  verdicts: %d agree, %s, %d inconclusive\n",
			pm.verdicts[m.Agree], pm.renderMismatches(), pm.verdicts[m.Inconclusive])
	}

	lines := pm.lines()
	if len(lines) > 0 {
		b.WriteString("\n")

		if pm.mode == ModeView && pm.height > 0 {
			end := min(pm.offset+max(pm.height-6, 1), len(lines))
			lines = lines[pm.offset:end]
		}

		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if pm.mode == ModeView {
		b.WriteString(faintStyle.Render("\n  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit"))
		b.WriteString("\n")
	}

	return b.String()
}

func (pm progressModel) renderBackend(lang m.Language, bp backendProgress) string {
	name := backendStyle.Render(string(lang))

	switch {
	case bp.stage == "":
		return faintStyle.Render("· ") + name + faintStyle.Render("waiting")
	case bp.failure != nil:
		return failStyle.Render("✗ ") + name + fmt.Sprintf("%s failed: %s", bp.stage, firstLine(bp.failure.Diagnostic))
	case bp.done && bp.stage == StageExecute:
		return passStyle.Render("✓ ") + name + "done"
	case bp.done:
		return passStyle.Render("✓ ") + name + string(bp.stage)
	default:
		return pm.spinner.View() + " " + name + string(bp.stage) + "..."
	}
}

func (pm progressModel) renderMismatches() string {
	text := fmt.Sprintf("%d mismatch", pm.verdicts[m.Mismatch])
	if pm.verdicts[m.Mismatch] > 0 {
		return failStyle.Render(text)
	}

	return text
}
