package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	"asnconform.dev/pkg/asnconform/internal/controller"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// Harness runs one service under one variation and reports the outcome.
type Harness interface {
	RunTestService(ctx context.Context, id m.ServiceID, folderSuffix string, variation m.Variation) (m.RunReport, error)
}

// HarnessOptions configure the workspace and concurrency of a Harness.
type HarnessOptions struct {
	WorkspaceRoot m.Path
	KeepWorkspace bool
	// Parallel bounds how many backend pipelines run at once; zero runs all.
	Parallel int
}

// HarnessDeps are the components a Harness orchestrates.
type HarnessDeps struct {
	FS         adapter.WorkspaceFSAdapter
	Resolver   SchemaResolver
	Vectors    VectorSupplier
	Generator  Generator
	Driver     Driver
	Comparator Comparator
	Reporter   Reporter
	UI         controller.UI
}

type harness struct {
	HarnessDeps
	opts HarnessOptions
	now  func() time.Time
}

// NewHarness constructs a Harness. A nil UI discards progress events.
func NewHarness(deps HarnessDeps, opts HarnessOptions) Harness {
	if deps.UI == nil {
		deps.UI = controller.NopUI{}
	}

	if deps.Comparator == nil {
		deps.Comparator = NewComparator()
	}

	if deps.Reporter == nil {
		deps.Reporter = NewReporter(false)
	}

	return &harness{
		HarnessDeps: deps,
		opts:        opts,
		now:         time.Now,
	}
}

// run holds the mutable state of one RunTestService call.
type run struct {
	mu            sync.Mutex
	stageFailures []m.Failure
	results       []m.EncodingResult
	verdicts      []m.ComparisonVerdict
}

func (r *run) addStageFailure(f m.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stageFailures = append(r.stageFailures, f)
}

func (r *run) addResult(result m.EncodingResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, result)
}

func (r *run) addVerdict(v m.ComparisonVerdict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.verdicts = append(r.verdicts, v)
}

// RunTestService generates, builds, and runs every requested backend and
// compares their encodings. Only configuration problems are returned as
// errors; backend failures are part of the report.
func (h *harness) RunTestService(ctx context.Context, id m.ServiceID, folderSuffix string, variation m.Variation) (m.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return m.RunReport{}, err
	}

	def, err := h.Resolver.Resolve(id)
	if err != nil {
		slog.Error("Failed to resolve service", "service", id, "error", err)
		return m.RunReport{}, err
	}

	if err := variation.Validate(); err != nil {
		return m.RunReport{}, err
	}

	if folderSuffix == "" {
		folderSuffix = def.FolderSuffix
	}

	startedAt := h.now()
	rc := RunContext{
		RunID:        uuid.Must(uuid.NewV7()).String(),
		Service:      def.ID,
		FolderSuffix: folderSuffix,
		Variation:    variation,
		StartedAt:    startedAt,
	}

	vectors, err := h.Vectors.VectorsFor(ctx, def, variation.Rule)
	if err != nil {
		if !errors.Is(err, ErrNoTestVectors) {
			return m.RunReport{}, err
		}

		slog.Debug("No test vectors", "service", def.ID, "rule", variation.Rule, "error", err)

		rc.NoVectors = true
		rc.Duration = h.now().Sub(startedAt)

		return h.Reporter.Aggregate(rc), nil
	}

	for _, v := range vectors {
		rc.Vectors = append(rc.Vectors, v.ID)
	}

	runDir := h.FS.JoinPath(ctx, string(h.opts.WorkspaceRoot), folderSuffix, string(variation.Rule))
	if err := h.FS.CheckWritable(ctx, runDir); err != nil {
		slog.Error("Workspace is not writable", "dir", runDir, "error", err)
		return m.RunReport{}, fmt.Errorf("%w: %s: %w", ErrWorkspace, runDir, err)
	}

	if !h.opts.KeepWorkspace {
		defer h.cleanupWorkspace(ctx, runDir)
	}

	h.UI.DisplayRunInfo(ctx, controller.RunInfo{
		Service:      def.ID,
		FolderSuffix: folderSuffix,
		Rule:         variation.Rule,
		Languages:    variation.Languages,
		Vectors:      len(vectors),
		Compare:      variation.CompareEncodings,
	})

	state := &run{}

	var onComplete VectorCompleteFunc
	if variation.CompareEncodings {
		onComplete = func(vectorID string, results map[m.Language]m.EncodingResult) {
			verdict := h.Comparator.Compare(vectorID, results)
			state.addVerdict(verdict)
			h.UI.DisplayVerdict(ctx, verdict)
		}
	}

	barrier := newVectorBarrier(rc.Vectors, variation.Languages, onComplete)

	var group errgroup.Group
	if h.opts.Parallel > 0 {
		group.SetLimit(h.opts.Parallel)
	}

	for _, lang := range variation.Languages {
		group.Go(func() error {
			dir := h.FS.JoinPath(ctx, string(runDir), string(lang))
			return h.runBackend(ctx, def, variation, lang, dir, vectors, barrier, state)
		})
	}

	if err := group.Wait(); err != nil {
		return m.RunReport{}, err
	}

	if pending := barrier.Pending(); len(pending) > 0 {
		slog.Error("Vectors never completed", "vectors", pending)
	}

	rc.StageFailures = state.stageFailures
	rc.Results = state.results
	rc.Verdicts = state.verdicts
	rc.Duration = h.now().Sub(startedAt)

	return h.Reporter.Aggregate(rc), nil
}

// runBackend runs generate, build, and execute for one language. Stage failures
// exclude the backend from every vector and are recorded, never returned.
func (h *harness) runBackend(
	ctx context.Context,
	def m.ServiceDefinition,
	variation m.Variation,
	lang m.Language,
	dir m.Path,
	vectors []m.TestVector,
	barrier *vectorBarrier,
	state *run,
) error {
	h.UI.DisplayStageStarted(ctx, lang, controller.StageGenerate)

	artifact, err := h.Generator.Generate(ctx, def, variation.Rule, lang, GenerateOptions{
		Dir:         dir,
		CreateTests: variation.CreateTests,
	})
	if err != nil {
		return h.stageFailed(ctx, lang, controller.StageGenerate, err, barrier, state)
	}

	h.UI.DisplayStageCompleted(ctx, lang, controller.StageGenerate, nil)
	h.UI.DisplayStageStarted(ctx, lang, controller.StageBuild)

	artifact, err = h.Driver.Build(ctx, artifact)
	if err != nil {
		return h.stageFailed(ctx, lang, controller.StageBuild, err, barrier, state)
	}

	h.UI.DisplayStageCompleted(ctx, lang, controller.StageBuild, nil)
	h.UI.DisplayStageStarted(ctx, lang, controller.StageExecute)

	h.Driver.Execute(ctx, artifact, vectors, func(result m.EncodingResult) {
		state.addResult(result)
		barrier.Arrive(result)
	})

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execute %s: %w", lang, err)
	}

	h.UI.DisplayStageCompleted(ctx, lang, controller.StageExecute, nil)

	return nil
}

func (h *harness) stageFailed(ctx context.Context, lang m.Language, stage controller.Stage, err error, barrier *vectorBarrier, state *run) error {
	failure, ok := AsFailure(err)
	if !ok {
		slog.Error("Backend stage aborted", "language", lang, "stage", stage, "error", err)
		return err
	}

	slog.Debug("Backend stage failed", "language", lang, "stage", stage, "timedOut", failure.TimedOut)

	state.addStageFailure(failure)
	barrier.Exclude(lang, failure)
	h.UI.DisplayStageCompleted(ctx, lang, stage, &failure)

	return nil
}

func (h *harness) cleanupWorkspace(ctx context.Context, dir m.Path) {
	if err := h.FS.RemoveAll(context.WithoutCancel(ctx), dir); err != nil {
		slog.Error("Failed to cleanup workspace", "dir", dir, "error", err)
	}
}
