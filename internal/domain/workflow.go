package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	"asnconform.dev/pkg/asnconform/internal/controller"
	m "asnconform.dev/pkg/asnconform/internal/model"
	"asnconform.dev/pkg/asnconform/pkg"
)

// shardDirPrefix names the per-shard report folders written by sharded matrix runs.
const shardDirPrefix = "shard_"

// RunArgs contains the arguments for a single service run.
type RunArgs struct {
	Service      m.ServiceID
	FolderSuffix string
	Variation    m.Variation
	// Reports is the directory reports are saved to; empty skips saving.
	Reports m.Path
}

// MatrixArgs contains the arguments for a matrix run.
type MatrixArgs struct {
	Config          MatrixConfig
	Reports         m.Path
	SpillDir        string
	Threads         int
	ShardIndex      int
	TotalShardCount int
}

// ViewArgs contains the arguments for viewing saved reports.
type ViewArgs struct {
	Reports m.Path
}

// MergeArgs contains the arguments for merging sharded reports.
type MergeArgs struct {
	Reports m.Path
}

// Workflow drives the harness for the CLI commands.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.RunReport, error)
	Matrix(ctx context.Context, args MatrixArgs) (float64, error)
	View(ctx context.Context, args ViewArgs) error
	List(ctx context.Context) error
	Merge(ctx context.Context, args MergeArgs) error
}

type workflow struct {
	adapter.ReportStore
	controller.UI
	Harness
	MatrixStreamer

	fs       adapter.WorkspaceFSAdapter
	resolver SchemaResolver
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
// The UI should be the one the harness reports progress to.
func NewWorkflow(
	fsAdapter adapter.WorkspaceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	harness Harness,
	resolver SchemaResolver,
	streamer MatrixStreamer,
) Workflow {
	return &workflow{
		ReportStore:    reportStore,
		UI:             ui,
		Harness:        harness,
		MatrixStreamer: streamer,
		fs:             fsAdapter,
		resolver:       resolver,
	}
}

// Run executes one service run, saves and displays its report. A report that
// did not pass yields ErrRunFailed alongside the report.
func (w *workflow) Run(ctx context.Context, args RunArgs) (m.RunReport, error) {
	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.RunReport{}, err
	}

	report, err := w.RunTestService(ctx, args.Service, args.FolderSuffix, args.Variation)
	if err != nil {
		w.Close(ctx)
		return m.RunReport{}, fmt.Errorf("run %s: %w", args.Service, err)
	}

	if err := w.saveReport(ctx, args.Reports, report); err != nil {
		w.Close(ctx)
		return report, err
	}

	if err := w.DisplayReport(ctx, report); err != nil {
		w.Close(ctx)
		return report, fmt.Errorf("display: %w", err)
	}

	w.Close(ctx)

	if !report.Passed() {
		return report, fmt.Errorf("%w: %s", ErrRunFailed, report.Name())
	}

	return report, nil
}

func (w *workflow) saveReport(ctx context.Context, dir m.Path, report m.RunReport) error {
	if dir == "" {
		return nil
	}

	path, err := w.SaveReport(ctx, dir, report)
	if err != nil {
		slog.Error("Failed to save report", "report", report.Name(), "error", err)
		return fmt.Errorf("save report: %w", err)
	}

	slog.Debug("Saved report", "path", path)

	return nil
}

// Matrix runs every case of the configured matrix that belongs to this shard and
// returns the pass rate in percent.
func (w *workflow) Matrix(ctx context.Context, args MatrixArgs) (float64, error) {
	cases, err := ExpandMatrix(args.Config, w.resolver)
	if err != nil {
		return 0, fmt.Errorf("expand matrix: %w", err)
	}

	threads := args.Threads
	if threads <= 0 {
		threads = 1
	}

	reportsDir := args.Reports
	if reportsDir != "" && args.TotalShardCount > 1 {
		reportsDir = w.fs.JoinPath(ctx, string(reportsDir), fmt.Sprintf("%s%d", shardDirPrefix, args.ShardIndex))
	}

	spillDir := m.Path(args.SpillDir)
	if spillDir == "" {
		spillDir, err = w.fs.CreateTempDir(ctx, "asnconform-spill-*")
		if err != nil {
			return 0, fmt.Errorf("create spill dir: %w", err)
		}

		defer w.removeSpill(ctx, spillDir)
	}

	spill, err := pkg.NewFileSpill[m.RunReport](string(spillDir))
	if err != nil {
		return 0, fmt.Errorf("create report spill: %w", err)
	}

	defer func() {
		_ = spill.Close()
		w.removeSpill(ctx, m.Path(spill.Path()))
	}()

	if err := w.Start(ctx, controller.WithMatrixMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return 0, err
	}

	if err := w.runCases(ctx, cases, args, threads, reportsDir, spill); err != nil {
		w.Close(ctx)
		return 0, err
	}

	passRate, err := passRateFromReports(spill)
	if err != nil {
		w.Close(ctx)
		return 0, fmt.Errorf("pass rate: %w", err)
	}

	reports, err := collectReports(spill)
	if err != nil {
		w.Close(ctx)
		return 0, err
	}

	if err := w.DisplayMatrixSummary(ctx, reports, passRate); err != nil {
		w.Close(ctx)
		return 0, fmt.Errorf("display: %w", err)
	}

	w.Close(ctx)

	if failed := countFailed(reports); failed > 0 {
		return passRate, fmt.Errorf("%w: %d of %d matrix runs", ErrRunFailed, failed, len(reports))
	}

	return passRate, nil
}

func (w *workflow) runCases(ctx context.Context, cases []MatrixCase, args MatrixArgs, threads int, reportsDir m.Path, spill pkg.FileSpill[m.RunReport]) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	shardCases := w.ShardCases(groupCtx, w.Get(groupCtx, cases, threads), threads, args.ShardIndex, args.TotalShardCount)

	for c := range shardCases {
		group.Go(func() error {
			slog.Debug("Running matrix case", "case", c.Key(), "suffix", c.FolderSuffix)

			report, err := w.RunTestService(groupCtx, c.Service, c.FolderSuffix, c.Variation)
			if err != nil {
				return fmt.Errorf("matrix case %s: %w", c.Key(), err)
			}

			if err := w.saveReport(groupCtx, reportsDir, report); err != nil {
				return err
			}

			if err := spill.Append(report); err != nil {
				return fmt.Errorf("spill report: %w", err)
			}

			return w.DisplayReport(groupCtx, report)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

func (w *workflow) removeSpill(ctx context.Context, path m.Path) {
	if err := w.fs.RemoveAll(context.WithoutCancel(ctx), path); err != nil {
		slog.Error("Failed to remove report spill", "path", path, "error", err)
	}
}

func collectReports(spill pkg.FileSpill[m.RunReport]) ([]m.RunReport, error) {
	reports := make([]m.RunReport, 0, spill.Len())

	err := spill.Range(func(_ uint64, report m.RunReport) error {
		reports = append(reports, report)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read report spill: %w", err)
	}

	sortReports(reports)

	return reports, nil
}

func sortReports(reports []m.RunReport) {
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Name() < reports[j].Name() })
}

func countFailed(reports []m.RunReport) int {
	failed := 0

	for _, report := range reports {
		if !report.Passed() {
			failed++
		}
	}

	return failed
}

// View displays saved reports and, for more than one, their summary.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	reports, err := w.LoadReports(ctx, args.Reports)
	if err != nil {
		slog.Error("Failed to load reports", "dir", args.Reports, "error", err)
		return fmt.Errorf("load reports: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no reports found in %s", args.Reports)
	}

	sortReports(reports)

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	for _, report := range reports {
		if err := w.DisplayReport(ctx, report); err != nil {
			w.Close(ctx)
			return fmt.Errorf("display: %w", err)
		}
	}

	if len(reports) > 1 {
		if err := w.DisplayMatrixSummary(ctx, reports, passRateOf(reports)); err != nil {
			w.Close(ctx)
			return fmt.Errorf("display: %w", err)
		}
	}

	// Wait for UI to be closed by user (press 'q')
	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// List displays the registered services.
func (w *workflow) List(ctx context.Context) error {
	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	if err := w.DisplayServices(ctx, w.resolver.List()); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// Merge moves the reports of shard_* subdirectories into the reports directory
// and removes the shard folders.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	shards, err := w.shardDirs(ctx, args.Reports)
	if err != nil {
		return err
	}

	if len(shards) == 0 {
		return fmt.Errorf("no %s* directories in %s", shardDirPrefix, args.Reports)
	}

	merged := 0

	for _, shard := range shards {
		reports, err := w.LoadReports(ctx, shard)
		if err != nil {
			return fmt.Errorf("load %s: %w", shard, err)
		}

		for _, report := range reports {
			if err := w.saveReport(ctx, args.Reports, report); err != nil {
				return err
			}
		}

		if err := w.fs.RemoveAll(ctx, shard); err != nil {
			return fmt.Errorf("remove %s: %w", shard, err)
		}

		merged += len(reports)
	}

	slog.Info("Merged shard reports", "shards", len(shards), "reports", merged)

	return nil
}

func (w *workflow) shardDirs(ctx context.Context, root m.Path) ([]m.Path, error) {
	var shards []m.Path

	err := w.fs.Walk(ctx, root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() || path == string(root) {
			return nil
		}

		if strings.HasPrefix(filepath.Base(path), shardDirPrefix) {
			shards = append(shards, m.Path(path))
		}

		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(shards, func(i, j int) bool { return shards[i] < shards[j] })

	return shards, nil
}
