package domain

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

const vectorsDirName = "vectors"

// ResultObserver is notified of every encoding result as soon as it is final.
// It may be called concurrently.
type ResultObserver func(result m.EncodingResult)

// Driver builds a generated artifact and runs it against test vectors.
type Driver interface {
	Build(ctx context.Context, artifact m.GeneratedArtifact) (m.GeneratedArtifact, error)
	Execute(ctx context.Context, artifact m.GeneratedArtifact, vectors []m.TestVector, observe ResultObserver) []m.EncodingResult
	BuildAndRun(ctx context.Context, artifact m.GeneratedArtifact, vectors []m.TestVector, observe ResultObserver) ([]m.EncodingResult, error)
}

// DriverOptions configure a Driver.
type DriverOptions struct {
	Toolchains     map[m.Language]ToolchainConfig
	BuildTimeout   time.Duration
	RunTimeout     time.Duration
	VectorParallel int
}

type driver struct {
	fsAdapter adapter.WorkspaceFSAdapter
	runner    adapter.ProcessRunner
	opts      DriverOptions
}

// NewDriver constructs a Driver. Missing toolchains fall back to DefaultToolchains.
func NewDriver(fsAdapter adapter.WorkspaceFSAdapter, runner adapter.ProcessRunner, opts DriverOptions) Driver {
	toolchains := DefaultToolchains()
	for lang, tc := range opts.Toolchains {
		toolchains[lang] = tc
	}

	opts.Toolchains = toolchains

	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = DefaultTimeouts.Build
	}

	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultTimeouts.Run
	}

	if opts.VectorParallel <= 0 {
		opts.VectorParallel = 1
	}

	return &driver{
		fsAdapter: fsAdapter,
		runner:    runner,
		opts:      opts,
	}
}

// BuildAndRun builds the artifact and, when the build succeeds, executes every vector.
// The harness calls Build and Execute itself to report each stage to the UI.
// A build failure is returned as *FailureError and no vector is executed.
func (d *driver) BuildAndRun(ctx context.Context, artifact m.GeneratedArtifact, vectors []m.TestVector, observe ResultObserver) ([]m.EncodingResult, error) {
	built, err := d.Build(ctx, artifact)
	if err != nil {
		return nil, err
	}

	results := d.Execute(ctx, built, vectors, observe)

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("execute %s: %w", artifact.Language, err)
	}

	return results, nil
}

// Build compiles the artifact. Toolchains without a build command are marked built.
func (d *driver) Build(ctx context.Context, artifact m.GeneratedArtifact) (m.GeneratedArtifact, error) {
	tc, ok := d.opts.Toolchains[artifact.Language]
	if !ok {
		return artifact, newFailureError(m.FailureBuild, artifact.Language, "", fmt.Sprintf("no toolchain for %s", artifact.Language), false)
	}

	if err := tc.Validate(); err != nil {
		return artifact, newFailureError(m.FailureBuild, artifact.Language, "", err.Error(), false)
	}

	if len(tc.Build) == 0 {
		artifact.Built = true
		return artifact, nil
	}

	argv := expandArgv(tc.Build, map[string]string{placeholderSrc: string(artifact.Dir)}, nil)

	slog.Debug("Building artifact", "language", artifact.Language, "dir", artifact.Dir, "argv", argv)

	result, err := d.runner.Run(ctx, adapter.ProcessSpec{
		Argv:    argv,
		Dir:     string(artifact.Dir),
		Timeout: d.opts.BuildTimeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return artifact, fmt.Errorf("build %s: %w", artifact.Language, err)
		}

		return artifact, newFailureError(m.FailureBuild, artifact.Language, "", err.Error(), false)
	}

	if result.TimedOut {
		return artifact, newFailureError(m.FailureBuild, artifact.Language, "", m.TimeoutDiagnostic, true)
	}

	if !result.Succeeded() {
		return artifact, newFailureError(m.FailureBuild, artifact.Language, "", result.Diagnostic(), false)
	}

	artifact.Built = true

	return artifact, nil
}

// Execute runs every vector against a built artifact. Each vector yields exactly
// one result; a failing vector never stops the others.
func (d *driver) Execute(ctx context.Context, artifact m.GeneratedArtifact, vectors []m.TestVector, observe ResultObserver) []m.EncodingResult {
	results := make([]m.EncodingResult, len(vectors))

	var group errgroup.Group
	group.SetLimit(d.opts.VectorParallel)

	for i, vector := range vectors {
		group.Go(func() error {
			result := d.executeVector(ctx, artifact, i, vector)
			results[i] = result

			if observe != nil {
				observe(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

func (d *driver) executeVector(ctx context.Context, artifact m.GeneratedArtifact, index int, vector m.TestVector) m.EncodingResult {
	fail := func(diagnostic string, timedOut bool) m.EncodingResult {
		return m.EncodingResult{
			Language: artifact.Language,
			VectorID: vector.ID,
			Failure: &m.Failure{
				Kind:       m.FailureRun,
				Language:   artifact.Language,
				VectorID:   vector.ID,
				Diagnostic: diagnostic,
				TimedOut:   timedOut,
			},
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(err.Error(), false)
	}

	if !artifact.Built {
		return fail("artifact not built", false)
	}

	tc := d.opts.Toolchains[artifact.Language]

	name := vectorFileName(index, vector.ID)
	vectorPath := d.fsAdapter.JoinPath(ctx, string(artifact.Dir), vectorsDirName, name+".val")
	outputPath := d.fsAdapter.JoinPath(ctx, string(artifact.Dir), vectorsDirName, name+".bin")

	if err := d.fsAdapter.WriteFile(ctx, vectorPath, []byte(vector.Value), 0o600); err != nil {
		slog.Error("Failed to write vector", "path", vectorPath, "error", err)
		return fail(fmt.Sprintf("write vector: %v", err), false)
	}

	argv := expandArgv(tc.Run, map[string]string{
		placeholderSrc:    string(artifact.Dir),
		placeholderPDU:    vector.PDU,
		placeholderVector: string(vectorPath),
		placeholderOutput: string(outputPath),
	}, nil)

	result, err := d.runner.Run(ctx, adapter.ProcessSpec{
		Argv:    argv,
		Dir:     string(artifact.Dir),
		Timeout: d.opts.RunTimeout,
	})

	switch {
	case err != nil:
		return fail(err.Error(), false)
	case result.TimedOut:
		return fail(m.TimeoutDiagnostic, true)
	case !result.Succeeded():
		return fail(result.Diagnostic(), false)
	}

	encoded, err := d.decodeOutput(ctx, tc.Output, result.Stdout, outputPath)
	if err != nil {
		return fail(err.Error(), false)
	}

	slog.Debug("Encoded vector", "language", artifact.Language, "vector", vector.ID, "bytes", len(encoded))

	return m.EncodingResult{
		Language: artifact.Language,
		VectorID: vector.ID,
		Bytes:    encoded,
	}
}

func (d *driver) decodeOutput(ctx context.Context, mode OutputMode, stdout []byte, outputPath m.Path) (m.Bytes, error) {
	switch mode {
	case OutputHex:
		text := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}

			return r
		}, string(stdout))

		decoded, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid hex output: %w", err)
		}

		return append(m.Bytes{}, decoded...), nil
	case OutputFile:
		data, err := d.fsAdapter.ReadFile(ctx, outputPath)
		if err != nil {
			return nil, fmt.Errorf("read output: %w", err)
		}

		return append(m.Bytes{}, data...), nil
	default:
		return append(m.Bytes{}, stdout...), nil
	}
}

// vectorFileName names the per-vector files. The index prefix keeps ids that
// sanitize to the same string apart.
func vectorFileName(index int, id string) string {
	return fmt.Sprintf("%04d-%s", index, sanitizeVectorID(id))
}

func sanitizeVectorID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}

		return r
	}, id)
}
