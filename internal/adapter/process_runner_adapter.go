package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// DefaultProcessTimeout bounds a subprocess when the caller does not set a timeout.
const DefaultProcessTimeout = 2 * time.Minute

// ProcessSpec describes one subprocess invocation.
type ProcessSpec struct {
	Argv    []string
	Dir     string
	Env     []string // appended to the inherited environment
	Stdin   []byte
	Timeout time.Duration
}

// ProcessResult captures what a finished subprocess produced.
type ProcessResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Diagnostic returns the combined stdout/stderr text used in failure reports.
func (r ProcessResult) Diagnostic() string {
	return string(r.Stdout) + string(r.Stderr)
}

// Succeeded reports whether the process exited with status zero in time.
func (r ProcessResult) Succeeded() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// ProcessRunner abstracts subprocess execution for the generator and toolchains.
type ProcessRunner interface {
	// Run executes spec and waits for it. A non-zero exit status or a timeout is
	// reported through ProcessResult; the error is reserved for processes that
	// could not be started or were cancelled by the caller.
	Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error)
}

// LocalProcessRunner provides a concrete implementation using os/exec.
type LocalProcessRunner struct {
	defaultTimeout time.Duration
}

// NewLocalProcessRunner constructs a LocalProcessRunner with the default timeout.
func NewLocalProcessRunner() *LocalProcessRunner {
	return &LocalProcessRunner{
		defaultTimeout: DefaultProcessTimeout,
	}
}

// Run starts the process in its own process group so that a timeout kills every
// child it spawned, then reaps it.
func (a *LocalProcessRunner) Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error) {
	if len(spec.Argv) == 0 {
		return ProcessResult{}, errors.New("empty command line")
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = a.defaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - argv comes from the harness toolchain configuration
	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}

	configureProcessGroup(cmd)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if spec.Stdin != nil {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}

	started := time.Now()
	err := cmd.Run()

	result := ProcessResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(started),
	}

	if ctx.Err() != nil {
		slog.Debug("Process cancelled", "argv", spec.Argv, "error", ctx.Err())
		return result, fmt.Errorf("process cancelled: %w", ctx.Err())
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		slog.Debug("Process timed out", "argv", spec.Argv, "timeout", timeout)

		result.TimedOut = true
		result.ExitCode = -1

		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		slog.Error("Failed to start process", "argv", spec.Argv, "dir", spec.Dir, "error", err)

		return result, fmt.Errorf("start %s: %w", spec.Argv[0], err)
	}

	return result, nil
}
