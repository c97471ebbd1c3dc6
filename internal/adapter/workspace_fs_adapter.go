// Package adapter contains filesystem, process, and storage adapters for the harness.
package adapter

import (
	"context"
	"os"
	"path/filepath"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// WorkspaceFSAdapter abstracts the filesystem operations the domain layer needs
// to lay out per-run workspaces. It hides direct `os` access so the harness can
// be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps the harness decoupled from os/fs.
type WorkspaceFSAdapter interface {
	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile writes content to a file, creating parent directories.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// MkdirAll creates a directory and its parents.
	MkdirAll(ctx context.Context, path m.Path) error

	// ResetDir removes path if present and recreates it empty.
	ResetDir(ctx context.Context, path m.Path) error

	// CheckWritable verifies that files can be created under dir.
	CheckWritable(ctx context.Context, dir m.Path) error

	// CreateTempDir creates a temporary directory.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type into the domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalWorkspaceFSAdapter implements WorkspaceFSAdapter on the local disk.
type LocalWorkspaceFSAdapter struct{}

// NewLocalWorkspaceFSAdapter constructs a LocalWorkspaceFSAdapter instance ready to
// be wired into the harness.
func NewLocalWorkspaceFSAdapter() *LocalWorkspaceFSAdapter {
	return &LocalWorkspaceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalWorkspaceFSAdapter) Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalWorkspaceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	// #nosec G304 - paths come from the harness configuration and workspace layout
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalWorkspaceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalWorkspaceFSAdapter) FileInfo(_ context.Context, path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// MkdirAll creates a directory and any missing parents.
func (a *LocalWorkspaceFSAdapter) MkdirAll(_ context.Context, path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// ResetDir empties a directory, creating it when missing.
func (a *LocalWorkspaceFSAdapter) ResetDir(_ context.Context, path m.Path) error {
	if err := os.RemoveAll(string(path)); err != nil {
		return err
	}

	return os.MkdirAll(string(path), 0o750)
}

// CheckWritable creates dir and probes it with a temporary file.
func (a *LocalWorkspaceFSAdapter) CheckWritable(_ context.Context, dir m.Path) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return err
	}

	probe, err := os.CreateTemp(string(dir), ".probe-*")
	if err != nil {
		return err
	}

	name := probe.Name()
	_ = probe.Close()

	return os.Remove(name)
}

// CreateTempDir creates a temporary directory.
func (a *LocalWorkspaceFSAdapter) CreateTempDir(_ context.Context, pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalWorkspaceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// JoinPath joins path elements into a single path.
func (a *LocalWorkspaceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
