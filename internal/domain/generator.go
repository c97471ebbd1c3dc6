package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// GenerateOptions parameterize one generator invocation.
type GenerateOptions struct {
	Dir         m.Path
	CreateTests bool
}

// Generator produces the encoder source tree of one backend from a service schema.
type Generator interface {
	Generate(ctx context.Context, def m.ServiceDefinition, rule m.EncodingRule, lang m.Language, opts GenerateOptions) (m.GeneratedArtifact, error)
}

type generator struct {
	fsAdapter adapter.WorkspaceFSAdapter
	runner    adapter.ProcessRunner
	argv      []string
	timeout   time.Duration
}

// NewGenerator constructs a Generator running argv through runner. An empty argv
// selects DefaultGeneratorArgv.
func NewGenerator(fsAdapter adapter.WorkspaceFSAdapter, runner adapter.ProcessRunner, argv []string, timeout time.Duration) Generator {
	if len(argv) == 0 {
		argv = DefaultGeneratorArgv
	}

	if timeout <= 0 {
		timeout = DefaultTimeouts.Generate
	}

	return &generator{
		fsAdapter: fsAdapter,
		runner:    runner,
		argv:      argv,
		timeout:   timeout,
	}
}

// Generate wipes opts.Dir and runs the generator into it. Generator failures and
// timeouts are returned as *FailureError; only caller cancellation is returned as
// a plain error.
func (g *generator) Generate(ctx context.Context, def m.ServiceDefinition, rule m.EncodingRule, lang m.Language, opts GenerateOptions) (m.GeneratedArtifact, error) {
	artifact := m.GeneratedArtifact{
		Service:  def.ID,
		Language: lang,
		Rule:     rule,
		Dir:      opts.Dir,
	}

	langFlag, ok := generatorLanguageFlags[lang]
	if !ok {
		return artifact, newFailureError(m.FailureGeneration, lang, "", fmt.Sprintf("unsupported language %q", lang), false)
	}

	ruleFlag, ok := generatorRuleFlags[rule]
	if !ok {
		return artifact, newFailureError(m.FailureGeneration, lang, "", fmt.Sprintf("unsupported encoding rule %q", rule), false)
	}

	if err := g.fsAdapter.ResetDir(ctx, opts.Dir); err != nil {
		slog.Error("Failed to reset output dir", "dir", opts.Dir, "error", err)
		return artifact, newFailureError(m.FailureGeneration, lang, "", fmt.Sprintf("reset %s: %v", opts.Dir, err), false)
	}

	schema, err := g.schemaFiles(ctx, def.Schema)
	if err != nil {
		slog.Error("Failed to collect schema files", "service", def.ID, "error", err)
		return artifact, newFailureError(m.FailureGeneration, lang, "", err.Error(), false)
	}

	tests := ""
	if opts.CreateTests {
		tests = "-atc"
	}

	argv := expandArgv(g.argv, map[string]string{
		placeholderLang:  langFlag,
		placeholderRule:  ruleFlag,
		placeholderTests: tests,
		placeholderOut:   string(opts.Dir),
	}, map[string][]string{
		placeholderSchema: schema,
	})

	slog.Debug("Running generator", "service", def.ID, "language", lang, "rule", rule, "argv", argv)

	result, err := g.runner.Run(ctx, adapter.ProcessSpec{
		Argv:    argv,
		Dir:     string(opts.Dir),
		Timeout: g.timeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return artifact, fmt.Errorf("generate %s: %w", lang, err)
		}

		return artifact, newFailureError(m.FailureGeneration, lang, "", err.Error(), false)
	}

	if result.TimedOut {
		return artifact, newFailureError(m.FailureGeneration, lang, "", m.TimeoutDiagnostic, true)
	}

	if !result.Succeeded() {
		slog.Debug("Generator failed", "language", lang, "exit", result.ExitCode)
		return artifact, newFailureError(m.FailureGeneration, lang, "", result.Diagnostic(), false)
	}

	return artifact, nil
}

// schemaFiles expands directory entries into their sorted .asn and .acn files.
func (g *generator) schemaFiles(ctx context.Context, paths []m.Path) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := g.fsAdapter.FileInfo(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, string(path))
			continue
		}

		var found []string

		err = g.fsAdapter.Walk(ctx, path, false, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if fi.IsDir() {
				return nil
			}

			switch strings.ToLower(filepath.Ext(p)) {
			case ".asn", ".asn1", ".acn":
				found = append(found, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", path, err)
		}

		if len(found) == 0 {
			return nil, fmt.Errorf("schema %s: no .asn or .acn files", path)
		}

		sort.Strings(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, errors.New("no schema files")
	}

	return files, nil
}
