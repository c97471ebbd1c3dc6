package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// skipWildcard matches any service, rule, or language in a skip entry.
const skipWildcard = "*"

// MatrixConfig selects the (service × language pair × rule) cases of a matrix run.
type MatrixConfig struct {
	// Services defaults to every registered service when empty.
	Services []m.ServiceID
	Pairs    [][]m.Language
	Rules    []m.EncodingRule
	// Skip lists known-broken combinations as SERVICE/RULE/LANGUAGE, each part
	// optionally "*". A case is skipped when any of its languages matches.
	Skip        []string
	CreateTests bool
	Compare     bool
}

// DefaultMatrixPairs compares every backend against every other one.
var DefaultMatrixPairs = [][]m.Language{
	{m.LanguagePython, m.LanguageC},
	{m.LanguagePython, m.LanguageScala},
	{m.LanguageC, m.LanguageScala},
}

// DefaultMatrixSkip lists combinations the generator is known to get wrong.
var DefaultMatrixSkip = []string{
	"S12/*/c",
	"S12/*/scala",
	"ADDITIONAL_TEST_CASES/*/*",
}

// MatrixCase is one RunTestService invocation of a matrix.
type MatrixCase struct {
	Service      m.ServiceID
	FolderSuffix string
	Variation    m.Variation
}

// Key identifies the case in logs and sort order.
func (c MatrixCase) Key() string {
	langs := make([]string, 0, len(c.Variation.Languages))
	for _, lang := range c.Variation.Languages {
		langs = append(langs, string(lang))
	}

	return fmt.Sprintf("%s/%s/%s", c.Service, c.Variation.Rule, strings.Join(langs, "+"))
}

// ExpandMatrix validates cfg and returns its cases sorted by key. Each case
// gets its own folder suffix so cases never share a workspace.
func ExpandMatrix(cfg MatrixConfig, resolver SchemaResolver) ([]MatrixCase, error) {
	services := cfg.Services
	if len(services) == 0 {
		for _, def := range resolver.List() {
			services = append(services, def.ID)
		}
	}

	pairs := cfg.Pairs
	if len(pairs) == 0 {
		pairs = DefaultMatrixPairs
	}

	rules := cfg.Rules
	if len(rules) == 0 {
		rules = []m.EncodingRule{m.RuleUPER, m.RuleACN}
	}

	skip, err := parseSkipEntries(cfg.Skip)
	if err != nil {
		return nil, err
	}

	var cases []MatrixCase

	for _, id := range services {
		def, err := resolver.Resolve(id)
		if err != nil {
			return nil, err
		}

		for _, rule := range rules {
			for _, pair := range pairs {
				variation := m.Variation{
					Languages:        append([]m.Language(nil), pair...),
					Rule:             rule,
					CreateTests:      cfg.CreateTests,
					CompareEncodings: cfg.Compare,
				}

				if err := variation.Validate(); err != nil {
					return nil, fmt.Errorf("matrix pair %v: %w", pair, err)
				}

				c := MatrixCase{
					Service:      def.ID,
					FolderSuffix: caseFolderSuffix(def.FolderSuffix, variation),
					Variation:    variation,
				}

				if skipped(skip, c) {
					slog.Debug("Skipping matrix case", "case", c.Key())
					continue
				}

				cases = append(cases, c)
			}
		}
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].Key() < cases[j].Key() })

	return cases, nil
}

func caseFolderSuffix(folder string, v m.Variation) string {
	parts := []string{folder, string(v.Rule)}
	for _, lang := range v.Languages {
		parts = append(parts, string(lang))
	}

	return strings.Join(parts, "_")
}

type skipEntry struct {
	service string
	rule    string
	lang    string
}

func parseSkipEntries(entries []string) ([]skipEntry, error) {
	parsed := make([]skipEntry, 0, len(entries))

	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("matrix skip entry %q: want SERVICE/RULE/LANGUAGE", entry)
		}

		parsed = append(parsed, skipEntry{
			service: parts[0],
			rule:    strings.ToLower(parts[1]),
			lang:    strings.ToLower(parts[2]),
		})
	}

	return parsed, nil
}

func skipped(entries []skipEntry, c MatrixCase) bool {
	for _, e := range entries {
		if e.service != skipWildcard && e.service != string(c.Service) {
			continue
		}

		if e.rule != skipWildcard && e.rule != string(c.Variation.Rule) {
			continue
		}

		if e.lang == skipWildcard {
			return true
		}

		for _, lang := range c.Variation.Languages {
			if e.lang == string(lang) {
				return true
			}
		}
	}

	return false
}

// MatrixStreamer defines the interface for streaming matrix cases.
type MatrixStreamer interface {
	Get(ctx context.Context, cases []MatrixCase, threads int) <-chan MatrixCase
	ShardCases(ctx context.Context, allCases <-chan MatrixCase, threads int, shardIndex, totalShardCount int) <-chan MatrixCase
}

type matrixStreamer struct{}

// NewMatrixStreamer creates a new MatrixStreamer.
func NewMatrixStreamer() MatrixStreamer {
	return &matrixStreamer{}
}

// Get streams cases in order. The channel closes when done or when ctx is cancelled.
func (ms *matrixStreamer) Get(ctx context.Context, cases []MatrixCase, threads int) <-chan MatrixCase {
	slog.Debug("Starting matrix streaming", "cases", len(cases), "threads", threads)
	ch := make(chan MatrixCase, ms.normalizeBufferSize(threads))

	go func() {
		defer close(ch)

		for _, c := range cases {
			select {
			case <-ctx.Done():
				slog.Debug("Matrix streaming cancelled")
				return
			case ch <- c:
			}
		}
	}()

	return ch
}

func (ms *matrixStreamer) normalizeBufferSize(threads int) int {
	if threads <= 0 {
		return 1
	}

	return threads
}

// ShardCases streams only the cases that belong to the given shard.
func (ms *matrixStreamer) ShardCases(ctx context.Context, allCases <-chan MatrixCase, threads int, shardIndex, totalShardCount int) <-chan MatrixCase {
	ch := make(chan MatrixCase, ms.normalizeBufferSize(threads))

	go func() {
		defer close(ch)

		if totalShardCount <= 0 {
			slog.Debug("Sharding disabled, passing through all cases")
			ms.passThroughCases(ctx, allCases, ch)

			return
		}

		slog.Debug("Starting matrix sharding", "shardIndex", shardIndex, "totalShardCount", totalShardCount)
		ms.filterCasesByShard(ctx, allCases, ch, shardIndex, totalShardCount)
	}()

	return ch
}

func (ms *matrixStreamer) passThroughCases(ctx context.Context, in <-chan MatrixCase, out chan<- MatrixCase) {
	for c := range in {
		select {
		case <-ctx.Done():
			slog.Debug("Matrix pass-through cancelled")
			return
		case out <- c:
		}
	}
}

// filterCasesByShard assigns cases to shards round-robin.
func (ms *matrixStreamer) filterCasesByShard(ctx context.Context, in <-chan MatrixCase, out chan<- MatrixCase, shardIndex, totalShardCount int) {
	index := 0

	for c := range in {
		select {
		case <-ctx.Done():
			slog.Debug("Matrix sharding cancelled")
			return
		default:
		}

		if index%totalShardCount == shardIndex {
			select {
			case <-ctx.Done():
				return
			case out <- c:
			}
		}

		index++
	}
}
