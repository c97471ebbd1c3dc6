package domain

import (
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// Comparator decides whether the backends of a run agree on one vector.
type Comparator interface {
	Compare(vectorID string, results map[m.Language]m.EncodingResult) m.ComparisonVerdict
}

type comparator struct{}

// NewComparator constructs a Comparator.
func NewComparator() Comparator {
	return &comparator{}
}

// Compare excludes failed results and compares the remaining byte sequences.
// The verdict does not depend on map iteration order.
func (c *comparator) Compare(vectorID string, results map[m.Language]m.EncodingResult) m.ComparisonVerdict {
	encodings := make(map[m.Language]m.Bytes, len(results))
	for lang, result := range results {
		if result.OK() {
			encodings[lang] = result.Bytes
		}
	}

	participants := make([]m.Language, 0, len(encodings))
	for lang := range encodings {
		participants = append(participants, lang)
	}

	sortByLanguageOrder(participants)

	verdict := m.ComparisonVerdict{
		VectorID:     vectorID,
		Participants: participants,
	}

	if len(participants) < 2 {
		verdict.Kind = m.Inconclusive
		return verdict
	}

	first := encodings[participants[0]]

	agree := true
	for _, lang := range participants[1:] {
		if !first.Equal(encodings[lang]) {
			agree = false
			break
		}
	}

	if agree {
		verdict.Kind = m.Agree
		verdict.Canonical = append(m.Bytes{}, first...)

		return verdict
	}

	verdict.Kind = m.Mismatch
	verdict.Offset = divergenceOffset(participants, encodings)
	verdict.Values = make(map[m.Language]m.ByteAt, len(participants))

	for _, lang := range participants {
		verdict.Values[lang] = byteAt(encodings[lang], verdict.Offset)
	}

	reference := referenceGroup(participants, encodings)

	for _, lang := range participants {
		if !encodings[lang].Equal(encodings[reference]) {
			verdict.Divergent = append(verdict.Divergent, lang)
		}
	}

	verdict.Diff = hexDiff(reference, encodings[reference], verdict.Divergent, encodings)

	slog.Debug("Encodings diverge", "vector", vectorID, "offset", verdict.Offset, "divergent", verdict.Divergent)

	return verdict
}

// divergenceOffset returns the lowest index at which any two encodings differ,
// counting the end of a shorter encoding as a difference.
func divergenceOffset(langs []m.Language, encodings map[m.Language]m.Bytes) int {
	longest := 0
	for _, lang := range langs {
		longest = max(longest, len(encodings[lang]))
	}

	for offset := 0; offset < longest; offset++ {
		want := byteAt(encodings[langs[0]], offset)

		for _, lang := range langs[1:] {
			if byteAt(encodings[lang], offset) != want {
				return offset
			}
		}
	}

	return longest
}

func byteAt(b m.Bytes, offset int) m.ByteAt {
	if offset >= len(b) {
		return m.ByteAt{}
	}

	return m.ByteAt{Value: b[offset], Present: true}
}

// referenceGroup returns a member of the largest group of identical encodings.
// Ties go to the group holding the earliest language.
func referenceGroup(langs []m.Language, encodings map[m.Language]m.Bytes) m.Language {
	best := langs[0]
	bestSize := 0

	for _, lang := range langs {
		size := 0

		for _, other := range langs {
			if encodings[lang].Equal(encodings[other]) {
				size++
			}
		}

		if size > bestSize {
			best, bestSize = lang, size
		}
	}

	return best
}

func hexDiff(reference m.Language, want m.Bytes, divergent []m.Language, encodings map[m.Language]m.Bytes) string {
	var sb strings.Builder

	for _, lang := range divergent {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(hex.Dump(want)),
			B:        difflib.SplitLines(hex.Dump(encodings[lang])),
			FromFile: string(reference),
			ToFile:   string(lang),
			Context:  1,
		})
		if err != nil {
			slog.Error("Failed to render encoding diff", "language", lang, "error", err)
			continue
		}

		sb.WriteString(diff)
	}

	return sb.String()
}

// sortByLanguageOrder orders languages as m.Languages does; unknown languages go last.
func sortByLanguageOrder(langs []m.Language) {
	sort.SliceStable(langs, func(i, j int) bool {
		return languageLess(langs[i], langs[j])
	})
}

func languageLess(a, b m.Language) bool {
	ra, rb := languageRank(a), languageRank(b)
	if ra != rb {
		return ra < rb
	}

	return a < b
}

func languageRank(lang m.Language) int {
	for i, known := range m.Languages {
		if known == lang {
			return i
		}
	}

	return len(m.Languages)
}
