package domain

import (
	"log/slog"
	"sync"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// VectorCompleteFunc receives every backend's result for one vector.
type VectorCompleteFunc func(vectorID string, results map[m.Language]m.EncodingResult)

// vectorBarrier releases a vector once every participating backend has arrived
// for it, either with a result or by being excluded after a failed stage.
type vectorBarrier struct {
	mu         sync.Mutex
	langs      map[m.Language]bool
	arrived    map[string]map[m.Language]m.EncodingResult
	done       map[string]bool
	vectorIDs  []string
	onComplete VectorCompleteFunc
}

func newVectorBarrier(vectorIDs []string, langs []m.Language, onComplete VectorCompleteFunc) *vectorBarrier {
	b := &vectorBarrier{
		langs:      make(map[m.Language]bool, len(langs)),
		arrived:    make(map[string]map[m.Language]m.EncodingResult, len(vectorIDs)),
		done:       make(map[string]bool, len(vectorIDs)),
		vectorIDs:  vectorIDs,
		onComplete: onComplete,
	}

	for _, lang := range langs {
		b.langs[lang] = true
	}

	for _, id := range vectorIDs {
		b.arrived[id] = make(map[m.Language]m.EncodingResult, len(langs))
	}

	return b
}

// Arrive records result. The first result of a backend for a vector wins.
func (b *vectorBarrier) Arrive(result m.EncodingResult) {
	b.mu.Lock()

	complete, ok := b.record(result)

	b.mu.Unlock()

	if ok && b.onComplete != nil {
		b.onComplete(result.VectorID, complete)
	}
}

// Exclude arrives for lang at every vector it has not reported yet, carrying failure.
func (b *vectorBarrier) Exclude(lang m.Language, failure m.Failure) {
	type released struct {
		id      string
		results map[m.Language]m.EncodingResult
	}

	var ready []released

	b.mu.Lock()

	for _, id := range b.vectorIDs {
		f := failure
		f.Language = lang
		f.VectorID = id

		if complete, ok := b.record(m.EncodingResult{Language: lang, VectorID: id, Failure: &f}); ok {
			ready = append(ready, released{id: id, results: complete})
		}
	}

	b.mu.Unlock()

	if b.onComplete == nil {
		return
	}

	for _, r := range ready {
		b.onComplete(r.id, r.results)
	}
}

// record must be called with b.mu held. It returns a copy of the vector's
// results when result completed it.
func (b *vectorBarrier) record(result m.EncodingResult) (map[m.Language]m.EncodingResult, bool) {
	if !b.langs[result.Language] {
		slog.Debug("Ignoring result of non-participating backend", "language", result.Language, "vector", result.VectorID)
		return nil, false
	}

	arrived, known := b.arrived[result.VectorID]
	if !known || b.done[result.VectorID] {
		return nil, false
	}

	if _, dup := arrived[result.Language]; dup {
		return nil, false
	}

	arrived[result.Language] = result

	if len(arrived) < len(b.langs) {
		return nil, false
	}

	b.done[result.VectorID] = true

	complete := make(map[m.Language]m.EncodingResult, len(arrived))
	for lang, r := range arrived {
		complete[lang] = r
	}

	return complete, true
}

// Pending lists vectors still waiting for at least one backend.
func (b *vectorBarrier) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var pending []string

	for _, id := range b.vectorIDs {
		if !b.done[id] {
			pending = append(pending, id)
		}
	}

	return pending
}
