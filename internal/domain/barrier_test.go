package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestVectorBarrier_ReleasesWhenAllArrived(t *testing.T) {
	var released []string

	b := newVectorBarrier([]string{"v1", "v2"}, []m.Language{m.LanguageC, m.LanguagePython},
		func(id string, results map[m.Language]m.EncodingResult) {
			assert.Len(t, results, 2)
			released = append(released, id)
		})

	b.Arrive(at("v1", ok(m.LanguageC, 0x01)))
	assert.Empty(t, released)

	b.Arrive(at("v2", ok(m.LanguagePython, 0x01)))
	assert.Empty(t, released)

	b.Arrive(at("v1", ok(m.LanguagePython, 0x01)))
	assert.Equal(t, []string{"v1"}, released)
	assert.Equal(t, []string{"v2"}, b.Pending())

	b.Arrive(at("v2", ok(m.LanguageC, 0x01)))
	assert.Equal(t, []string{"v1", "v2"}, released)
	assert.Empty(t, b.Pending())
}

func TestVectorBarrier_FirstResultWins(t *testing.T) {
	var got map[m.Language]m.EncodingResult

	b := newVectorBarrier([]string{"v1"}, []m.Language{m.LanguageC, m.LanguagePython},
		func(_ string, results map[m.Language]m.EncodingResult) { got = results })

	b.Arrive(at("v1", ok(m.LanguageC, 0x01)))
	b.Arrive(at("v1", ok(m.LanguageC, 0x02)))
	b.Arrive(at("v1", ok(m.LanguageScala, 0x03)))
	b.Arrive(at("unknown", ok(m.LanguagePython, 0x01)))
	assert.Nil(t, got)

	b.Arrive(at("v1", ok(m.LanguagePython, 0x01)))
	require.NotNil(t, got)
	assert.Equal(t, m.Bytes{0x01}, got[m.LanguageC].Bytes)
}

func TestVectorBarrier_Exclude(t *testing.T) {
	released := map[string]map[m.Language]m.EncodingResult{}

	b := newVectorBarrier([]string{"v1", "v2", "v3"}, []m.Language{m.LanguageC, m.LanguagePython},
		func(id string, results map[m.Language]m.EncodingResult) { released[id] = results })

	b.Arrive(at("v1", ok(m.LanguagePython, 0x01)))
	b.Arrive(at("v2", ok(m.LanguagePython, 0x02)))

	b.Exclude(m.LanguageC, m.Failure{Kind: m.FailureBuild, Diagnostic: "no compiler"})

	require.Len(t, released, 2)
	assert.Equal(t, m.FailureBuild, released["v1"][m.LanguageC].Failure.Kind)
	assert.Equal(t, "v2", released["v2"][m.LanguageC].Failure.VectorID)
	assert.Equal(t, []string{"v3"}, b.Pending())

	b.Arrive(at("v3", ok(m.LanguagePython, 0x03)))
	assert.Len(t, released, 3)
}

func TestVectorBarrier_Concurrent(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	langs := []m.Language{m.LanguagePython, m.LanguageC, m.LanguageScala}

	var (
		mu     sync.Mutex
		counts = map[string]int{}
	)

	b := newVectorBarrier(ids, langs, func(id string, results map[m.Language]m.EncodingResult) {
		mu.Lock()
		defer mu.Unlock()

		assert.Len(t, results, len(langs))
		counts[id]++
	})

	var wg sync.WaitGroup

	for _, lang := range langs {
		for _, id := range ids {
			wg.Add(1)

			go func() {
				defer wg.Done()
				b.Arrive(at(id, ok(lang, 0x00)))
			}()
		}
	}

	wg.Wait()

	require.Len(t, counts, len(ids))

	for _, id := range ids {
		assert.Equal(t, 1, counts[id], id)
	}
}

func at(vectorID string, r m.EncodingResult) m.EncodingResult {
	r.VectorID = vectorID
	return r
}
