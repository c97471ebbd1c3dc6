package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type spilledRun struct {
	Name     string
	Passed   bool
	Verdicts map[string]int
	Encoded  []byte
	Duration time.Duration
}

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill creates the file in dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "spill")

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Close()

		require.Equal(t, dir, filepath.Dir(spill.Path()))
		require.True(t, strings.HasSuffix(spill.Path(), ".gob"))
	})

	t.Run("empty dir falls back to the temp directory", func(t *testing.T) {
		spill, err := NewFileSpill[int]("")
		require.NoError(t, err)
		defer func() {
			_ = spill.Close()
			_ = os.Remove(spill.Path())
		}()

		require.Equal(t, filepath.Join(os.TempDir(), "filespill"), filepath.Dir(spill.Path()))
	})

	t.Run("Append and Get", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.Append("S1-uper-c-python"))
		require.NoError(t, spill.Append("S2-acn-c-scala"))

		first, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, "S1-uper-c-python", first)

		second, err := spill.Get(1)
		require.NoError(t, err)
		require.Equal(t, "S2-acn-c-scala", second)

		missing, err := spill.Get(2)
		require.Error(t, err)
		require.Empty(t, missing)
	})

	t.Run("AppendBatch and Len", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.Equal(t, uint64(0), spill.Len())
		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))
		require.Equal(t, uint64(3), spill.Len())
	})

	t.Run("Range visits items in order", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.AppendBatch([]int{10, 20, 30}))

		var got []int
		err = spill.Range(func(index uint64, item int) error {
			require.Equal(t, uint64(len(got)), index)
			got = append(got, item)

			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []int{10, 20, 30}, got)
	})

	t.Run("Range stops at the first callback error", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))

		stop := errors.New("stop")
		count := 0
		err = spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return stop
			}

			return nil
		})

		require.ErrorIs(t, err, stop)
		require.Equal(t, 2, count)
	})

	t.Run("data survives Close", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)

		require.NoError(t, spill.Append(7))
		require.NoError(t, spill.Close())

		val, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, 7, val)
	})

	t.Run("structs round trip", func(t *testing.T) {
		spill, err := NewFileSpill[spilledRun](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		run := spilledRun{
			Name:     "S1-uper-c-python",
			Passed:   false,
			Verdicts: map[string]int{"agree": 2, "mismatch": 1},
			Encoded:  []byte{0x01, 0x03},
			Duration: 1500 * time.Millisecond,
		}

		require.NoError(t, spill.Append(run))

		got, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, run, got)
	})
}

func TestFileSpill_ZeroFieldsDoNotLeakBetweenItems(t *testing.T) {
	spill, err := NewFileSpill[spilledRun](t.TempDir())
	require.NoError(t, err)
	defer spill.Close()

	require.NoError(t, spill.Append(spilledRun{Name: "a", Passed: true, Verdicts: map[string]int{"agree": 1}}))
	require.NoError(t, spill.Append(spilledRun{Name: "b"}))

	var got []spilledRun
	require.NoError(t, spill.Range(func(_ uint64, item spilledRun) error {
		got = append(got, item)
		return nil
	}))

	require.Len(t, got, 2)
	require.Equal(t, spilledRun{Name: "b"}, got[1])

	second, err := spill.Get(1)
	require.NoError(t, err)
	require.Equal(t, spilledRun{Name: "b"}, second)
}

func TestFileSpill_EdgeCases(t *testing.T) {
	t.Run("empty range", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		count := 0
		require.NoError(t, spill.Range(func(uint64, int) error {
			count++
			return nil
		}))
		require.Zero(t, count)
	})

	t.Run("get on empty spill", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		_, err = spill.Get(0)
		require.Error(t, err)
	})

	t.Run("unwritable dir", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		_, err := NewFileSpill[int](filepath.Join(blocker, "spill"))
		require.Error(t, err)
	})

	t.Run("last of many", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		for i := range 100 {
			require.NoError(t, spill.Append(i))
		}

		val, err := spill.Get(99)
		require.NoError(t, err)
		require.Equal(t, 99, val)
	})
}

func BenchmarkAppend(b *testing.B) {
	spill, err := NewFileSpill[int](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create filespill: %v", err)
	}
	defer spill.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Append(i)
	}
}

func BenchmarkRange(b *testing.B) {
	spill, err := NewFileSpill[int](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create filespill: %v", err)
	}
	defer spill.Close()

	for i := range 1000 {
		_ = spill.Append(i)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Range(func(uint64, int) error { return nil })
	}
}
