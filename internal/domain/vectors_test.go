package domain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	adaptermocks "asnconform.dev/pkg/asnconform/internal/adapter/mocks"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestVectorSupplier_VectorsFor(t *testing.T) {
	def := m.ServiceDefinition{ID: m.ServiceS1, FolderSuffix: "S1"}
	path := m.Path(filepath.Join("vectors", "S1.yaml"))

	fixture := adapter.VectorFixture{
		Service: m.ServiceS1,
		Vectors: []m.TestVector{
			{ID: "v1", PDU: "TM-1-1", Value: "a"},
			{ID: "v2", PDU: "TM-1-2", Value: "b", Rules: []m.EncodingRule{m.RuleACN}},
			{ID: "v3", PDU: "TM-1-3", Value: "c", Rules: []m.EncodingRule{m.RuleUPER}},
		},
	}

	fixtures := new(adaptermocks.MockVectorFixtureAdapter)
	fixtures.On("LoadFixture", mock.Anything, path).Return(fixture, nil)

	supplier := NewVectorSupplier(fixtures, "vectors")

	tests := []struct {
		rule m.EncodingRule
		want []string
	}{
		{rule: m.RuleUPER, want: []string{"v1", "v3"}},
		{rule: m.RuleACN, want: []string{"v1", "v2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			first, err := supplier.VectorsFor(context.Background(), def, tt.rule)
			require.NoError(t, err)

			ids := make([]string, 0, len(first))
			for _, v := range first {
				ids = append(ids, v.ID)
			}

			assert.Equal(t, tt.want, ids)

			second, err := supplier.VectorsFor(context.Background(), def, tt.rule)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestVectorSupplier_NoVectors(t *testing.T) {
	def := m.ServiceDefinition{ID: m.ServiceS2, FolderSuffix: "S2"}

	t.Run("missing fixture", func(t *testing.T) {
		fixtures := new(adaptermocks.MockVectorFixtureAdapter)
		fixtures.On("LoadFixture", mock.Anything, mock.Anything).
			Return(adapter.VectorFixture{}, adapter.ErrFixtureNotFound)

		_, err := NewVectorSupplier(fixtures, "vectors").VectorsFor(context.Background(), def, m.RuleACN)
		require.ErrorIs(t, err, ErrNoTestVectors)
	})

	t.Run("no vector applies to the rule", func(t *testing.T) {
		fixtures := new(adaptermocks.MockVectorFixtureAdapter)
		fixtures.On("LoadFixture", mock.Anything, mock.Anything).Return(adapter.VectorFixture{
			Vectors: []m.TestVector{{ID: "v1", PDU: "X", Rules: []m.EncodingRule{m.RuleACN}}},
		}, nil)

		_, err := NewVectorSupplier(fixtures, "vectors").VectorsFor(context.Background(), def, m.RuleUPER)
		require.ErrorIs(t, err, ErrNoTestVectors)
	})

	t.Run("broken fixture is not an empty set", func(t *testing.T) {
		fixtures := new(adaptermocks.MockVectorFixtureAdapter)
		fixtures.On("LoadFixture", mock.Anything, mock.Anything).
			Return(adapter.VectorFixture{}, errors.New("duplicate id"))

		_, err := NewVectorSupplier(fixtures, "vectors").VectorsFor(context.Background(), def, m.RuleUPER)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoTestVectors)
	})

	t.Run("fixture of another service", func(t *testing.T) {
		fixtures := new(adaptermocks.MockVectorFixtureAdapter)
		fixtures.On("LoadFixture", mock.Anything, mock.Anything).Return(adapter.VectorFixture{
			Service: m.ServiceS3,
			Vectors: []m.TestVector{{ID: "v1", PDU: "X"}},
		}, nil)

		_, err := NewVectorSupplier(fixtures, "vectors").VectorsFor(context.Background(), def, m.RuleUPER)
		require.Error(t, err)
	})
}
