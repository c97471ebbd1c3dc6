package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"asnconform.dev/pkg/asnconform/internal/adapter"
	m "asnconform.dev/pkg/asnconform/internal/model"
)

// VectorSupplier returns the test vectors of a service for one encoding rule.
type VectorSupplier interface {
	VectorsFor(ctx context.Context, def m.ServiceDefinition, rule m.EncodingRule) ([]m.TestVector, error)
}

type vectorSupplier struct {
	fixtures adapter.VectorFixtureAdapter
	dir      m.Path
}

// NewVectorSupplier reads fixtures named <FolderSuffix>.yaml from dir.
func NewVectorSupplier(fixtures adapter.VectorFixtureAdapter, dir m.Path) VectorSupplier {
	return &vectorSupplier{
		fixtures: fixtures,
		dir:      dir,
	}
}

// VectorsFor returns the fixture's vectors applicable to rule in file order.
// It returns ErrNoTestVectors when none apply or the service has no fixture.
func (s *vectorSupplier) VectorsFor(ctx context.Context, def m.ServiceDefinition, rule m.EncodingRule) ([]m.TestVector, error) {
	path := m.Path(filepath.Join(string(s.dir), def.FolderSuffix+".yaml"))

	fixture, err := s.fixtures.LoadFixture(ctx, path)
	if err != nil {
		if errors.Is(err, adapter.ErrFixtureNotFound) {
			return nil, fmt.Errorf("%w: %s has no fixture at %s", ErrNoTestVectors, def.ID, path)
		}

		slog.Error("Failed to load vector fixture", "service", def.ID, "path", path, "error", err)

		return nil, fmt.Errorf("load vectors for %s: %w", def.ID, err)
	}

	if fixture.Service != "" && fixture.Service != def.ID {
		return nil, fmt.Errorf("load vectors for %s: fixture %s belongs to %s", def.ID, path, fixture.Service)
	}

	vectors := make([]m.TestVector, 0, len(fixture.Vectors))

	for _, v := range fixture.Vectors {
		if v.AppliesTo(rule) {
			vectors = append(vectors, v)
		}
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: %s under %s", ErrNoTestVectors, def.ID, rule)
	}

	return vectors, nil
}
