package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// ErrFixtureNotFound is returned when a service has no fixture file.
var ErrFixtureNotFound = errors.New("vector fixture not found")

// VectorFixture is the on-disk list of test vectors of one service.
//
//	service: S1
//	vectors:
//	  - id: tc-1-1-accepted
//	    pdu: TM-1-1
//	    value: "{ requestId ... }"
//	    rules: [acn]
type VectorFixture struct {
	Service m.ServiceID    `yaml:"service"`
	Vectors []m.TestVector `yaml:"vectors"`
}

// VectorFixtureAdapter loads test vector fixtures.
type VectorFixtureAdapter interface {
	LoadFixture(ctx context.Context, path m.Path) (VectorFixture, error)
}

// YAMLVectorFixtureAdapter reads fixtures written in YAML.
type YAMLVectorFixtureAdapter struct{}

// NewVectorFixtureAdapter constructs a YAMLVectorFixtureAdapter.
func NewVectorFixtureAdapter() *YAMLVectorFixtureAdapter {
	return &YAMLVectorFixtureAdapter{}
}

// LoadFixture reads and validates a fixture file. Unknown fields are rejected so
// typos such as "vector:" fail loudly instead of yielding zero vectors.
func (a *YAMLVectorFixtureAdapter) LoadFixture(ctx context.Context, path m.Path) (VectorFixture, error) {
	if err := ctx.Err(); err != nil {
		return VectorFixture{}, err
	}

	// #nosec G304 - path is derived from the configured vectors directory
	data, err := os.ReadFile(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			return VectorFixture{}, fmt.Errorf("%w: %s", ErrFixtureNotFound, path)
		}

		return VectorFixture{}, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture VectorFixture

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return VectorFixture{}, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	if err := validateFixture(fixture); err != nil {
		return VectorFixture{}, fmt.Errorf("invalid fixture %s: %w", path, err)
	}

	return fixture, nil
}

func validateFixture(f VectorFixture) error {
	seen := make(map[string]bool, len(f.Vectors))

	for i, v := range f.Vectors {
		if v.ID == "" {
			return fmt.Errorf("vectors[%d]: id is required", i)
		}

		if v.PDU == "" {
			return fmt.Errorf("vectors[%d] (%s): pdu is required", i, v.ID)
		}

		if seen[v.ID] {
			return fmt.Errorf("vectors[%d]: duplicate id %q", i, v.ID)
		}

		seen[v.ID] = true

		for _, rule := range v.Rules {
			if _, err := m.ParseEncodingRule(string(rule)); err != nil {
				return fmt.Errorf("vectors[%d] (%s): %w", i, v.ID, err)
			}
		}
	}

	return nil
}
