package adapter

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestYAMLVectorFixtureAdapter_LoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "S1.yaml")
	writeTestFile(t, path, `
service: S1
vectors:
  - id: tm-1-1
    pdu: TM-1-1
    value: "{ requestId { packetVersionNumber 0 } }"
  - id: tm-1-2
    pdu: TM-1-2
    value: "{ failureNotice { code 7 } }"
    rules: [acn]
`)

	fixture, err := NewVectorFixtureAdapter().LoadFixture(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}

	if fixture.Service != m.ServiceS1 {
		t.Fatalf("LoadFixture() service = %s", fixture.Service)
	}

	if len(fixture.Vectors) != 2 || fixture.Vectors[0].ID != "tm-1-1" || fixture.Vectors[1].ID != "tm-1-2" {
		t.Fatalf("LoadFixture() vectors = %+v", fixture.Vectors)
	}

	if fixture.Vectors[1].AppliesTo(m.RuleUPER) {
		t.Fatalf("LoadFixture() lost rule restriction")
	}
}

func TestYAMLVectorFixtureAdapter_LoadFixture_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "service: S1\nvector: []\n", "field vector not found"},
		{"missing id", "vectors:\n  - pdu: X\n", "id is required"},
		{"missing pdu", "vectors:\n  - id: a\n", "pdu is required"},
		{"duplicate id", "vectors:\n  - {id: a, pdu: X}\n  - {id: a, pdu: Y}\n", "duplicate id"},
		{"unknown rule", "vectors:\n  - {id: a, pdu: X, rules: [ber]}\n", "unknown encoding rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixture.yaml")
			writeTestFile(t, path, tt.content)

			_, err := NewVectorFixtureAdapter().LoadFixture(context.Background(), m.Path(path))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFixture() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestYAMLVectorFixtureAdapter_LoadFixture_Missing(t *testing.T) {
	_, err := NewVectorFixtureAdapter().LoadFixture(context.Background(), m.Path(filepath.Join(t.TempDir(), "S9.yaml")))
	if !errors.Is(err, ErrFixtureNotFound) {
		t.Fatalf("LoadFixture() error = %v, want ErrFixtureNotFound", err)
	}
}

func TestYAMLVectorFixtureAdapter_LoadFixture_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeTestFile(t, path, "")

	fixture, err := NewVectorFixtureAdapter().LoadFixture(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}

	if len(fixture.Vectors) != 0 {
		t.Fatalf("LoadFixture() vectors = %d, want 0", len(fixture.Vectors))
	}
}
