package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

func TestExpandArgv(t *testing.T) {
	tests := []struct {
		name     string
		template []string
		values   map[string]string
		lists    map[string][]string
		want     []string
	}{
		{
			name:     "generator with tests",
			template: DefaultGeneratorArgv,
			values:   map[string]string{"{lang}": "-c", "{rule}": "-uPER", "{tests}": "-atc", "{out}": "/w/c"},
			lists:    map[string][]string{"{schema}": {"a.asn", "a.acn"}},
			want:     []string{"asn1scc", "-c", "-uPER", "-atc", "-o", "/w/c", "a.asn", "a.acn"},
		},
		{
			name:     "empty placeholder is dropped",
			template: DefaultGeneratorArgv,
			values:   map[string]string{"{lang}": "-Python", "{rule}": "-ACN", "{tests}": "", "{out}": "/w/py"},
			lists:    map[string][]string{"{schema}": {"a.asn"}},
			want:     []string{"asn1scc", "-Python", "-ACN", "-o", "/w/py", "a.asn"},
		},
		{
			name:     "placeholders inside arguments",
			template: []string{"sbt", "-batch", "run {pdu} {vector} {output}"},
			values:   map[string]string{"{pdu}": "TM-1-1", "{vector}": "v/1.val", "{output}": "v/1.bin"},
			want:     []string{"sbt", "-batch", "run TM-1-1 v/1.val v/1.bin"},
		},
		{
			name:     "unknown placeholders are kept",
			template: []string{"tool", "{other}"},
			want:     []string{"tool", "{other}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandArgv(tt.template, tt.values, tt.lists))
		})
	}
}

func TestDefaultToolchains_Valid(t *testing.T) {
	toolchains := DefaultToolchains()

	for _, lang := range m.Languages {
		tc, ok := toolchains[lang]
		require.True(t, ok, "missing toolchain for %s", lang)
		assert.NoError(t, tc.Validate())
	}
}

func TestToolchainConfig_Validate(t *testing.T) {
	err := ToolchainConfig{Output: OutputHex}.Validate()
	require.ErrorIs(t, err, ErrToolchain)

	err = ToolchainConfig{Run: []string{"x"}, Output: "xml"}.Validate()
	require.ErrorIs(t, err, ErrToolchain)
}
