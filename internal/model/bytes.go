package model

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Bytes is an encoded byte sequence. It renders as lowercase hex in text and YAML.
type Bytes []byte

func (b Bytes) String() string {
	return hex.EncodeToString(b)
}

// MarshalYAML implements yaml.Marshaler.
func (b Bytes) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bytes) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}

	decoded, err := hex.DecodeString(text)
	if err != nil {
		return fmt.Errorf("decode hex bytes: %w", err)
	}

	*b = decoded

	return nil
}

// Equal reports whether b and other hold the same bytes.
func (b Bytes) Equal(other Bytes) bool {
	return bytes.Equal(b, other)
}
