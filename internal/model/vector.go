package model

// TestVector is one concrete message instance shared verbatim by every backend of a run.
type TestVector struct {
	ID    string         `yaml:"id"`
	PDU   string         `yaml:"pdu"`
	Value string         `yaml:"value"`
	Rules []EncodingRule `yaml:"rules,omitempty"`
}

// AppliesTo reports whether the vector takes part in runs under rule.
// A vector without rules applies to every rule.
func (v TestVector) AppliesTo(rule EncodingRule) bool {
	if len(v.Rules) == 0 {
		return true
	}

	for _, r := range v.Rules {
		if r == rule {
			return true
		}
	}

	return false
}
