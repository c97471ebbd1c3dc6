package model

// GeneratedArtifact is the generated source tree of one (service, language) pair.
// The generator creates it; the driver owns it until the run ends.
type GeneratedArtifact struct {
	Service  ServiceID
	Language Language
	Rule     EncodingRule
	Dir      Path
	Built    bool
}
