// Package model defines the data structures for encoding conformance runs.
package model

// Path represents a file system path.
type Path string

// ServiceID is the symbolic tag of a schema catalog (e.g. "S1" for PUS-C service 1).
type ServiceID string

// Registered services.
const (
	ServiceS1                  ServiceID = "S1"
	ServiceS2                  ServiceID = "S2"
	ServiceS3                  ServiceID = "S3"
	ServiceS4                  ServiceID = "S4"
	ServiceS5                  ServiceID = "S5"
	ServiceS6                  ServiceID = "S6"
	ServiceS8                  ServiceID = "S8"
	ServiceS9                  ServiceID = "S9"
	ServiceS11                 ServiceID = "S11"
	ServiceS12                 ServiceID = "S12"
	ServiceS13                 ServiceID = "S13"
	ServiceS14                 ServiceID = "S14"
	ServiceS15                 ServiceID = "S15"
	ServiceS17                 ServiceID = "S17"
	ServiceS18                 ServiceID = "S18"
	ServiceS19                 ServiceID = "S19"
	ServiceAdditionalTestCases ServiceID = "ADDITIONAL_TEST_CASES"
	ServicePrimitives          ServiceID = "PRIMITIVES"
	ServiceStructured          ServiceID = "STRUCTURED"
	ServiceAdvanced            ServiceID = "ADVANCED"
	ServiceACNAttributes       ServiceID = "ACN_ATTRIBUTES"
	ServiceAdditional          ServiceID = "ADDITIONAL"
)

// ServiceDefinition locates the schema of a service and the folder its runs use.
// It is resolved once per run and never mutated.
type ServiceDefinition struct {
	ID           ServiceID `yaml:"id"`
	Schema       []Path    `yaml:"schema"`
	FolderSuffix string    `yaml:"folder_suffix"`
}
