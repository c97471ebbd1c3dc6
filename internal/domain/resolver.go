package domain

import (
	"fmt"
	"path/filepath"
	"sort"

	m "asnconform.dev/pkg/asnconform/internal/model"
)

// SchemaResolver maps a symbolic service identifier to its schema and folder suffix.
type SchemaResolver interface {
	Resolve(id m.ServiceID) (m.ServiceDefinition, error)
	List() []m.ServiceDefinition
}

type builtinService struct {
	id     m.ServiceID
	folder string
}

// builtinServices are the PUS-C catalogs and the auxiliary test suites. Each one
// lives in <schema root>/<folder>/ holding its .asn and .acn files.
var builtinServices = []builtinService{
	{m.ServiceS1, "S1"},
	{m.ServiceS2, "S2"},
	{m.ServiceS3, "S3"},
	{m.ServiceS4, "S4"},
	{m.ServiceS5, "S5"},
	{m.ServiceS6, "S6"},
	{m.ServiceS8, "S8"},
	{m.ServiceS9, "S9"},
	{m.ServiceS11, "S11"},
	{m.ServiceS12, "S12"},
	{m.ServiceS13, "S13"},
	{m.ServiceS14, "S14"},
	{m.ServiceS15, "S15"},
	{m.ServiceS17, "S17"},
	{m.ServiceS18, "S18"},
	{m.ServiceS19, "S19"},
	{m.ServiceAdditionalTestCases, "AdditionalTestCases"},
	{m.ServicePrimitives, "Primitives"},
	{m.ServiceStructured, "Structured"},
	{m.ServiceAdvanced, "Advanced"},
	{m.ServiceACNAttributes, "AcnAttributes"},
	{m.ServiceAdditional, "Additional"},
}

type schemaResolver struct {
	services map[m.ServiceID]m.ServiceDefinition
	order    []m.ServiceID
}

// NewSchemaResolver builds the registry from the built-in services rooted at
// schemaRoot, then applies overrides. Relative override schema paths are
// resolved against schemaRoot.
func NewSchemaResolver(schemaRoot m.Path, overrides ...m.ServiceDefinition) SchemaResolver {
	r := &schemaResolver{services: make(map[m.ServiceID]m.ServiceDefinition)}

	for _, svc := range builtinServices {
		r.register(m.ServiceDefinition{
			ID:           svc.id,
			Schema:       []m.Path{m.Path(filepath.Join(string(schemaRoot), svc.folder))},
			FolderSuffix: svc.folder,
		})
	}

	for _, def := range overrides {
		if def.ID == "" {
			continue
		}

		schema := make([]m.Path, 0, len(def.Schema))
		for _, p := range def.Schema {
			if !filepath.IsAbs(string(p)) {
				p = m.Path(filepath.Join(string(schemaRoot), string(p)))
			}

			schema = append(schema, p)
		}

		if existing, ok := r.services[def.ID]; ok {
			if len(schema) == 0 {
				schema = existing.Schema
			}

			if def.FolderSuffix == "" {
				def.FolderSuffix = existing.FolderSuffix
			}
		}

		if def.FolderSuffix == "" {
			def.FolderSuffix = string(def.ID)
		}

		def.Schema = schema
		r.register(def)
	}

	return r
}

func (r *schemaResolver) register(def m.ServiceDefinition) {
	if _, ok := r.services[def.ID]; !ok {
		r.order = append(r.order, def.ID)
	}

	r.services[def.ID] = def
}

// Resolve returns the definition registered for id.
func (r *schemaResolver) Resolve(id m.ServiceID) (m.ServiceDefinition, error) {
	def, ok := r.services[id]
	if !ok {
		return m.ServiceDefinition{}, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}

	def.Schema = append([]m.Path(nil), def.Schema...)

	return def, nil
}

// List returns built-in services in catalog order followed by overrides sorted by id.
func (r *schemaResolver) List() []m.ServiceDefinition {
	builtin := len(builtinServices)
	extra := append([]m.ServiceID(nil), r.order[builtin:]...)
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	ids := append(append([]m.ServiceID(nil), r.order[:builtin]...), extra...)

	defs := make([]m.ServiceDefinition, 0, len(ids))
	for _, id := range ids {
		def, _ := r.Resolve(id)
		defs = append(defs, def)
	}

	return defs
}
