package parser

import (
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
)

// Method names of generated concept partitions; relation fields must not shadow them
const (
	nextIDMethod         = "GetNextID"
	clearRelationsMethod = "ClearRelations"
)

// Validator checks the invariants the generator relies on
type Validator struct {
	schema      *entities.Schema
	diagnostics Diagnostics
}

// NewValidator creates a new Validator
func NewValidator(schema *entities.Schema) *Validator {
	return &Validator{schema: schema}
}

// Validate validates the schema and returns every violation found.
// A schema produced by ASTToSchema only ever reports naming collisions, which the
// generator resolves by suffixing the emitted identifier.
func (v *Validator) Validate() Diagnostics {
	v.diagnostics = nil
	v.validateNames()
	v.validateRelations()
	v.validateExportedNames()
	return v.diagnostics
}

// validateNames checks uniqueness and identifier validity of concepts and external types
func (v *Validator) validateNames() {
	seen := make(map[string]bool)
	for _, concept := range v.schema.Concepts {
		if seen[concept.Name] {
			v.diagnostics.add(concept.Line, 0, DiagSemantic, "duplicate concept name: %s", concept.Name)
		}
		seen[concept.Name] = true
		if !isIdentifier(concept.Name) {
			v.diagnostics.add(concept.Line, 0, DiagSemantic, "concept name %q is not a valid identifier", concept.Name)
		}
		if v.schema.IsExternal(concept.Name) {
			v.diagnostics.add(concept.Line, 0, DiagSemantic, "%s is both a concept and an external type", concept.Name)
		}
	}

	for _, ext := range v.schema.Externals {
		if !isIdentifier(ext.Name) {
			v.diagnostics.add(ext.Line, 0, DiagSemantic, "external type name %q is not a valid identifier", ext.Name)
		}
	}
}

// validateRelations checks targets, limits and table names of every relation
func (v *Validator) validateRelations() {
	for _, concept := range v.schema.Concepts {
		tables := make(map[string]*entities.Relation)
		for _, rel := range concept.Relations {
			if _, ok := v.schema.TargetType(rel.Target); !ok {
				v.diagnostics.add(rel.Line, 0, DiagSemantic,
					"%s %s %s references an unknown target", concept.Name, rel.Multiplicity.Operator(), rel.Target)
			}

			if rel.Limit < 0 {
				v.diagnostics.add(rel.Line, 0, DiagSemantic,
					"%s %s %s has a negative limit %d", concept.Name, rel.Multiplicity.Operator(), rel.Target, rel.Limit)
			}
			if rel.Multiplicity == entities.MultiplicityOne && rel.Limit != 0 {
				v.diagnostics.add(rel.Line, 0, DiagSemantic,
					"%s -> %s is one-to-one and cannot carry a limit", concept.Name, rel.Target)
			}

			table := TableName(rel.Target)
			if prev, ok := tables[table]; ok {
				v.diagnostics.add(rel.Line, 0, DiagSemantic,
					"%s relations to %q and %q share table %q", concept.Name, prev.Target, rel.Target, table)
			}
			tables[table] = rel

			if field := ExportedName(rel.Target); field == nextIDMethod || field == clearRelationsMethod {
				v.diagnostics.add(rel.Line, 0, DiagSemantic,
					"%s relation field %s collides with a generated method and will be renamed", concept.Name, field)
			}
		}
	}
}

// validateExportedNames reports concepts whose exported Go names collide
func (v *Validator) validateExportedNames() {
	owners := make(map[string]string)
	for _, concept := range v.schema.Concepts {
		exported := ExportedName(concept.Name)
		if owner, ok := owners[exported]; ok && owner != concept.Name {
			v.diagnostics.add(concept.Line, 0, DiagSemantic,
				"concepts %s and %s share the exported name %s; %s will be renamed", owner, concept.Name, exported, concept.Name)
			continue
		}
		owners[exported] = concept.Name
	}
}
