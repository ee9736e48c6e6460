package parser

import (
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
)

// ASTToSchema resolves the parsed constructs into an entities.Schema.
//
// Resolution does not depend on construct order beyond the order of first mention:
// external types are collected first (a name is external when its last definition is
// backtick-quoted), then every concept mention is registered with the default identifier
// type, then definitions override identifier types (last definition wins), and finally
// relations are attached to their source concepts.
func ASTToSchema(source string, ast *SchemaAST) (*entities.Schema, Diagnostics) {
	r := &resolver{
		schema:    &entities.Schema{Source: source},
		concepts:  make(map[string]*entities.Concept),
		externals: make(map[string]*entities.ExternalType),
	}

	r.collectExternals(ast.Definitions())
	r.registerMentions(ast.Statements)
	r.applyDefinitions(ast.Definitions())
	r.attachRelations(ast.Relations())

	return r.schema, r.diagnostics
}

type resolver struct {
	schema      *entities.Schema
	concepts    map[string]*entities.Concept
	externals   map[string]*entities.ExternalType
	diagnostics Diagnostics
}

// collectExternals registers every name whose final definition is external
func (r *resolver) collectExternals(defs []*DefinitionAST) {
	last := make(map[string]*DefinitionAST, len(defs))
	var order []string
	for _, def := range defs {
		if _, seen := last[def.Concept]; !seen {
			order = append(order, def.Concept)
		}
		last[def.Concept] = def
	}

	for _, name := range order {
		def := last[name]
		if !def.External {
			continue
		}
		ext := &entities.ExternalType{Name: name, BackingType: def.Type, Line: def.Line}
		r.externals[name] = ext
		r.schema.Externals = append(r.schema.Externals, ext)
	}
}

// registerMentions creates a concept for every non-external name in order of first mention
func (r *resolver) registerMentions(stmts []StatementAST) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *DefinitionAST:
			r.mention(s.Concept, s.Line)
		case *RelationAST:
			if r.isExternal(s.Source) {
				// Reported by attachRelations; its target is not a mention either.
				continue
			}
			r.mention(s.Source, s.Line)
			r.mention(s.Target, s.Line)
		}
	}
}

func (r *resolver) mention(name string, line int) {
	if r.isExternal(name) {
		return
	}
	if _, ok := r.concepts[name]; ok {
		return
	}
	concept := &entities.Concept{
		Name:           name,
		IdentifierType: entities.DefaultIdentifierType,
		Line:           line,
	}
	r.concepts[name] = concept
	r.schema.Concepts = append(r.schema.Concepts, concept)
}

// applyDefinitions overrides identifier types, the last definition of a name wins
func (r *resolver) applyDefinitions(defs []*DefinitionAST) {
	for _, def := range defs {
		if def.External {
			continue
		}
		if concept, ok := r.concepts[def.Concept]; ok {
			concept.IdentifierType = def.Type
		}
	}
}

// attachRelations appends relations to their source concepts in declaration order
func (r *resolver) attachRelations(rels []*RelationAST) {
	for _, rel := range rels {
		if r.isExternal(rel.Source) {
			r.diagnostics.add(rel.Line, rel.Column, DiagSemantic,
				"external type %q cannot be the source of a relation; relation to %q dropped", rel.Source, rel.Target)
			continue
		}

		concept := r.concepts[rel.Source]
		if prev := findTable(concept, rel.Target); prev != nil {
			r.diagnostics.add(rel.Line, rel.Column, DiagSemantic,
				"%s already relates to %q (line %d), both would use table %q; relation dropped",
				rel.Source, prev.Target, prev.Line, TableName(rel.Target))
			continue
		}

		concept.Relations = append(concept.Relations, &entities.Relation{
			Multiplicity: rel.Multiplicity,
			Target:       rel.Target,
			Limit:        rel.Limit,
			Line:         rel.Line,
		})
	}
}

func (r *resolver) isExternal(name string) bool {
	_, ok := r.externals[name]
	return ok
}

// findTable returns the relation of concept that would share the table of target
func findTable(concept *entities.Concept, target string) *entities.Relation {
	table := TableName(target)
	for _, rel := range concept.Relations {
		if TableName(rel.Target) == table {
			return rel
		}
	}
	return nil
}
