package parser

import "github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"

// SchemaAST represents the parsed schema: its constructs in source order
type SchemaAST struct {
	Statements []StatementAST
}

// StatementAST is the interface for all schema constructs
type StatementAST interface {
	isStatement()
	Pos() (line, column int)
}

// DefinitionAST represents a type definition line
// Example: "Sphere :: ID" or "Item :: `UUID`"
type DefinitionAST struct {
	Concept  string // Defined name
	Type     string // Type name, backticks stripped for external types
	External bool   // Type was backtick-quoted
	Line     int
	Column   int
}

func (d *DefinitionAST) isStatement() {}

// Pos returns the position of the defined name
func (d *DefinitionAST) Pos() (int, int) { return d.Line, d.Column }

// RelationAST represents a relation line
// Example: "Sphere -> Item" or "Mnemosphere ->> Skill,limit,5"
type RelationAST struct {
	Source       string
	Multiplicity entities.Multiplicity
	Target       string
	Limit        int // 0 when absent or discarded
	Line         int
	Column       int
}

func (r *RelationAST) isStatement() {}

// Pos returns the position of the source name
func (r *RelationAST) Pos() (int, int) { return r.Line, r.Column }

// Definitions returns the definition statements in source order
func (s *SchemaAST) Definitions() []*DefinitionAST {
	var defs []*DefinitionAST
	for _, stmt := range s.Statements {
		if d, ok := stmt.(*DefinitionAST); ok {
			defs = append(defs, d)
		}
	}
	return defs
}

// Relations returns the relation statements in source order
func (s *SchemaAST) Relations() []*RelationAST {
	var rels []*RelationAST
	for _, stmt := range s.Statements {
		if r, ok := stmt.(*RelationAST); ok {
			rels = append(rels, r)
		}
	}
	return rels
}
