package parser

import (
	"errors"
	"fmt"
	"go/format"
	"path"
	"strconv"
	"strings"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// ErrFormat is returned when the emitted source cannot be formatted
var ErrFormat = errors.New("generated source is not valid Go")

const (
	runtimeIdent  = "relstore"
	idType        = runtimeIdent + ".ID"
	externalValue = "any"
)

// GeneratorOptions configures the emitted module
type GeneratorOptions struct {
	PackageName   string               // Package clause of the generated file
	RuntimeImport string               // Import path of pkg/relstore
	LimitPolicy   relstore.LimitPolicy // Policy of limited one-to-many relations
}

// Generator generates a relation-store module from a resolved schema
type Generator struct {
	opts   GeneratorOptions
	indent string
}

// NewGenerator creates a new Generator
func NewGenerator(opts GeneratorOptions) *Generator {
	return &Generator{
		opts:   opts,
		indent: "\t",
	}
}

type conceptPlan struct {
	concept   *entities.Concept
	field     string // Store field
	typeName  string
	ctor      string
	relations []relationPlan
}

type relationPlan struct {
	relation  *entities.Relation
	field     string
	table     string
	valueType string
	docType   string
}

// Generate emits gofmt-formatted Go source. Concepts are emitted in schema order and
// relations in declaration order, so equal schemas always produce equal bytes.
func (g *Generator) Generate(schema *entities.Schema) ([]byte, error) {
	if !isIdentifier(g.opts.PackageName) {
		return nil, fmt.Errorf("invalid package name %q", g.opts.PackageName)
	}
	if g.opts.RuntimeImport == "" {
		return nil, errors.New("runtime import path is required")
	}

	plans, err := g.plan(schema)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	g.generateHeader(&sb, schema)
	g.generateStore(&sb, schema, plans)
	for _, plan := range plans {
		g.generateConcept(&sb, plan)
	}

	src := sb.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return []byte(src), fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return formatted, nil
}

// plan assigns Go names to every concept and relation
func (g *Generator) plan(schema *entities.Schema) ([]*conceptPlan, error) {
	conceptNames := newNamer()
	plans := make([]*conceptPlan, 0, len(schema.Concepts))

	for _, concept := range schema.Concepts {
		field := conceptNames.name(ExportedName(concept.Name))
		plan := &conceptPlan{
			concept:  concept,
			field:    field,
			typeName: field + "Relations",
			ctor:     "new" + field + "Relations",
		}

		relationNames := newNamer(nextIDMethod, clearRelationsMethod)
		for _, rel := range concept.Relations {
			docType, ok := schema.TargetType(rel.Target)
			if !ok {
				return nil, fmt.Errorf("concept %s: relation target %q is neither a concept nor an external type", concept.Name, rel.Target)
			}
			valueType := idType
			if schema.IsExternal(rel.Target) {
				valueType = externalValue
			}
			plan.relations = append(plan.relations, relationPlan{
				relation:  rel,
				field:     relationNames.name(ExportedName(rel.Target)),
				table:     TableName(rel.Target),
				valueType: valueType,
				docType:   docType,
			})
		}

		plans = append(plans, plan)
	}

	return plans, nil
}

// generateHeader emits the generated-code marker, package clause and runtime import
func (g *Generator) generateHeader(sb *strings.Builder, schema *entities.Schema) {
	if schema.Source != "" {
		fmt.Fprintf(sb, "// Code generated by relgen from %s. DO NOT EDIT.\n\n", schema.Source)
	} else {
		sb.WriteString("// Code generated by relgen. DO NOT EDIT.\n\n")
	}
	fmt.Fprintf(sb, "package %s\n\n", g.opts.PackageName)

	if path.Base(g.opts.RuntimeImport) == runtimeIdent {
		fmt.Fprintf(sb, "import %s\n\n", strconv.Quote(g.opts.RuntimeImport))
	} else {
		fmt.Fprintf(sb, "import %s %s\n\n", runtimeIdent, strconv.Quote(g.opts.RuntimeImport))
	}
}

// generateStore emits the Store type and its constructor
func (g *Generator) generateStore(sb *strings.Builder, schema *entities.Schema, plans []*conceptPlan) {
	sb.WriteString("// Store holds the identifier sequences and relation tables of every concept.\n")
	sb.WriteString("type Store struct {\n")
	for _, plan := range plans {
		fmt.Fprintf(sb, "%s%s *%s\n", g.indent, plan.field, plan.typeName)
	}
	sb.WriteString("}\n\n")

	sb.WriteString("// New creates an empty Store. Limit violations of one-to-many relations are reported to sink.\n")
	fmt.Fprintf(sb, "func New(sink %s.Sink) *Store {\n", runtimeIdent)
	fmt.Fprintf(sb, "%sreturn &Store{\n", g.indent)
	for _, plan := range plans {
		fmt.Fprintf(sb, "%s%s%s: %s(sink),\n", g.indent, g.indent, plan.field, plan.ctor)
	}
	fmt.Fprintf(sb, "%s}\n", g.indent)
	sb.WriteString("}\n\n")

	if len(schema.Externals) > 0 {
		sb.WriteString("// External types:\n")
		for _, ext := range schema.Externals {
			fmt.Fprintf(sb, "//   - %s is %s\n", ext.Name, ext.BackingType)
		}
		sb.WriteString("\n")
	}
}

// generateConcept emits the partition type of one concept with its accessors
func (g *Generator) generateConcept(sb *strings.Builder, plan *conceptPlan) {
	c := plan.concept

	fmt.Fprintf(sb, "// %s holds the %s identifier sequence (%s) and the relations declared on %s.\n",
		plan.typeName, c.Name, c.IdentifierType, c.Name)
	fmt.Fprintf(sb, "type %s struct {\n", plan.typeName)
	fmt.Fprintf(sb, "%spart *%s.Partition\n", g.indent, runtimeIdent)
	for _, rel := range plan.relations {
		fmt.Fprintf(sb, "\n%s// %s\n", g.indent, g.relationDoc(c, rel))
		fmt.Fprintf(sb, "%s%s *%s\n", g.indent, rel.field, g.tableType(rel))
	}
	sb.WriteString("}\n\n")

	fmt.Fprintf(sb, "func %s(sink %s.Sink) *%s {\n", plan.ctor, runtimeIdent, plan.typeName)
	fmt.Fprintf(sb, "%spart := %s.NewPartition(%s)\n", g.indent, runtimeIdent, strconv.Quote(c.Name))
	fmt.Fprintf(sb, "%sreturn &%s{\n", g.indent, plan.typeName)
	fmt.Fprintf(sb, "%s%spart: part,\n", g.indent, g.indent)
	for _, rel := range plan.relations {
		fmt.Fprintf(sb, "%s%s%s: %s,\n", g.indent, g.indent, rel.field, g.tableConstructor(rel))
	}
	fmt.Fprintf(sb, "%s}\n", g.indent)
	sb.WriteString("}\n\n")

	fmt.Fprintf(sb, "// %s returns the next %s identifier. Identifiers are never reused.\n", nextIDMethod, c.Name)
	fmt.Fprintf(sb, "func (r *%s) %s() %s {\n", plan.typeName, nextIDMethod, idType)
	fmt.Fprintf(sb, "%sreturn r.part.Next()\n", g.indent)
	sb.WriteString("}\n\n")

	fmt.Fprintf(sb, "// %s removes every relation of the %s identified by id.\n", clearRelationsMethod, c.Name)
	sb.WriteString("// The identifier sequence is not affected.\n")
	fmt.Fprintf(sb, "func (r *%s) %s(id %s) {\n", plan.typeName, clearRelationsMethod, idType)
	args := []string{"r.part", "id"}
	for _, rel := range plan.relations {
		args = append(args, "r."+rel.field)
	}
	fmt.Fprintf(sb, "%s%s.ClearAll[%s](%s)\n", g.indent, runtimeIdent, idType, strings.Join(args, ", "))
	sb.WriteString("}\n\n")
}

// relationDoc documents the multiplicity, target type and limit of a relation
func (g *Generator) relationDoc(c *entities.Concept, rel relationPlan) string {
	r := rel.relation
	doc := fmt.Sprintf("%s relates a %s to %s %s (%s)", rel.field, c.Name, r.Multiplicity, r.Target, rel.docType)
	if r.HasLimit() {
		doc += fmt.Sprintf(", at most %d", r.Limit)
	}
	return doc + "."
}

// tableType returns the Go type of a relation table
func (g *Generator) tableType(rel relationPlan) string {
	kind := "One"
	if rel.relation.Multiplicity == entities.MultiplicityMany {
		kind = "Many"
	}
	return fmt.Sprintf("%s.%s[%s, %s]", runtimeIdent, kind, idType, rel.valueType)
}

// tableConstructor returns the expression creating a relation table
func (g *Generator) tableConstructor(rel relationPlan) string {
	r := rel.relation
	if r.Multiplicity == entities.MultiplicityOne {
		return fmt.Sprintf("%s.NewOne[%s, %s](part, %s)", runtimeIdent, idType, rel.valueType, strconv.Quote(rel.table))
	}

	args := []string{"part", strconv.Quote(rel.table), "sink"}
	if r.HasLimit() {
		args = append(args,
			fmt.Sprintf("%s.WithLimit(%d)", runtimeIdent, r.Limit),
			fmt.Sprintf("%s.WithPolicy(%s.%s)", runtimeIdent, runtimeIdent, policyIdent(g.opts.LimitPolicy)))
	}
	return fmt.Sprintf("%s.NewMany[%s, %s](%s)", runtimeIdent, idType, rel.valueType, strings.Join(args, ", "))
}

// policyIdent returns the runtime identifier of a limit policy
func policyIdent(p relstore.LimitPolicy) string {
	if p == relstore.LimitWarn {
		return "LimitWarn"
	}
	return "LimitReject"
}
