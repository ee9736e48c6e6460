package parser

import (
	"reflect"
	"testing"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
)

func resolve(t *testing.T, input string) (*entities.Schema, Diagnostics) {
	t.Helper()
	ast, diags := ParseSource(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	return ASTToSchema("test.rel", ast)
}

func conceptNames(schema *entities.Schema) []string {
	names := make([]string, 0, len(schema.Concepts))
	for _, c := range schema.Concepts {
		names = append(names, c.Name)
	}
	return names
}

func TestASTToSchema_ConcreteScenario(t *testing.T) {
	input := "Item :: `UUID`\nSphere -> Item\nSphere ->> Skill,limit,5"

	schema, diags := resolve(t, input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if got := conceptNames(schema); !reflect.DeepEqual(got, []string{"Sphere", "Skill"}) {
		t.Errorf("expected concepts [Sphere Skill], got %v", got)
	}
	if schema.GetConcept("Item") != nil {
		t.Error("external type Item must not be a concept")
	}
	if ext := schema.GetExternal("Item"); ext == nil || ext.BackingType != "UUID" {
		t.Errorf("expected external Item backed by UUID, got %+v", ext)
	}

	sphere := schema.GetConcept("Sphere")
	if len(sphere.Relations) != 2 {
		t.Fatalf("expected 2 relations on Sphere, got %d", len(sphere.Relations))
	}
	item := sphere.Relations[0]
	if item.Target != "Item" || item.Multiplicity != entities.MultiplicityOne || item.HasLimit() {
		t.Errorf("unexpected item relation %+v", item)
	}
	skill := sphere.Relations[1]
	if skill.Target != "Skill" || skill.Multiplicity != entities.MultiplicityMany || skill.Limit != 5 {
		t.Errorf("unexpected skill relation %+v", skill)
	}

	if got := schema.GetConcept("Skill").IdentifierType; got != entities.DefaultIdentifierType {
		t.Errorf("expected forward-referenced Skill to use %s, got %s", entities.DefaultIdentifierType, got)
	}
}

func TestASTToSchema_ForwardReferenceTakesLaterDefinition(t *testing.T) {
	schema, _ := resolve(t, "Sphere ->> Skill\nSkill :: SkillID")

	skill := schema.GetConcept("Skill")
	if skill == nil {
		t.Fatal("expected Skill concept")
	}
	if skill.IdentifierType != "SkillID" {
		t.Errorf("expected SkillID, got %s", skill.IdentifierType)
	}
}

func TestASTToSchema_LastDefinitionWins(t *testing.T) {
	schema, _ := resolve(t, "Sphere :: First\nSphere :: Second")

	if len(schema.Concepts) != 1 {
		t.Fatalf("expected a single Sphere concept, got %v", conceptNames(schema))
	}
	if got := schema.Concepts[0].IdentifierType; got != "Second" {
		t.Errorf("expected Second, got %s", got)
	}
}

func TestASTToSchema_ExternalDefinedAfterUse(t *testing.T) {
	schema, diags := resolve(t, "Sphere -> Item\nItem :: `UUID`")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if schema.GetConcept("Item") != nil {
		t.Error("Item is external even when its definition follows its use")
	}
	if got, _ := schema.TargetType("Item"); got != "UUID" {
		t.Errorf("expected Item to resolve to UUID, got %s", got)
	}
}

func TestASTToSchema_LastDefinitionDecidesExternal(t *testing.T) {
	schema, _ := resolve(t, "Item :: `UUID`\nItem :: ItemID\nGem :: GemID\nGem :: `Blob`")

	if schema.IsExternal("Item") || schema.GetConcept("Item") == nil {
		t.Error("expected Item to end up a concept")
	}
	if got := schema.GetConcept("Item").IdentifierType; got != "ItemID" {
		t.Errorf("expected ItemID, got %s", got)
	}
	if !schema.IsExternal("Gem") || schema.GetConcept("Gem") != nil {
		t.Error("expected Gem to end up external")
	}
}

func TestASTToSchema_ExternalSourceRejected(t *testing.T) {
	schema, diags := resolve(t, "Item :: `UUID`\nItem -> Owner\nSphere -> Item")

	if len(diags) != 1 || diags[0].Kind != DiagSemantic || diags[0].Line != 2 {
		t.Fatalf("expected 1 semantic diagnostic on line 2, got %v", diags)
	}
	if schema.GetConcept("Owner") != nil {
		t.Error("target of a dropped relation must not become a concept")
	}
	if got := conceptNames(schema); !reflect.DeepEqual(got, []string{"Sphere"}) {
		t.Errorf("expected concepts [Sphere], got %v", got)
	}
}

func TestASTToSchema_ConceptOrderIsFirstMention(t *testing.T) {
	input := `Mnemosphere ->> Skill
Sphere -> Mnemosphere
Skill :: Number
Alpha :: ID`

	schema, _ := resolve(t, input)
	want := []string{"Mnemosphere", "Skill", "Sphere", "Alpha"}
	if got := conceptNames(schema); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestASTToSchema_DuplicateTableDropped(t *testing.T) {
	schema, diags := resolve(t, "Sphere -> Skill\nSphere ->> Skill\nSphere ->> skill")

	sphere := schema.GetConcept("Sphere")
	if len(sphere.Relations) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(sphere.Relations))
	}
	if sphere.Relations[0].Multiplicity != entities.MultiplicityOne {
		t.Error("expected the first declaration to be kept")
	}
	if len(diags) != 2 {
		t.Errorf("expected 2 diagnostics, got %v", diags)
	}
}

func TestASTToSchema_SelfRelation(t *testing.T) {
	schema, diags := resolve(t, "Sphere ->> Sphere")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(schema.Concepts) != 1 || len(schema.Concepts[0].Relations) != 1 {
		t.Errorf("unexpected schema %+v", schema.Concepts)
	}
}

func TestASTToSchema_Deterministic(t *testing.T) {
	input := "Item :: `UUID`\nSphere -> Item\nSphere ->> Skill,limit,5\nSkill ->> Tag\nTag :: Label"

	first, _ := resolve(t, input)
	second, _ := resolve(t, input)
	if !reflect.DeepEqual(first, second) {
		t.Error("resolving the same input twice produced different schemas")
	}
}

func TestASTToSchema_RecordsFirstMentionLines(t *testing.T) {
	input := "// technosphere\nSphere -> Item\n\nItem :: `UUID`\nMnemosphere ->> Skill\nSphere :: Number"

	schema, diags := resolve(t, input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	tests := []struct {
		name string
		want int
	}{
		{name: "Sphere", want: 2},
		{name: "Mnemosphere", want: 5},
		{name: "Skill", want: 5},
	}
	for _, tt := range tests {
		if got := schema.GetConcept(tt.name).Line; got != tt.want {
			t.Errorf("expected %s first mentioned on line %d, got %d", tt.name, tt.want, got)
		}
	}
	if got := schema.GetExternal("Item").Line; got != 4 {
		t.Errorf("expected Item defined on line 4, got %d", got)
	}
}
