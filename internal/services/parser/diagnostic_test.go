package parser

import (
	"strings"
	"testing"
)

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Line: 3, Column: 7, Kind: DiagSemantic, Message: "limit on one-to-one relation ignored"}

	want := "3:7: semantic: limit on one-to-one relation ignored"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDiagnostics_OfKind(t *testing.T) {
	var diags Diagnostics
	diags.add(1, 1, DiagLexical, "a")
	diags.add(2, 1, DiagSemantic, "b")
	diags.add(3, 1, DiagLexical, "c")

	lexical := diags.OfKind(DiagLexical)
	if len(lexical) != 2 || lexical[0].Message != "a" || lexical[1].Message != "c" {
		t.Errorf("unexpected lexical diagnostics: %v", lexical)
	}
	if got := diags.OfKind(DiagStructural); len(got) != 0 {
		t.Errorf("expected no structural diagnostics, got %v", got)
	}
}

func TestDiagnostics_Sorted(t *testing.T) {
	diags := Diagnostics{
		{Line: 4, Column: 1, Message: "d"},
		{Line: 2, Column: 9, Message: "c"},
		{Line: 2, Column: 3, Message: "a"},
		{Line: 2, Column: 3, Message: "b"},
	}

	sorted := diags.Sorted()

	var got []string
	for _, d := range sorted {
		got = append(got, d.Message)
	}
	if strings.Join(got, "") != "abcd" {
		t.Errorf("expected order abcd, got %v", got)
	}
	if diags[0].Message != "d" {
		t.Error("Sorted must not reorder the receiver")
	}
}
