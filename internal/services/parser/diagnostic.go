package parser

import (
	"fmt"
	"sort"
)

// DiagnosticKind classifies a diagnostic
type DiagnosticKind string

const (
	// DiagLexical reports a line the lexer could not recognize
	DiagLexical DiagnosticKind = "lexical"
	// DiagStructural reports a token sequence that does not form a construct
	DiagStructural DiagnosticKind = "structural"
	// DiagSemantic reports a construct that was softened or dropped during resolution
	DiagSemantic DiagnosticKind = "semantic"
)

// Diagnostic is a non-fatal problem found while compiling a schema
type Diagnostic struct {
	Line    int
	Column  int
	Kind    DiagnosticKind
	Message string
}

// String returns "line:column: kind: message"
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Kind, d.Message)
}

// Diagnostics is an ordered list of diagnostics
type Diagnostics []Diagnostic

func (d *Diagnostics) add(line, column int, kind DiagnosticKind, format string, args ...any) {
	*d = append(*d, Diagnostic{
		Line:    line,
		Column:  column,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// OfKind returns the diagnostics of the given kind
func (d Diagnostics) OfKind(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Kind == kind {
			out = append(out, diag)
		}
	}
	return out
}

// Sorted returns a copy ordered by position. Diagnostics on the same position keep their order.
func (d Diagnostics) Sorted() Diagnostics {
	out := make(Diagnostics, len(d))
	copy(out, d)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}
