package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

const (
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF

	TOKEN_DEFINITION // "::" line marker, followed by CONCEPT and TYPE
	TOKEN_CONCEPT    // subject concept name
	TOKEN_TYPE       // identifier or `external` type name
	TOKEN_RELATION   // "->" or "->>", followed by CONCEPT, TARGET and an optional LIMIT
	TOKEN_TARGET     // related concept or external type name
	TOKEN_LIMIT      // cardinality limit literal, not yet validated
)

var tokenNames = map[TokenType]string{
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_EOF:        "EOF",
	TOKEN_DEFINITION: "DEFINITION",
	TOKEN_CONCEPT:    "CONCEPT",
	TOKEN_TYPE:       "TYPE",
	TOKEN_RELATION:   "RELATION",
	TOKEN_TARGET:     "TARGET",
	TOKEN_LIMIT:      "LIMIT",
}

const (
	defineOperator  = "::"
	oneOperator     = "->"
	manyOperator    = "->>"
	commentPrefix   = "//"
	blockSeparator  = ","
	limitBlock      = "limit"
	externalQuote   = '`'
	firstLineNumber = 1
)

// Token represents a lexical token
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// String returns a string representation of the token
func (t *Token) String() string {
	typeName := tokenNames[t.Type]
	if typeName == "" {
		typeName = fmt.Sprintf("UNKNOWN(%d)", t.Type)
	}
	return fmt.Sprintf("%s(%s) at %d:%d", typeName, t.Value, t.Line, t.Column)
}

// word is a whitespace-separated run of a line with its 1-based byte column
type word struct {
	text   string
	column int
}

// Lexer turns schema source text into tokens, one physical line at a time
type Lexer struct {
	lines       []string
	next        int      // index of the next line to scan
	pending     []*Token // tokens of the current line not yet returned
	diagnostics Diagnostics
}

// NewLexer creates a new Lexer
func NewLexer(input string) *Lexer {
	return &Lexer{
		lines: strings.Split(input, "\n"),
	}
}

// NextToken returns the next token. Once the input is exhausted it keeps returning EOF.
func (l *Lexer) NextToken() *Token {
	for len(l.pending) == 0 {
		if l.next >= len(l.lines) {
			return &Token{Type: TOKEN_EOF, Line: len(l.lines), Column: 1}
		}
		lineNo := l.next + firstLineNumber
		raw := strings.TrimSuffix(l.lines[l.next], "\r")
		l.next++
		l.pending = l.lexLine(lineNo, raw)
	}

	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok
}

// Diagnostics returns the lexical diagnostics reported so far
func (l *Lexer) Diagnostics() Diagnostics {
	return l.diagnostics
}

// Tokenize lexes the whole input. The EOF token is not included.
func Tokenize(input string) ([]*Token, Diagnostics) {
	l := NewLexer(input)
	var tokens []*Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, l.Diagnostics()
}

// lexLine lexes a single physical line
func (l *Lexer) lexLine(lineNo int, raw string) []*Token {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, commentPrefix) {
		return nil
	}

	words := splitWords(raw)
	if len(words) < 2 {
		l.diagnostics.add(lineNo, words[0].column, DiagLexical,
			"expected %q, %q or %q after %q", defineOperator, oneOperator, manyOperator, words[0].text)
		return nil
	}

	subject, operator := words[0], words[1]
	switch operator.text {
	case defineOperator:
		return l.lexDefinition(lineNo, subject, operator, words[2:])
	case oneOperator, manyOperator:
		return l.lexRelation(lineNo, subject, operator, words[2:])
	default:
		l.diagnostics.add(lineNo, operator.column, DiagLexical,
			"unrecognized operator %q, expected %q, %q or %q", operator.text, defineOperator, oneOperator, manyOperator)
		return nil
	}
}

// lexDefinition lexes "<Concept> :: <Type>"
func (l *Lexer) lexDefinition(lineNo int, subject, operator word, rest []word) []*Token {
	if len(rest) == 0 {
		l.diagnostics.add(lineNo, operator.column, DiagLexical, "definition of %q has no type", subject.text)
		return nil
	}
	if len(rest) > 1 {
		l.diagnostics.add(lineNo, rest[1].column, DiagLexical, "ignoring trailing text after type %q", rest[0].text)
	}

	return []*Token{
		{Type: TOKEN_DEFINITION, Value: operator.text, Line: lineNo, Column: operator.column},
		{Type: TOKEN_CONCEPT, Value: subject.text, Line: lineNo, Column: subject.column},
		{Type: TOKEN_TYPE, Value: rest[0].text, Line: lineNo, Column: rest[0].column},
	}
}

// lexRelation lexes "<Concept> -> <Target>" and "<Concept> ->> <Target>[,limit,<N>]".
// The remaining words are joined and split on commas into blocks; the first block is the
// target, a "limit" block captures the block after it and any other block is ignored.
func (l *Lexer) lexRelation(lineNo int, subject, operator word, rest []word) []*Token {
	l.checkTargetWords(lineNo, rest)
	joined, columns := joinWords(rest)
	blocks := splitBlocks(joined, columns)
	if len(blocks) == 0 || blocks[0].text == "" {
		l.diagnostics.add(lineNo, operator.column, DiagLexical, "relation of %q has no target", subject.text)
		return nil
	}

	tokens := []*Token{
		{Type: TOKEN_RELATION, Value: operator.text, Line: lineNo, Column: operator.column},
		{Type: TOKEN_CONCEPT, Value: subject.text, Line: lineNo, Column: subject.column},
		{Type: TOKEN_TARGET, Value: blocks[0].text, Line: lineNo, Column: blocks[0].column},
	}

	for i := 1; i < len(blocks); i++ {
		if blocks[i].text != limitBlock {
			continue
		}
		if i+1 >= len(blocks) {
			l.diagnostics.add(lineNo, blocks[i].column, DiagLexical, "%q has no value", limitBlock)
			break
		}
		value := blocks[i+1]
		tokens = append(tokens, &Token{Type: TOKEN_LIMIT, Value: value.text, Line: lineNo, Column: value.column})
		break
	}

	return tokens
}

// checkTargetWords reports a target spelled as several words. The words are still
// joined, so "Sphere -> Item Extra" relates Sphere to ItemExtra.
func (l *Lexer) checkTargetWords(lineNo int, rest []word) {
	if len(rest) < 2 || strings.Contains(rest[0].text, blockSeparator) || strings.HasPrefix(rest[1].text, blockSeparator) {
		return
	}
	l.diagnostics.add(lineNo, rest[1].column, DiagLexical,
		"target %q continues with %q without %q; the words are joined into one name", rest[0].text, rest[1].text, blockSeparator)
}

// splitWords splits a line on runs of whitespace
func splitWords(line string) []word {
	var words []word
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: line[start:i], column: start + 1})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{text: line[start:], column: start + 1})
	}
	return words
}

// joinWords concatenates words and keeps the source column of every byte
func joinWords(words []word) (string, []int) {
	var sb strings.Builder
	var columns []int
	for _, w := range words {
		sb.WriteString(w.text)
		for i := 0; i < len(w.text); i++ {
			columns = append(columns, w.column+i)
		}
	}
	return sb.String(), columns
}

// splitBlocks splits joined text on commas
func splitBlocks(joined string, columns []int) []word {
	if joined == "" {
		return nil
	}
	var blocks []word
	start := 0
	for {
		end := strings.Index(joined[start:], blockSeparator)
		if end < 0 {
			blocks = append(blocks, newBlock(joined, columns, start, len(joined)))
			return blocks
		}
		blocks = append(blocks, newBlock(joined, columns, start, start+end))
		start += end + len(blockSeparator)
	}
}

func newBlock(joined string, columns []int, start, end int) word {
	column := 0
	if start < len(columns) {
		column = columns[start]
	} else if len(columns) > 0 {
		column = columns[len(columns)-1] + 1
	}
	return word{text: joined[start:end], column: column}
}

// isIdentifier reports whether name can be emitted as a Go identifier
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// unquoteExternal strips the backticks of an external type name
func unquoteExternal(typeName string) (string, bool) {
	if len(typeName) < 2 {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(typeName)
	last, _ := utf8.DecodeLastRuneInString(typeName)
	if first != externalQuote || last != externalQuote {
		return "", false
	}
	return typeName[1 : len(typeName)-1], true
}
