package parser

import (
	"strconv"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
)

// TokenSource produces tokens for the parser. *Lexer is the usual source.
type TokenSource interface {
	NextToken() *Token
}

// sliceSource replays a fixed token slice followed by EOF
type sliceSource struct {
	tokens []*Token
	pos    int
}

// NewTokenSource returns a TokenSource over tokens
func NewTokenSource(tokens []*Token) TokenSource {
	return &sliceSource{tokens: tokens}
}

func (s *sliceSource) NextToken() *Token {
	if s.pos >= len(s.tokens) {
		line := 0
		if len(s.tokens) > 0 {
			line = s.tokens[len(s.tokens)-1].Line
		}
		return &Token{Type: TOKEN_EOF, Line: line}
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok
}

// Parser parses tokens into a SchemaAST. Malformed constructs are reported and skipped.
type Parser struct {
	source      TokenSource
	current     *Token
	peek        *Token
	diagnostics Diagnostics
}

// NewParser creates a new Parser
func NewParser(source TokenSource) *Parser {
	p := &Parser{source: source}

	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()

	return p
}

// ParseSource lexes and parses input, returning lexical and structural diagnostics by position
func ParseSource(input string) (*SchemaAST, Diagnostics) {
	lexer := NewLexer(input)
	p := NewParser(lexer)
	ast := p.Parse()

	diags := append(Diagnostics{}, lexer.Diagnostics()...)
	diags = append(diags, p.Diagnostics()...)
	return ast, diags.Sorted()
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.source.NextToken()
}

// currentTokenIs checks if the current token is of the given type
func (p *Parser) currentTokenIs(t TokenType) bool {
	return p.current != nil && p.current.Type == t
}

// peekTokenIs checks if the peek token is of the given type
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peek != nil && p.peek.Type == t
}

// expectPeek checks if the next token is of the expected type and advances
func (p *Parser) expectPeek(t TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// peekError reports an unexpected peek token
func (p *Parser) peekError(t TokenType) {
	p.diagnostics.add(p.current.Line, p.current.Column, DiagStructural,
		"expected %s after %s, got %s", tokenNames[t], tokenNames[p.current.Type], tokenNames[p.peek.Type])
}

// Diagnostics returns the structural and semantic diagnostics reported by Parse
func (p *Parser) Diagnostics() Diagnostics {
	return p.diagnostics
}

// Parse parses the entire token stream. It never fails: constructs that cannot be
// parsed are reported and skipped by the smallest stride that guarantees progress.
func (p *Parser) Parse() *SchemaAST {
	schema := &SchemaAST{}

	for !p.currentTokenIs(TOKEN_EOF) {
		var stmt StatementAST
		switch p.current.Type {
		case TOKEN_DEFINITION:
			if def := p.parseDefinition(); def != nil {
				stmt = def
			}
		case TOKEN_RELATION:
			if rel := p.parseRelation(); rel != nil {
				stmt = rel
			}
		default:
			p.diagnostics.add(p.current.Line, p.current.Column, DiagStructural,
				"unexpected token %s, expected DEFINITION or RELATION", tokenNames[p.current.Type])
			p.nextToken()
			continue
		}
		if stmt != nil {
			schema.Statements = append(schema.Statements, stmt)
		}
	}

	return schema
}

// parseDefinition parses DEFINITION CONCEPT TYPE
func (p *Parser) parseDefinition() *DefinitionAST {
	if !p.expectPeek(TOKEN_CONCEPT) {
		p.nextToken()
		return nil
	}
	concept := p.current

	if !p.expectPeek(TOKEN_TYPE) {
		p.nextToken()
		return nil
	}
	typeTok := p.current
	p.nextToken()

	if !isIdentifier(concept.Value) {
		p.diagnostics.add(concept.Line, concept.Column, DiagSemantic,
			"%q is not a valid identifier; definition dropped", concept.Value)
		return nil
	}

	def := &DefinitionAST{
		Concept: concept.Value,
		Type:    typeTok.Value,
		Line:    concept.Line,
		Column:  concept.Column,
	}
	if inner, ok := unquoteExternal(typeTok.Value); ok {
		if inner == "" {
			p.diagnostics.add(typeTok.Line, typeTok.Column, DiagSemantic,
				"external type of %q is empty; definition dropped", concept.Value)
			return nil
		}
		def.Type = inner
		def.External = true
	}

	return def
}

// parseRelation parses RELATION CONCEPT TARGET [LIMIT]
func (p *Parser) parseRelation() *RelationAST {
	operator := p.current
	multiplicity := entities.MultiplicityOne
	if operator.Value == manyOperator {
		multiplicity = entities.MultiplicityMany
	}

	if !p.expectPeek(TOKEN_CONCEPT) {
		p.nextToken()
		return nil
	}
	source := p.current

	if !p.expectPeek(TOKEN_TARGET) {
		p.nextToken()
		return nil
	}
	target := p.current

	var limitTok *Token
	if p.peekTokenIs(TOKEN_LIMIT) {
		p.nextToken()
		limitTok = p.current
	}
	p.nextToken()

	for _, name := range []*Token{source, target} {
		if !isIdentifier(name.Value) {
			p.diagnostics.add(name.Line, name.Column, DiagSemantic,
				"%q is not a valid identifier; relation dropped", name.Value)
			return nil
		}
	}

	rel := &RelationAST{
		Source:       source.Value,
		Multiplicity: multiplicity,
		Target:       target.Value,
		Line:         source.Line,
		Column:       source.Column,
	}
	if limitTok != nil {
		rel.Limit = p.parseLimit(rel, limitTok)
	}

	return rel
}

// parseLimit validates a limit literal. Invalid limits degrade to "no limit".
func (p *Parser) parseLimit(rel *RelationAST, tok *Token) int {
	if rel.Multiplicity != entities.MultiplicityMany {
		p.diagnostics.add(tok.Line, tok.Column, DiagSemantic,
			"limit on one-to-one relation %s -> %s ignored", rel.Source, rel.Target)
		return 0
	}

	limit, err := strconv.Atoi(tok.Value)
	if err != nil {
		p.diagnostics.add(tok.Line, tok.Column, DiagSemantic,
			"limit %q of %s ->> %s is not a base-10 integer; relation has no limit", tok.Value, rel.Source, rel.Target)
		return 0
	}
	if limit <= 0 {
		p.diagnostics.add(tok.Line, tok.Column, DiagSemantic,
			"limit %d of %s ->> %s is not positive; relation has no limit", limit, rel.Source, rel.Target)
		return 0
	}

	return limit
}
