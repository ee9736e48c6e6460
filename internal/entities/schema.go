package entities

// DefaultIdentifierType is the identifier type of a concept that no definition line names
const DefaultIdentifierType = "ID"

// Schema represents the resolved relation schema compiled from one source text
type Schema struct {
	Source    string          // Schema source path (informational, e.g. "schema/relations.rel")
	Concepts  []*Concept      // Concepts in order of first mention
	Externals []*ExternalType // External types in order of first definition
}

// GetConcept returns the concept by name
func (s *Schema) GetConcept(name string) *Concept {
	for _, c := range s.Concepts {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// GetExternal returns the external type by name
func (s *Schema) GetExternal(name string) *ExternalType {
	for _, e := range s.Externals {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// TargetType returns the type a relation target resolves to: the identifier type of a
// concept, or the backing type of an external type. ok is false for unknown names.
func (s *Schema) TargetType(name string) (typeName string, ok bool) {
	if c := s.GetConcept(name); c != nil {
		return c.IdentifierType, true
	}
	if e := s.GetExternal(name); e != nil {
		return e.BackingType, true
	}
	return "", false
}

// IsExternal reports whether name is declared as an external type
func (s *Schema) IsExternal(name string) bool {
	return s.GetExternal(name) != nil
}
