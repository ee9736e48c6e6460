package entities

// Concept represents a named entity type that owns an identifier sequence
// Example: "Sphere :: ID" or a placeholder created by "Mnemosphere ->> Skill"
type Concept struct {
	Name           string      // Concept name (case-sensitive, e.g. "Sphere")
	IdentifierType string      // Backing identifier type, DefaultIdentifierType unless defined
	Relations      []*Relation // Outgoing relations in declaration order
	Line           int         // Source line of the first mention
}
