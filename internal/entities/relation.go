package entities

// Multiplicity is the number of target values a relation holds per source identifier
type Multiplicity int

const (
	MultiplicityOne  Multiplicity = iota // "->"
	MultiplicityMany                     // "->>"
)

// String returns "one" or "many"
func (m Multiplicity) String() string {
	if m == MultiplicityMany {
		return "many"
	}
	return "one"
}

// Operator returns the schema operator of the multiplicity
func (m Multiplicity) Operator() string {
	if m == MultiplicityMany {
		return "->>"
	}
	return "->"
}

// Relation represents a directed relation declared on a concept
// Example: "Sphere -> Item" or "Mnemosphere ->> Skill,limit,5"
type Relation struct {
	Multiplicity Multiplicity
	Target       string // Target concept or external type name
	Limit        int    // Cardinality limit for many relations, 0 means no limit
	Line         int    // Source line of the declaration
}

// HasLimit reports whether the relation carries a cardinality limit
func (r *Relation) HasLimit() bool {
	return r.Multiplicity == MultiplicityMany && r.Limit > 0
}
