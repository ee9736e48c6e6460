package entities

// ExternalType represents a type alias supplied by the host environment
// Example: "Item :: `UUID`"
type ExternalType struct {
	Name        string // Name used as a relation target (e.g. "Item")
	BackingType string // Host type name without backticks (e.g. "UUID")
	Line        int    // Source line of the definition that made the name external
}
