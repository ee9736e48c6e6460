package repositories

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a schema source does not exist
var ErrNotFound = errors.New("not found")

// SchemaRepository defines the interface for reading schema sources
type SchemaRepository interface {
	// Read returns the schema source stored at path
	Read(ctx context.Context, path string) (string, error)
}

// ModuleRepository defines the interface for storing generated modules
type ModuleRepository interface {
	// Write stores content at path. It reports whether the stored content changed;
	// identical content is not rewritten.
	Write(ctx context.Context, path string, content []byte) (bool, error)

	// Read returns the module stored at path
	Read(ctx context.Context, path string) ([]byte, error)
}
