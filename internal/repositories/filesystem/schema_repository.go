package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/repositories"
)

// SchemaRepository implements repositories.SchemaRepository on a filesystem
type SchemaRepository struct {
	fs afero.Fs
}

// NewSchemaRepository creates a schema repository reading from fsys
func NewSchemaRepository(fsys afero.Fs) repositories.SchemaRepository {
	return &SchemaRepository{fs: fsys}
}

// Read returns the schema source at path
func (r *SchemaRepository) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := afero.ReadFile(r.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("schema %s: %w", path, repositories.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return string(data), nil
}
