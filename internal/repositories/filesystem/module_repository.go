package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/repositories"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ModuleRepository implements repositories.ModuleRepository on a filesystem
type ModuleRepository struct {
	fs afero.Fs
}

// NewModuleRepository creates a module repository writing to fsys
func NewModuleRepository(fsys afero.Fs) repositories.ModuleRepository {
	return &ModuleRepository{fs: fsys}
}

// Write stores content at path through a temporary file and a rename, so readers
// never observe a partially written module
func (r *ModuleRepository) Write(ctx context.Context, path string, content []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	existing, err := afero.ReadFile(r.fs, path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read module %s: %w", path, err)
	}

	if err := r.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, content, filePerm); err != nil {
		return false, fmt.Errorf("failed to write module %s: %w", path, err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		_ = r.fs.Remove(tmp)
		return false, fmt.Errorf("failed to replace module %s: %w", path, err)
	}
	return true, nil
}

// Read returns the module at path
func (r *ModuleRepository) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(r.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("module %s: %w", path, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", path, err)
	}
	return data, nil
}
