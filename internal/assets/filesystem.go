package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader serves assets from a directory on disk.
type FilesystemLoader struct {
	root string // absolute, symlinks resolved
}

var _ AssetLoader = (*FilesystemLoader)(nil)

// NewFilesystemLoader returns ErrInvalidBasePath unless basePath is a
// readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	root, err := filepath.Abs(basePath)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %s is not a readable directory: %v", ErrInvalidBasePath, root, err)
	}
	return &FilesystemLoader{root: root}, nil
}

func (f *FilesystemLoader) LoadPreset(name string) (string, error) {
	return f.read(presetKind, name)
}

func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return f.read(templateKind, name)
}

func (f *FilesystemLoader) read(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(filepath.Join(f.root, k.dir, name+k.ext))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", k.missing(name)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	case !f.contains(resolved):
		return "", fmt.Errorf("%w: %s resolves outside %s", ErrPathTraversal, name, f.root)
	}

	data, err := os.ReadFile(resolved) // #nosec G304 -- contained in root
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

func (f *FilesystemLoader) contains(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
