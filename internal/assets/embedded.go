package assets

import (
	"embed"
	"io/fs"
	"slices"
	"strings"
)

//go:embed presets/*.yaml templates/*.html
var files embed.FS

// EmbeddedLoader serves the assets compiled into the binary.
type EmbeddedLoader struct{}

var _ AssetLoader = (*EmbeddedLoader)(nil)

func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

func (e *EmbeddedLoader) LoadPreset(name string) (string, error) {
	return e.read(presetKind, name)
}

func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return e.read(templateKind, name)
}

func (e *EmbeddedLoader) read(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	// embed.FS paths always use forward slashes.
	data, err := files.ReadFile(k.dir + "/" + name + k.ext)
	if err != nil {
		return "", k.missing(name)
	}
	return string(data), nil
}

// PresetNames lists the embedded presets, sorted.
func (e *EmbeddedLoader) PresetNames() []string {
	entries, err := fs.ReadDir(files, presetKind.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), presetKind.ext))
	}
	slices.Sort(names)
	return names
}
