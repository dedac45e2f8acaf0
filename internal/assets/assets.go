package assets

import (
	"errors"
	"fmt"
	"regexp"
)

// MermaidTemplateName is the page diagrams are rendered in.
const MermaidTemplateName = "mermaid"

var (
	ErrPresetNotFound   = errors.New("preset not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("path traversal detected")
)

// AssetLoader loads presets (YAML) and templates (HTML) by bare name.
type AssetLoader interface {
	LoadPreset(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// kind is one family of assets: where it lives and how a miss is reported.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	presetKind   = kind{dir: "presets", ext: ".yaml", notFound: ErrPresetNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

func (k kind) missing(name string) error {
	return fmt.Errorf("%w: %q", k.notFound, name)
}

var assetName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateAssetName rejects names that could address anything but a single
// file in an asset directory.
func ValidateAssetName(name string) error {
	if !assetName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrPresetNotFound) || errors.Is(err, ErrTemplateNotFound)
}

var embedded = NewEmbeddedLoader()

// LoadPreset reads an embedded preset.
func LoadPreset(name string) (string, error) {
	return embedded.LoadPreset(name)
}

// LoadTemplate reads an embedded template.
func LoadTemplate(name string) (string, error) {
	return embedded.LoadTemplate(name)
}

// PresetNames lists the embedded presets, sorted.
func PresetNames() []string {
	return embedded.PresetNames()
}
