// Package yamlutil is the only importer of the YAML library. Config files,
// option presets and cache keys all go through it.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps decoded documents at 1 MiB.
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// Unmarshal decodes data into v. Unknown fields are ignored.
func Unmarshal(data []byte, v any) error {
	if err := checkInput(data, v); err != nil {
		return err
	}
	return decode(data, v)
}

// Marshal encodes v. Struct fields keep their declaration order, so equal
// values encode to equal bytes.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}

// MergeStrict decodes data over the current value of v. Keys present in data
// replace the matching fields at any depth and absent keys keep their value;
// a key v has no field for is an error.
func MergeStrict(data []byte, v any) error {
	if err := checkInput(data, v); err != nil {
		return err
	}

	current, err := Marshal(v)
	if err != nil {
		return err
	}
	base, overlay := map[string]any{}, map[string]any{}
	if err := decode(current, &base); err != nil {
		return err
	}
	if err := decode(data, &overlay); err != nil {
		return err
	}

	merged, err := Marshal(mergeMaps(base, overlay))
	if err != nil {
		return err
	}
	return decode(merged, v, yaml.Strict())
}

func checkInput(data []byte, v any) error {
	switch {
	case len(data) == 0:
		return ErrNilData
	case len(data) > MaxInputSize:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	case v == nil:
		return ErrNilDestination
	}
	return nil
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// mergeMaps copies overlay into base, descending into mappings present on
// both sides.
func mergeMaps(base, overlay map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for k, v := range overlay {
		sub, ok := v.(map[string]any)
		if existing, isMap := base[k].(map[string]any); ok && isMap {
			base[k] = mergeMaps(existing, sub)
			continue
		}
		base[k] = v
	}
	return base
}
