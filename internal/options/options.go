// Package options defines the styling and behavior settings shared by both
// renderers.
package options

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-md2word/internal/mdast"
)

// ErrInvalid indicates a ConversionOptions value failed validation.
var ErrInvalid = errors.New("invalid conversion options")

// Code themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Math output modes.
const (
	MathKatex       = "katex"
	MathLatex       = "latex"
	MathUnicodeMath = "unicodemath"
	MathText        = "text"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ConversionOptions groups every renderer setting. Values are passed by copy
// and never mutated by a renderer.
type ConversionOptions struct {
	Table   Table   `yaml:"table"`
	Code    Code    `yaml:"code"`
	Text    Text    `yaml:"text"`
	Heading Heading `yaml:"heading"`
	Math    Math    `yaml:"math"`
}

// Table configures table output.
type Table struct {
	MergeCells       bool        `yaml:"mergeCells"`
	DefaultAlign     mdast.Align `yaml:"defaultAlign"`
	HeaderBackground string      `yaml:"headerBackground"`
	BorderColor      string      `yaml:"borderColor"`
}

// Code configures code blocks.
type Code struct {
	LineNumbers bool    `yaml:"lineNumbers"`
	Theme       string  `yaml:"theme"`
	FontFamily  string  `yaml:"fontFamily"`
	FontSize    float64 `yaml:"fontSize"`
}

// Text configures body text.
type Text struct {
	FontFamily string  `yaml:"fontFamily"`
	FontSize   float64 `yaml:"fontSize"`
	LineHeight float64 `yaml:"lineHeight"`
	LinkColor  string  `yaml:"linkColor"`
}

// Heading configures heading fonts, sizes in points.
type Heading struct {
	FontFamily string  `yaml:"fontFamily"`
	H1Size     float64 `yaml:"h1Size"`
	H2Size     float64 `yaml:"h2Size"`
	H3Size     float64 `yaml:"h3Size"`
	H4Size     float64 `yaml:"h4Size"`
	H5Size     float64 `yaml:"h5Size"`
	H6Size     float64 `yaml:"h6Size"`
}

// Math selects how formulas are emitted.
type Math struct {
	Output string `yaml:"output"`
}

// Default returns the stock options.
func Default() ConversionOptions {
	return ConversionOptions{
		Table: Table{
			MergeCells:       true,
			DefaultAlign:     mdast.AlignLeft,
			HeaderBackground: "#f0f0f0",
			BorderColor:      "#000000",
		},
		Code: Code{
			LineNumbers: false,
			Theme:       ThemeLight,
			FontFamily:  "JetBrains Mono",
			FontSize:    10,
		},
		Text: Text{
			FontFamily: "Noto Serif SC",
			FontSize:   12,
			LineHeight: 1.5,
			LinkColor:  "#0563c1",
		},
		Heading: Heading{
			FontFamily: "Noto Serif SC",
			H1Size:     16,
			H2Size:     14,
			H3Size:     13,
			H4Size:     12,
			H5Size:     11,
			H6Size:     10,
		},
		Math: Math{Output: MathKatex},
	}
}

// HeadingSize returns the font size of a heading level, clamped to 1..6.
func (o *ConversionOptions) HeadingSize(level int) float64 {
	switch {
	case level <= 1:
		return o.Heading.H1Size
	case level == 2:
		return o.Heading.H2Size
	case level == 3:
		return o.Heading.H3Size
	case level == 4:
		return o.Heading.H4Size
	case level == 5:
		return o.Heading.H5Size
	}
	return o.Heading.H6Size
}

// Validate checks enumerations, sizes, colors and font names.
// Returns nil if o is nil (nil means use defaults).
func (o *ConversionOptions) Validate() error {
	if o == nil {
		return nil
	}

	switch o.Table.DefaultAlign {
	case mdast.AlignNone, mdast.AlignLeft, mdast.AlignCenter, mdast.AlignRight:
	default:
		return fmt.Errorf("%w: table.defaultAlign %q", ErrInvalid, o.Table.DefaultAlign)
	}

	switch strings.ToLower(o.Code.Theme) {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("%w: code.theme %q (must be light or dark)", ErrInvalid, o.Code.Theme)
	}

	switch strings.ToLower(o.Math.Output) {
	case MathKatex, MathLatex, MathUnicodeMath, MathText:
	default:
		return fmt.Errorf("%w: math.output %q", ErrInvalid, o.Math.Output)
	}

	sizes := []struct {
		name string
		v    float64
	}{
		{"code.fontSize", o.Code.FontSize},
		{"text.fontSize", o.Text.FontSize},
		{"text.lineHeight", o.Text.LineHeight},
		{"heading.h1Size", o.Heading.H1Size},
		{"heading.h2Size", o.Heading.H2Size},
		{"heading.h3Size", o.Heading.H3Size},
		{"heading.h4Size", o.Heading.H4Size},
		{"heading.h5Size", o.Heading.H5Size},
		{"heading.h6Size", o.Heading.H6Size},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalid, s.name, s.v)
		}
	}

	colors := []struct {
		name string
		v    string
	}{
		{"table.headerBackground", o.Table.HeaderBackground},
		{"table.borderColor", o.Table.BorderColor},
		{"text.linkColor", o.Text.LinkColor},
	}
	for _, c := range colors {
		if !hexColor.MatchString(c.v) {
			return fmt.Errorf("%w: %s %q is not a #rgb or #rrggbb color", ErrInvalid, c.name, c.v)
		}
	}

	fonts := []struct {
		name string
		v    string
	}{
		{"code.fontFamily", o.Code.FontFamily},
		{"text.fontFamily", o.Text.FontFamily},
		{"heading.fontFamily", o.Heading.FontFamily},
	}
	for _, f := range fonts {
		if strings.TrimSpace(f.v) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalid, f.name)
		}
	}

	return nil
}

// MathMode returns the normalized math output mode.
func (o *ConversionOptions) MathMode() string {
	return strings.ToLower(o.Math.Output)
}

// Dark reports whether code blocks use the dark theme.
func (o *ConversionOptions) Dark() bool {
	return strings.EqualFold(o.Code.Theme, ThemeDark)
}
