package options_test

import (
	"errors"
	"testing"

	"github.com/alnah/go-md2word/internal/options"
)

// ---------------------------------------------------------------------------
// TestDefault - Stock values
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	t.Parallel()

	o := options.Default()
	if err := o.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if !o.Table.MergeCells {
		t.Error("Table.MergeCells = false, want true")
	}
	if o.Math.Output != options.MathKatex {
		t.Errorf("Math.Output = %q, want %q", o.Math.Output, options.MathKatex)
	}
	if o.Text.LinkColor != "#0563c1" {
		t.Errorf("Text.LinkColor = %q, want %q", o.Text.LinkColor, "#0563c1")
	}
}

// ---------------------------------------------------------------------------
// TestHeadingSize - Level clamping
// ---------------------------------------------------------------------------

func TestHeadingSize(t *testing.T) {
	t.Parallel()

	o := options.Default()
	tests := []struct {
		level int
		want  float64
	}{
		{0, 16},
		{1, 16},
		{2, 14},
		{3, 13},
		{4, 12},
		{5, 11},
		{6, 10},
		{9, 10},
	}

	for _, tt := range tests {
		if got := o.HeadingSize(tt.level); got != tt.want {
			t.Errorf("HeadingSize(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestValidate - Rejected values
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*options.ConversionOptions)
	}{
		{"unknown align", func(o *options.ConversionOptions) { o.Table.DefaultAlign = "justify" }},
		{"unknown theme", func(o *options.ConversionOptions) { o.Code.Theme = "solarized" }},
		{"unknown math mode", func(o *options.ConversionOptions) { o.Math.Output = "mathml" }},
		{"zero font size", func(o *options.ConversionOptions) { o.Text.FontSize = 0 }},
		{"negative line height", func(o *options.ConversionOptions) { o.Text.LineHeight = -1 }},
		{"negative heading size", func(o *options.ConversionOptions) { o.Heading.H4Size = -2 }},
		{"named color", func(o *options.ConversionOptions) { o.Table.BorderColor = "black" }},
		{"short hex without hash", func(o *options.ConversionOptions) { o.Text.LinkColor = "fff" }},
		{"empty font", func(o *options.ConversionOptions) { o.Code.FontFamily = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := options.Default()
			tt.mutate(&o)
			if err := o.Validate(); !errors.Is(err, options.ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidate_Accepted(t *testing.T) {
	t.Parallel()

	o := options.Default()
	o.Code.Theme = "DARK"
	o.Math.Output = "UnicodeMath"
	o.Table.BorderColor = "#abc"
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if !o.Dark() {
		t.Error("Dark() = false, want true")
	}
	if o.MathMode() != options.MathUnicodeMath {
		t.Errorf("MathMode() = %q, want %q", o.MathMode(), options.MathUnicodeMath)
	}

	var nilOpts *options.ConversionOptions
	if err := nilOpts.Validate(); err != nil {
		t.Errorf("nil Validate() = %v, want nil", err)
	}
}
