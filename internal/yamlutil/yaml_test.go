package yamlutil_test

// Notes:
// - Marshal failure needs an unmarshalable type (func, chan); not exercised.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-md2word/internal/yamlutil"
)

type inner struct {
	Size  float64 `yaml:"size"`
	Color string  `yaml:"color"`
}

type outer struct {
	Name  string   `yaml:"name"`
	On    bool     `yaml:"on"`
	Inner inner    `yaml:"inner"`
	Tags  []string `yaml:"tags"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Input guards and decoding
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
	}{
		{"valid", []byte("name: x\non: true"), &outer{}, nil},
		{"unknown field ignored", []byte("name: x\nextra: 1"), &outer{}, nil},
		{"empty data", nil, &outer{}, yamlutil.ErrNilData},
		{"nil destination", []byte("name: x"), nil, yamlutil.ErrNilDestination},
		{"too large", []byte(strings.Repeat("a", yamlutil.MaxInputSize+1)), &outer{}, yamlutil.ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergeStrict - Partial documents over existing values
// ---------------------------------------------------------------------------

func TestMergeStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want outer
	}{
		{
			name: "nested key replaced, sibling kept",
			data: "inner:\n  size: 9",
			want: outer{Name: "base", On: true, Inner: inner{Size: 9, Color: "#000000"}, Tags: []string{"a"}},
		},
		{
			name: "top level replaced",
			data: "name: other\non: false",
			want: outer{Name: "other", On: false, Inner: inner{Size: 12, Color: "#000000"}, Tags: []string{"a"}},
		},
		{
			name: "list replaced whole",
			data: "tags: [b, c]",
			want: outer{Name: "base", On: true, Inner: inner{Size: 12, Color: "#000000"}, Tags: []string{"b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := outer{Name: "base", On: true, Inner: inner{Size: 12, Color: "#000000"}, Tags: []string{"a"}}
			if err := yamlutil.MergeStrict([]byte(tt.data), &v); err != nil {
				t.Fatalf("MergeStrict() error = %v", err)
			}
			if v.Name != tt.want.Name || v.On != tt.want.On || v.Inner != tt.want.Inner || strings.Join(v.Tags, ",") != strings.Join(tt.want.Tags, ",") {
				t.Errorf("MergeStrict(%q) = %+v, want %+v", tt.data, v, tt.want)
			}
		})
	}
}

func TestMergeStrict_UnknownField(t *testing.T) {
	t.Parallel()

	v := outer{Name: "base"}
	if err := yamlutil.MergeStrict([]byte("inner:\n  weight: 3"), &v); err == nil {
		t.Error("MergeStrict() accepted an unknown nested field")
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	v := outer{Name: "x", Inner: inner{Size: 1.5, Color: "#fff"}}
	a, err := yamlutil.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, _ := yamlutil.Marshal(v)
	if string(a) != string(b) {
		t.Errorf("Marshal() not stable: %q vs %q", a, b)
	}
	var back outer
	if err := yamlutil.Unmarshal(a, &back); err != nil || back.Inner.Color != "#fff" {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}
