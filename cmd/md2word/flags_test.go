package main

import (
	"errors"
	"testing"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParseConvertFlags - Flag values and positional arguments
// ---------------------------------------------------------------------------

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	args := []string{
		"doc.md",
		"-f", "html",
		"-o", "out",
		"-w", "3",
		"-t", "45s",
		"--preset", "academic",
		"--math", "unicodemath",
		"--theme", "dark",
		"--font", "Arial",
		"--no-merge",
		"--line-numbers",
		"--title", "Report",
		"--author", "Ada",
		"--no-diagrams",
		"--strip-math",
		"-c", "team",
		"-q",
		"-v",
	}

	f, positional, err := parseConvertFlags(args)
	if err != nil {
		t.Fatalf("parseConvertFlags() error = %v", err)
	}

	if len(positional) != 1 || positional[0] != "doc.md" {
		t.Errorf("positional = %v, want [doc.md]", positional)
	}

	want := convertFlags{
		common:     commonFlags{config: "team", quiet: true, verbose: true},
		format:     "html",
		output:     "out",
		workers:    3,
		timeout:    "45s",
		style:      styleFlags{preset: "academic", math: "unicodemath", theme: "dark", font: "Arial", noMerge: true, lineNumbers: true},
		document:   documentFlags{title: "Report", author: "Ada"},
		noDiagrams: true,
		stripMath:  true,
	}
	if *f != want {
		t.Errorf("flags = %+v\nwant    %+v", *f, want)
	}
}

func TestParseConvertFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, positional, err := parseConvertFlags([]string{"-"})
	if err != nil {
		t.Fatal(err)
	}
	if *f != (convertFlags{}) {
		t.Errorf("defaults = %+v, want zero values", *f)
	}
	if len(positional) != 1 || positional[0] != "-" {
		t.Errorf("positional = %v, want [-]", positional)
	}
}

func TestParseConvertFlags_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"help long", []string{"--help"}, flag.ErrHelp},
		{"help short", []string{"-h"}, flag.ErrHelp},
		{"unknown flag", []string{"--watermark", "x"}, ErrInvalidFlags},
		{"bad int", []string{"--workers", "many"}, ErrInvalidFlags},
		{"missing value", []string{"--format"}, ErrInvalidFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := parseConvertFlags(tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseConvertFlags(%v) error = %v, want %v", tt.args, err, tt.wantErr)
			}
		})
	}
}
