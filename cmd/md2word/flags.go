package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrInvalidFlags wraps flag parsing and argument count errors.
var ErrInvalidFlags = errors.New("invalid arguments")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// styleFlags override the conversion options from the config or preset.
type styleFlags struct {
	preset      string
	math        string
	theme       string
	font        string
	noMerge     bool
	lineNumbers bool
}

// documentFlags holds document property flags.
type documentFlags struct {
	title  string
	author string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	format     string
	output     string
	workers    int
	timeout    string
	style      styleFlags
	document   documentFlags
	noDiagrams bool
	stripMath  bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addStyleFlags adds conversion option flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.preset, "preset", "", "options preset name")
	fs.StringVar(&f.math, "math", "", "math output: katex, latex, unicodemath, text")
	fs.StringVar(&f.theme, "theme", "", "code theme: light, dark")
	fs.StringVar(&f.font, "font", "", "body font family")
	fs.BoolVar(&f.noMerge, "no-merge", false, "keep 同上/同左 markers as text")
	fs.BoolVar(&f.lineNumbers, "line-numbers", false, "number code block lines")
}

// addDocumentFlags adds document property flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (\"\" = first heading)")
	fs.StringVar(&f.author, "author", "", "document author")
}

// newConvertFlagSet registers every convert flag on a new FlagSet bound to f.
// Parsing and shell completion share it.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	// I/O flags
	fs.StringVarP(&f.format, "format", "f", "", "output format: docx, html, clipboard")
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory (- = stdout)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-file timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.noDiagrams, "no-diagrams", false, "keep mermaid blocks as code")
	fs.BoolVar(&f.stripMath, "strip-math", false, "remove math delimiters from clipboard text")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	addDocumentFlags(fs, &f.document)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// A help request returns flag.ErrHelp unwrapped.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFlags, err)
	}

	return f, fs.Args(), nil
}
