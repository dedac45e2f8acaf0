package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2word/internal/docx"
)

// inspectReport is the summary printed by the inspect command.
type inspectReport struct {
	File       string        `json:"file"`
	Title      string        `json:"title,omitempty"`
	Author     string        `json:"author,omitempty"`
	Paragraphs int           `json:"paragraphs"`
	Tables     []tableReport `json:"tables"`
	Images     int           `json:"images"`
	Equations  int           `json:"equations"`
}

// tableReport describes one table's grid.
type tableReport struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
	Merged  int `json:"merged_cells"`
}

// runInspect executes the inspect command.
func runInspect(args []string, env *Environment) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	jsonOutput := fs.Bool("json", false, "print the report as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printInspectUsage(env.Stdout)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlags, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: inspect takes exactly one .docx file", ErrInvalidFlags)
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	summary, err := docx.ReadBytes(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	report := buildInspectReport(path, summary)
	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printInspectReport(env.Stdout, report)
	return nil
}

// buildInspectReport counts grid columns and merged cells per table. A cell
// is merged when it spans columns or takes part in a vertical merge.
func buildInspectReport(path string, s *docx.Summary) *inspectReport {
	r := &inspectReport{
		File:       path,
		Title:      s.Title,
		Author:     s.Author,
		Paragraphs: len(s.Paragraphs),
		Tables:     make([]tableReport, 0, len(s.Tables)),
		Images:     s.Images,
		Equations:  s.Equations,
	}

	for _, t := range s.Tables {
		tr := tableReport{Rows: len(t.Rows)}
		for _, row := range t.Rows {
			cols := 0
			for _, c := range row {
				cols += max(c.GridSpan, 1)
				if c.GridSpan > 1 || c.VMerge != docx.VMergeNone {
					tr.Merged++
				}
			}
			tr.Columns = max(tr.Columns, cols)
		}
		r.Tables = append(r.Tables, tr)
	}
	return r
}

// printInspectReport outputs a human-readable report.
func printInspectReport(w io.Writer, r *inspectReport) {
	fmt.Fprintf(w, "File:       %s\n", r.File)
	if r.Title != "" {
		fmt.Fprintf(w, "Title:      %s\n", r.Title)
	}
	if r.Author != "" {
		fmt.Fprintf(w, "Author:     %s\n", r.Author)
	}
	fmt.Fprintf(w, "Paragraphs: %d\n", r.Paragraphs)
	fmt.Fprintf(w, "Tables:     %d\n", len(r.Tables))
	for i, t := range r.Tables {
		fmt.Fprintf(w, "  #%d  %dx%d, %d merged cell(s)\n", i+1, t.Rows, t.Columns, t.Merged)
	}
	fmt.Fprintf(w, "Images:     %d\n", r.Images)
	fmt.Fprintf(w, "Equations:  %d\n", r.Equations)
}
