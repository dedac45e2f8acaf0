package md2word

import (
	"time"

	"github.com/alnah/go-md2word/internal/cleaner"
	"github.com/alnah/go-md2word/internal/docxrender"
	"github.com/alnah/go-md2word/internal/options"
)

// ConversionOptions holds the renderer settings shared by both outputs.
type ConversionOptions = options.ConversionOptions

// CleanerOptions toggles the passes that strip chat assistant artifacts.
type CleanerOptions = cleaner.Options

// Raster is a rendered diagram image.
type Raster = docxrender.Raster

// DiagramRenderer rasterizes diagram code blocks for .docx output.
type DiagramRenderer = docxrender.DiagramRenderer

// DefaultOptions returns the stock conversion options.
func DefaultOptions() ConversionOptions {
	return options.Default()
}

// DefaultCleanerOptions enables every cleaning pass.
func DefaultCleanerOptions() CleanerOptions {
	return cleaner.DefaultOptions()
}

// Input is one conversion request.
type Input struct {
	Markdown string

	// Options overrides the converter's options for this call.
	Options *ConversionOptions

	// Properties are written to the .docx core properties. Ignored for HTML.
	Properties *DocumentProperties

	// StripMath removes math delimiters from the clipboard plain text.
	StripMath bool
}

// DocumentProperties are the .docx core properties. An empty Title falls
// back to the first heading; zero times default to the conversion time.
type DocumentProperties struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Created  time.Time
	Modified time.Time
}

// Stats describes the converted Markdown. Element counts come from the
// token tree; text counts from the source.
type Stats struct {
	Characters int
	Words      int
	Lines      int
	Tables     int
	CodeBlocks int
	Images     int
	Headings   int
	Links      int
	Equations  int // inline and display math
}

// HTMLResult is the output of Converter.HTML.
type HTMLResult struct {
	HTML      string
	PlainText string
	Stats     Stats

	// Cached reports whether the result came from the cache.
	Cached bool
}

// DocxResult is the output of Converter.Docx.
type DocxResult struct {
	Docx  []byte
	Stats Stats

	// Diagrams is the number of diagrams embedded as images.
	Diagrams int
}

// ClipboardData is a rich clipboard payload: HTML plus its plain text
// alternative.
type ClipboardData struct {
	HTML      string
	PlainText string
}
