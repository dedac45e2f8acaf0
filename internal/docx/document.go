// Package docx is a small WordprocessingML object model with a packager that
// writes .docx archives and a reader that summarizes them.
//
// The model covers what Markdown conversion produces: styled paragraphs and
// runs, hyperlinks, inline pictures, native math, list numbering and tables
// with horizontal and vertical merges. Everything else Word supports is out
// of reach on purpose.
package docx

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for docx operations.
var (
	ErrSerialize  = errors.New("docx serialization failed")
	ErrInvalidDoc = errors.New("invalid docx package")
)

// Align is a paragraph or cell justification.
type Align string

// Justifications as WordprocessingML spells them.
const (
	AlignDefault Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
)

// VMerge marks a cell's part in a vertical merge.
type VMerge string

// Vertical merge states.
const (
	VMergeNone     VMerge = ""
	VMergeRestart  VMerge = "restart"
	VMergeContinue VMerge = "continue"
)

// Properties are the core document properties.
type Properties struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Created  time.Time
	Modified time.Time
}

// Styles holds the values the style sheet is generated from. Sizes are in
// points; colors are #rgb or #rrggbb.
type Styles struct {
	BodyFont     string
	BodySize     float64
	LineHeight   float64
	HeadingFont  string
	HeadingSizes [6]float64
	CodeFont     string
	CodeSize     float64
	CodeShading  string
	LinkColor    string
}

// Block is a body-level element: *Paragraph or *Table.
type Block interface {
	block()
}

// Inline is paragraph content: *Run, *Hyperlink, *Math or *Picture.
type Inline interface {
	inline()
}

// Paragraph is a w:p element. Indents are in twips.
type Paragraph struct {
	Style        string
	Align        Align
	IndentLeft   int
	Hanging      int
	SpaceBefore  int
	SpaceAfter   int
	Spacing      bool // emit SpaceBefore/SpaceAfter even when zero
	Shading      string
	BorderLeft   string
	BorderBottom string
	KeepNext     bool
	NumID        int // 0 for no numbering
	NumLevel     int
	Inlines      []Inline
}

// RunProps are character properties. Size is in points, 0 inherits.
type RunProps struct {
	Bold      bool
	Italic    bool
	Strike    bool
	Underline bool
	Color     string
	Font      string
	Size      float64
	Shading   string
}

// Run is a w:r element holding text or a line break.
type Run struct {
	Text  string
	Break bool
	Props RunProps
}

// Hyperlink is an external link around runs.
type Hyperlink struct {
	URL  string
	Runs []*Run
	id   string
}

// Math is a native equation holding linear UnicodeMath text.
type Math struct {
	Text    string
	Display bool
}

// Picture is an inline image stored in word/media. Sizes are in EMU.
type Picture struct {
	Name   string
	Alt    string
	Width  int64
	Height int64
	id     string
	docPr  int
}

// Table is a w:tbl element.
type Table struct {
	Columns     int
	BorderColor string
	Rows        []*TableRow
}

// TableRow is a w:tr element. Header rows repeat on each page.
type TableRow struct {
	Header bool
	Cells  []*TableCell
}

// TableCell is a w:tc element. GridSpan below 2 spans one column.
type TableCell struct {
	GridSpan int
	VMerge   VMerge
	Shading  string
	Blocks   []Block
}

func (*Paragraph) block() {}
func (*Table) block()     {}

func (*Run) inline()       {}
func (*Hyperlink) inline() {}
func (*Math) inline()      {}
func (*Picture) inline()   {}

// Compile-time interface checks.
var (
	_ Block  = (*Paragraph)(nil)
	_ Block  = (*Table)(nil)
	_ Inline = (*Run)(nil)
	_ Inline = (*Hyperlink)(nil)
	_ Inline = (*Math)(nil)
	_ Inline = (*Picture)(nil)
)

type relationship struct {
	id       string
	kind     string
	target   string
	external bool
}

type mediaFile struct {
	name string
	data []byte
}

type list struct {
	ordered bool
	level   int
	start   int
}

// Document is an in-memory .docx package. Build it single-threaded, then
// call Write or Bytes.
type Document struct {
	Properties Properties
	Styles     Styles
	Body       []Block

	rels  []relationship
	media []mediaFile
	lists []list
}

// First relationship ids are reserved for the fixed parts.
const fixedRels = 3

// New returns an empty document with the given styles.
func New(styles Styles) *Document {
	return &Document{Styles: styles}
}

// Add appends blocks to the body.
func (d *Document) Add(blocks ...Block) {
	d.Body = append(d.Body, blocks...)
}

// Link returns a hyperlink to url registered with the package.
func (d *Document) Link(url string, runs ...*Run) *Hyperlink {
	id := d.addRel(relHyperlink, url, true)
	return &Hyperlink{URL: url, Runs: runs, id: id}
}

// Picture stores PNG data in the package and returns an inline picture of
// the given size in pixels, scaled down to fit maxWidth EMU when needed.
func (d *Document) Picture(png []byte, widthPx, heightPx int, alt string) *Picture {
	n := len(d.media) + 1
	name := fmt.Sprintf("image%d.png", n)
	d.media = append(d.media, mediaFile{name: name, data: png})
	id := d.addRel(relImage, "media/"+name, false)

	w, h := int64(widthPx)*emuPerPixel, int64(heightPx)*emuPerPixel
	if w > maxPictureWidth && w > 0 {
		h = h * maxPictureWidth / w
		w = maxPictureWidth
	}
	return &Picture{Name: name, Alt: alt, Width: w, Height: h, id: id, docPr: n}
}

// Pictures returns the number of images stored in the package.
func (d *Document) Pictures() int {
	return len(d.media)
}

// List registers a numbering instance and returns its id for
// Paragraph.NumID. Ordered lists restart at start on the given level.
func (d *Document) List(ordered bool, level, start int) int {
	if start < 1 {
		start = 1
	}
	d.lists = append(d.lists, list{ordered: ordered, level: clampLevel(level), start: start})
	return len(d.lists)
}

func (d *Document) addRel(kind, target string, external bool) string {
	id := fmt.Sprintf("rId%d", fixedRels+len(d.rels)+1)
	d.rels = append(d.rels, relationship{id: id, kind: kind, target: target, external: external})
	return id
}

func clampLevel(l int) int {
	return min(max(l, 0), 8)
}

// Picture sizing.
const (
	emuPerPixel     = 9525
	maxPictureWidth = 6 * 914400
)
