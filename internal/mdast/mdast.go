// Package mdast defines the annotated token tree shared by the parser and
// both renderers.
package mdast

import "strings"

// Kind identifies the type of a Token.
type Kind int

// Token kinds. Unknown is the fallback for anything the parser cannot map;
// renderers emit its raw text.
const (
	Unknown Kind = iota
	Heading
	Paragraph
	Text
	List
	ListItem
	Table
	TableRowKind
	TableCellKind
	Code
	Blockquote
	HR
	HTML
	Strong
	Em
	Del
	Link
	Image
	Codespan
	InlineMath
	BlockMath
	Br
)

var kindNames = [...]string{
	Unknown:       "unknown",
	Heading:       "heading",
	Paragraph:     "paragraph",
	Text:          "text",
	List:          "list",
	ListItem:      "list_item",
	Table:         "table",
	TableRowKind:  "table_row",
	TableCellKind: "table_cell",
	Code:          "code",
	Blockquote:    "blockquote",
	HR:            "hr",
	HTML:          "html",
	Strong:        "strong",
	Em:            "em",
	Del:           "del",
	Link:          "link",
	Image:         "image",
	Codespan:      "codespan",
	InlineMath:    "inlineMath",
	BlockMath:     "math",
	Br:            "br",
}

// String returns the lowercase vocabulary name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// IsMath reports whether the kind carries LaTeX source.
func (k Kind) IsMath() bool {
	return k == InlineMath || k == BlockMath
}

// Align is a table cell alignment.
type Align string

// Cell alignments. AlignNone means the source did not specify one.
const (
	AlignNone   Align = ""
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Token is a node of the parsed document.
//
// Children hold inline content for headings, paragraphs and spans, and block
// content for blockquotes and list items. Items hold the ListItem tokens of a
// List. Table is attached by the table processor to Table tokens.
type Token struct {
	Kind     Kind
	Raw      string
	Text     string
	Children []*Token
	Depth    int
	Lang     string
	Ordered  bool
	Start    int
	Items    []*Token
	Href     string
	Title    string
	Checked  *bool
	Display  bool
	Align    Align
	Table    *TableData
}

// IsBlockMath reports whether a math token is rendered in display style.
func (t *Token) IsBlockMath() bool {
	return t.Kind == BlockMath || (t.Kind == InlineMath && t.Display)
}

// Document is the root of a parsed Markdown text.
type Document struct {
	Tokens []*Token
	Raw    string
}

// TableCell is one cell of a normalized table.
type TableCell struct {
	Content           string
	Tokens            []*Token
	Align             Align
	RowSpan           int
	ColSpan           int
	MergeWithPrevious bool
}

// TableRow is an ordered sequence of cells.
type TableRow struct {
	Cells []TableCell
}

// TableData is the normalized grid of a Markdown table.
type TableData struct {
	Headers     []TableCell
	Rows        []TableRow
	ColumnCount int
	RowCount    int
	Alignments  []Align
}

// Walk visits tokens depth-first, descending into children, list items and
// the inline tokens of table cells. Returning false from fn skips the
// token's descendants.
func Walk(tokens []*Token, fn func(*Token) bool) {
	for _, t := range tokens {
		if t == nil {
			continue
		}
		if !fn(t) {
			continue
		}
		Walk(t.Items, fn)
		// The normalized grid shares its cell tokens with the raw rows.
		if t.Table == nil {
			Walk(t.Children, fn)
		} else {
			for _, c := range t.Table.Headers {
				Walk(c.Tokens, fn)
			}
			for _, r := range t.Table.Rows {
				for _, c := range r.Cells {
					Walk(c.Tokens, fn)
				}
			}
		}
	}
}

// PlainText concatenates the text of leaf tokens depth-first.
func PlainText(tokens []*Token) string {
	var sb strings.Builder
	writePlain(&sb, tokens)
	return sb.String()
}

func writePlain(sb *strings.Builder, tokens []*Token) {
	for _, t := range tokens {
		if t == nil {
			continue
		}
		switch {
		case len(t.Children) > 0:
			writePlain(sb, t.Children)
		case t.Kind == Br:
			sb.WriteByte('\n')
		case t.Text != "":
			sb.WriteString(t.Text)
		}
	}
}

// Count returns how many tokens of kind k the tree holds.
func Count(tokens []*Token, k Kind) int {
	n := 0
	Walk(tokens, func(t *Token) bool {
		if t.Kind == k {
			n++
		}
		return true
	})
	return n
}
