package docxrender

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/tables"
)

// Body row fills, alternating from the first body row.
var bandFills = [2]string{"#ffffff", "#f9fafb"}

var (
	groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})*(\.\d+)?%?$`)
	plainNumber   = regexp.MustCompile(`^[+-]?\d+(\.\d+)?%?$`)
)

// IsNumeric reports whether cell content reads as a number.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	return groupedNumber.MatchString(s) || plainNumber.MatchString(s)
}

// table builds a table, or a paragraph noting the failure when the grid
// cannot be laid out.
func (b *builder) table(t *mdast.Token, f frame) (blk docx.Block) {
	defer func() {
		if r := recover(); r != nil {
			blk = b.tableFailure(fmt.Errorf("%w: %v", ErrTable, r), f)
		}
	}()

	td := t.Table
	if td == nil {
		p := tables.Process(t)
		td = &p
	}
	cols := td.ColumnCount
	if cols == 0 {
		cols = len(td.Headers)
	}
	if cols == 0 {
		return b.tableFailure(fmt.Errorf("%w: no columns", ErrTable), f)
	}

	o := b.r.opts
	layout := tables.Resolve(td, o.Table.MergeCells)
	tbl := &docx.Table{Columns: cols, BorderColor: o.Table.BorderColor}

	if len(layout.Header) > 0 {
		row := &docx.TableRow{Header: true}
		for _, p := range layout.Header {
			props := b.bodyProps()
			props.Bold = true
			row.Cells = append(row.Cells, &docx.TableCell{
				GridSpan: p.ColSpan,
				Shading:  o.Table.HeaderBackground,
				Blocks:   []docx.Block{b.cellParagraph(p.Cell, docx.AlignCenter, props)},
			})
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	for r, placements := range layout.Rows {
		fill := bandFills[r%2]
		row := &docx.TableRow{}
		for _, p := range placements {
			cell := &docx.TableCell{GridSpan: p.ColSpan, Shading: fill}
			switch {
			case p.Continue:
				cell.VMerge = docx.VMergeContinue
			case p.RowSpan > 1:
				cell.VMerge = docx.VMergeRestart
			}
			if !p.Continue {
				cell.Blocks = []docx.Block{b.cellParagraph(p.Cell, b.cellAlign(p.Cell), b.bodyProps())}
			}
			row.Cells = append(row.Cells, cell)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func (b *builder) cellParagraph(c *mdast.TableCell, align docx.Align, props docx.RunProps) *docx.Paragraph {
	return &docx.Paragraph{
		Align:   align,
		Spacing: true,
		Inlines: b.runs(c.Tokens, c.Content, props),
	}
}

// cellAlign prefers the source alignment, then right-aligns numbers, then
// falls back to the configured default.
func (b *builder) cellAlign(c *mdast.TableCell) docx.Align {
	align := c.Align
	if align == mdast.AlignNone && IsNumeric(c.Content) {
		return docx.AlignRight
	}
	if align == mdast.AlignNone {
		align = b.r.opts.Table.DefaultAlign
	}
	switch align {
	case mdast.AlignCenter:
		return docx.AlignCenter
	case mdast.AlignRight:
		return docx.AlignRight
	}
	return docx.AlignLeft
}

func (b *builder) tableFailure(err error, f frame) docx.Block {
	b.r.logger.Warn("table rendering failed", zap.Error(err))
	props := b.bodyProps()
	props.Italic = true
	return b.paragraph([]docx.Inline{&docx.Run{Text: "[table could not be rendered]", Props: props}}, f)
}
