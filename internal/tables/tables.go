// Package tables normalizes raw table tokens into a grid and resolves the
// merge markers users type into cells.
//
// A body cell whose trimmed content is "↑" or "同上" repeats the cell above;
// "→" or "同左" repeats the cell to the left. Both renderers lay tables out
// through Resolve so they agree on which cells span and which disappear.
package tables

import (
	"strings"

	"github.com/alnah/go-md2word/internal/mdast"
)

var (
	verticalMarkers   = []string{"↑", "同上"}
	horizontalMarkers = []string{"→", "同左"}
)

// IsVerticalMarker reports whether content asks to merge with the cell above.
func IsVerticalMarker(content string) bool {
	return matches(verticalMarkers, content)
}

// IsHorizontalMarker reports whether content asks to merge with the cell to the left.
func IsHorizontalMarker(content string) bool {
	return matches(horizontalMarkers, content)
}

// IsMarker reports whether content is any merge marker.
func IsMarker(content string) bool {
	return IsVerticalMarker(content) || IsHorizontalMarker(content)
}

func matches(markers []string, content string) bool {
	content = strings.TrimSpace(content)
	for _, m := range markers {
		if content == m {
			return true
		}
	}
	return false
}

// Process builds the normalized grid of a raw table token. The first row of
// the raw token is the header. A nil or non-table token yields an empty grid.
func Process(raw *mdast.Token) mdast.TableData {
	if raw == nil || raw.Kind != mdast.Table || len(raw.Children) == 0 {
		return mdast.TableData{}
	}

	headers := processRow(raw.Children[0])
	rows := make([]mdast.TableRow, 0, len(raw.Children)-1)
	for _, r := range raw.Children[1:] {
		rows = append(rows, mdast.TableRow{Cells: processRow(r)})
	}

	alignments := make([]mdast.Align, len(headers))
	for i, h := range headers {
		alignments[i] = h.Align
	}

	td := mdast.TableData{
		Headers:     headers,
		Rows:        rows,
		ColumnCount: len(headers),
		RowCount:    len(rows),
		Alignments:  alignments,
	}
	detectMergedCells(&td)
	return td
}

func processRow(row *mdast.Token) []mdast.TableCell {
	if row == nil {
		return nil
	}
	cells := make([]mdast.TableCell, 0, len(row.Children))
	for _, c := range row.Children {
		cells = append(cells, processCell(c))
	}
	return cells
}

func processCell(c *mdast.Token) mdast.TableCell {
	cell := mdast.TableCell{RowSpan: 1, ColSpan: 1}
	if c == nil {
		return cell
	}
	cell.Align = c.Align
	if len(c.Children) > 0 {
		cell.Tokens = c.Children
	}
	cell.Content = ExtractText(c)
	return cell
}

// ExtractText returns the text of a cell token: its Text when set, otherwise
// the depth-first concatenation of its descendants' text.
func ExtractText(t *mdast.Token) string {
	if t == nil {
		return ""
	}
	if t.Text != "" {
		return t.Text
	}
	return mdast.PlainText(t.Children)
}

// detectMergedCells flags body cells holding a marker. Headers are never
// merge targets and no neighbor validation happens here.
func detectMergedCells(td *mdast.TableData) {
	for r := range td.Rows {
		cells := td.Rows[r].Cells
		for c := range cells {
			if IsMarker(cells[c].Content) {
				cells[c].MergeWithPrevious = true
			}
		}
	}
}

// RowSpan counts the origin cell at (r, c) plus every following row whose
// cell at column c is a flagged vertical marker.
func RowSpan(rows []mdast.TableRow, r, c int) int {
	span := 1
	for i := r + 1; i < len(rows); i++ {
		if c >= len(rows[i].Cells) {
			break
		}
		cell := rows[i].Cells[c]
		if !cell.MergeWithPrevious || !IsVerticalMarker(cell.Content) {
			break
		}
		span++
	}
	return span
}

// ColSpan counts the origin cell at index c plus every following cell that is
// a flagged horizontal marker.
func ColSpan(cells []mdast.TableCell, c int) int {
	span := 1
	for i := c + 1; i < len(cells); i++ {
		if !cells[i].MergeWithPrevious || !IsHorizontalMarker(cells[i].Content) {
			break
		}
		span++
	}
	return span
}
