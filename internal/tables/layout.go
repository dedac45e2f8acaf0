package tables

import "github.com/alnah/go-md2word/internal/mdast"

// Placement is one emitted cell of a laid-out row.
type Placement struct {
	Col     int
	Cell    *mdast.TableCell
	RowSpan int
	ColSpan int
	// Continue marks the grid position below a vertically merged origin.
	// HTML skips it; grid models such as docx emit a continuation cell.
	Continue bool
}

// Layout is the resolved form of a table, row by row.
type Layout struct {
	Header []Placement
	Rows   [][]Placement
}

// Resolve computes the cells each renderer emits. With merge disabled every
// cell is kept with its literal spans. With merge enabled, each origin covers
// the rectangle its markers describe, and the markers inside that rectangle
// are absorbed. A marker no origin covers, such as a vertical marker in the
// first body row, stays literal text.
func Resolve(td *mdast.TableData, merge bool) Layout {
	var l Layout
	if td == nil {
		return l
	}

	l.Header = make([]Placement, 0, len(td.Headers))
	for c := range td.Headers {
		cell := &td.Headers[c]
		l.Header = append(l.Header, Placement{Col: c, Cell: cell, RowSpan: 1, ColSpan: literalSpan(cell.ColSpan)})
	}

	if !merge {
		l.Rows = make([][]Placement, len(td.Rows))
		for r := range td.Rows {
			cells := td.Rows[r].Cells
			row := make([]Placement, 0, len(cells))
			for c := range cells {
				cell := &cells[c]
				row = append(row, Placement{
					Col:     c,
					Cell:    cell,
					RowSpan: literalSpan(cell.RowSpan),
					ColSpan: literalSpan(cell.ColSpan),
				})
			}
			l.Rows[r] = row
		}
		return l
	}

	covered := make(map[[2]int]bool)
	continues := make(map[[2]int]Placement)

	l.Rows = make([][]Placement, len(td.Rows))
	for r := range td.Rows {
		cells := td.Rows[r].Cells
		row := make([]Placement, 0, len(cells))
		for c := range cells {
			cell := &cells[c]
			if covered[[2]int{r, c}] {
				if p, ok := continues[[2]int{r, c}]; ok {
					row = append(row, p)
				}
				continue
			}

			// An inert marker is an ordinary origin and may start a run.
			rs, cs := spans(td.Rows, r, c)
			for i := r; i < r+rs; i++ {
				for j := c; j < c+cs; j++ {
					if i != r || j != c {
						covered[[2]int{i, j}] = true
					}
				}
				if i > r {
					continues[[2]int{i, c}] = Placement{Col: c, Cell: cell, RowSpan: 1, ColSpan: cs, Continue: true}
				}
			}
			row = append(row, Placement{Col: c, Cell: cell, RowSpan: rs, ColSpan: cs})
		}
		l.Rows[r] = row
	}
	return l
}

// spans returns the rectangle the origin at (r, c) covers. A row below joins
// the run only when every cell under the origin's columns is a marker.
func spans(rows []mdast.TableRow, r, c int) (rs, cs int) {
	cs = ColSpan(rows[r].Cells, c)
	limit := RowSpan(rows, r, c)
	for rs = 1; rs < limit; rs++ {
		below := rows[r+rs].Cells
		if c+cs > len(below) || !allMarkers(below[c+1:c+cs]) {
			break
		}
	}
	return rs, cs
}

func allMarkers(cells []mdast.TableCell) bool {
	for i := range cells {
		if !cells[i].MergeWithPrevious {
			return false
		}
	}
	return true
}

func literalSpan(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
