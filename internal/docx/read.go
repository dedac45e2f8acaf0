package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxPartSize caps how much of a single part Read decompresses.
const maxPartSize = 64 << 20

// Summary describes a package's content.
type Summary struct {
	Title      string
	Author     string
	Paragraphs []string // body paragraphs, table cells excluded
	Tables     []TableSummary
	Images     int
	Equations  int
}

// TableSummary holds the cells of one table, row by row.
type TableSummary struct {
	Rows [][]CellSummary
}

// CellSummary is one w:tc of a table.
type CellSummary struct {
	Text     string
	GridSpan int
	VMerge   VMerge
}

// ReadBytes summarizes a serialized package.
func ReadBytes(data []byte) (*Summary, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read summarizes the package in r.
func Read(r io.ReaderAt, size int64) (*Summary, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDoc, err)
	}

	doc, err := readPart(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}
	s, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}

	if core, err := readPart(zr, "docProps/core.xml"); err == nil {
		var props struct {
			Title   string `xml:"http://purl.org/dc/elements/1.1/ title"`
			Creator string `xml:"http://purl.org/dc/elements/1.1/ creator"`
		}
		if err := xml.Unmarshal(core, &props); err == nil {
			s.Title, s.Author = props.Title, props.Creator
		}
	}
	return s, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidDoc, name, err)
		}
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidDoc, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s not found", ErrInvalidDoc, name)
}

// docReader is the streaming state of a document.xml scan.
type docReader struct {
	s      Summary
	text   strings.Builder
	inText bool
	tables []*TableSummary
	cell   *CellSummary
}

func parseDocument(data []byte) (*Summary, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	p := &docReader{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse document.xml: %v", ErrInvalidDoc, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			if p.inText {
				p.text.Write(t)
			}
		}
	}
	return &p.s, nil
}

func (p *docReader) start(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		if t.Name.Space == wordNS && p.cell == nil {
			p.text.Reset()
		}
	case "t":
		p.inText = true
	case "br":
		p.text.WriteByte('\n')
	case "tab":
		p.text.WriteByte('\t')
	case "tbl":
		p.tables = append(p.tables, &TableSummary{})
	case "tr":
		if tbl := p.table(); tbl != nil {
			tbl.Rows = append(tbl.Rows, nil)
		}
	case "tc":
		p.cell = &CellSummary{GridSpan: 1}
		p.text.Reset()
	case "gridSpan":
		if p.cell != nil {
			if n, err := strconv.Atoi(attr(t, "val")); err == nil {
				p.cell.GridSpan = n
			}
		}
	case "vMerge":
		if p.cell != nil {
			if attr(t, "val") == string(VMergeRestart) {
				p.cell.VMerge = VMergeRestart
			} else {
				p.cell.VMerge = VMergeContinue
			}
		}
	case "drawing":
		p.s.Images++
	case "oMath":
		p.s.Equations++
	}
}

func (p *docReader) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		p.inText = false
	case "p":
		if t.Name.Space != wordNS {
			return
		}
		if p.cell != nil {
			if p.text.Len() > 0 && !strings.HasSuffix(p.text.String(), "\n") {
				p.text.WriteByte('\n')
			}
			return
		}
		if len(p.tables) == 0 {
			p.s.Paragraphs = append(p.s.Paragraphs, p.text.String())
		}
	case "tc":
		if tbl := p.table(); tbl != nil && p.cell != nil && len(tbl.Rows) > 0 {
			p.cell.Text = strings.TrimSuffix(p.text.String(), "\n")
			last := len(tbl.Rows) - 1
			tbl.Rows[last] = append(tbl.Rows[last], *p.cell)
		}
		p.cell = nil
		p.text.Reset()
	case "tbl":
		if n := len(p.tables); n > 0 {
			p.s.Tables = append(p.s.Tables, *p.tables[n-1])
			p.tables = p.tables[:n-1]
		}
	}
}

func (p *docReader) table() *TableSummary {
	if n := len(p.tables); n > 0 {
		return p.tables[n-1]
	}
	return nil
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
