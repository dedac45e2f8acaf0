package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Relationship types.
const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const documentNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture" ` +
	`xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"`

// A4 portrait with 1 inch margins, in twips.
const (
	pageWidth    = 11906
	pageHeight   = 16838
	pageMargin   = 1440
	contentWidth = pageWidth - 2*pageMargin
)

// Write serializes the package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	parts, err := d.parts()
	if err != nil {
		return err
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrSerialize, p.name, err)
		}
		if _, err := f.Write(p.data); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrSerialize, p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return nil
}

// Bytes returns the serialized package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type part struct {
	name string
	data []byte
}

func (d *Document) parts() ([]part, error) {
	styles, err := renderTemplate(stylesTemplate, d.styleData())
	if err != nil {
		return nil, err
	}
	core, err := renderTemplate(coreTemplate, d.coreData())
	if err != nil {
		return nil, err
	}

	parts := []part{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"docProps/core.xml", core},
		{"docProps/app.xml", []byte(appXML)},
		{"word/document.xml", d.documentXML()},
		{"word/styles.xml", styles},
		{"word/numbering.xml", d.numberingXML()},
		{"word/settings.xml", []byte(settingsXML)},
		{"word/_rels/document.xml.rels", d.documentRelsXML()},
	}
	for _, m := range d.media {
		parts = append(parts, part{"word/media/" + m.name, m.data})
	}
	return parts, nil
}

func (d *Document) documentRelsXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	fixed := []relationship{
		{id: "rId1", kind: relStyles, target: "styles.xml"},
		{id: "rId2", kind: relNumbering, target: "numbering.xml"},
		{id: "rId3", kind: relSettings, target: "settings.xml"},
	}
	for _, r := range append(fixed, d.rels...) {
		mode := ""
		if r.external {
			mode = ` TargetMode="External"`
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, r.id, r.kind, esc(r.target), mode)
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

func (d *Document) documentXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:document ` + documentNamespaces + `><w:body>`)
	for _, blk := range d.Body {
		writeBlock(&b, blk)
	}
	// A body may not end with a table.
	if n := len(d.Body); n == 0 {
		b.WriteString(`<w:p/>`)
	} else if _, ok := d.Body[n-1].(*Table); ok {
		b.WriteString(`<w:p/>`)
	}
	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`,
		pageWidth, pageHeight, pageMargin, pageMargin, pageMargin, pageMargin)
	b.WriteString(`</w:body></w:document>`)
	return []byte(b.String())
}

func writeBlock(b *strings.Builder, blk Block) {
	switch v := blk.(type) {
	case *Paragraph:
		writeParagraph(b, v)
	case *Table:
		writeTable(b, v)
	}
}

func writeParagraph(b *strings.Builder, p *Paragraph) {
	b.WriteString(`<w:p>`)

	var pr strings.Builder
	if p.Style != "" {
		fmt.Fprintf(&pr, `<w:pStyle w:val="%s"/>`, esc(p.Style))
	}
	if p.KeepNext {
		pr.WriteString(`<w:keepNext/>`)
	}
	if p.NumID > 0 {
		fmt.Fprintf(&pr, `<w:numPr><w:ilvl w:val="%d"/><w:numId w:val="%d"/></w:numPr>`, clampLevel(p.NumLevel), p.NumID)
	}
	left, bottom := hexColor(p.BorderLeft), hexColor(p.BorderBottom)
	if left != "" || bottom != "" {
		pr.WriteString(`<w:pBdr>`)
		if left != "" {
			fmt.Fprintf(&pr, `<w:left w:val="single" w:sz="18" w:space="8" w:color="%s"/>`, left)
		}
		if bottom != "" {
			fmt.Fprintf(&pr, `<w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/>`, bottom)
		}
		pr.WriteString(`</w:pBdr>`)
	}
	if c := hexColor(p.Shading); c != "" {
		fmt.Fprintf(&pr, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, c)
	}
	if p.Spacing || p.SpaceBefore > 0 || p.SpaceAfter > 0 {
		fmt.Fprintf(&pr, `<w:spacing w:before="%d" w:after="%d"/>`, p.SpaceBefore, p.SpaceAfter)
	}
	if p.IndentLeft > 0 || p.Hanging > 0 {
		fmt.Fprintf(&pr, `<w:ind w:left="%d"`, p.IndentLeft)
		if p.Hanging > 0 {
			fmt.Fprintf(&pr, ` w:hanging="%d"`, p.Hanging)
		}
		pr.WriteString(`/>`)
	}
	if p.Align != AlignDefault {
		fmt.Fprintf(&pr, `<w:jc w:val="%s"/>`, p.Align)
	}
	if pr.Len() > 0 {
		b.WriteString(`<w:pPr>` + pr.String() + `</w:pPr>`)
	}

	for _, in := range p.Inlines {
		writeInline(b, in)
	}
	b.WriteString(`</w:p>`)
}

func writeInline(b *strings.Builder, in Inline) {
	switch v := in.(type) {
	case *Run:
		writeRun(b, v)
	case *Hyperlink:
		fmt.Fprintf(b, `<w:hyperlink r:id="%s" w:history="1">`, v.id)
		for _, r := range v.Runs {
			writeRun(b, r)
		}
		b.WriteString(`</w:hyperlink>`)
	case *Math:
		if v.Display {
			b.WriteString(`<m:oMathPara>`)
		}
		fmt.Fprintf(b, `<m:oMath><m:r><m:t xml:space="preserve">%s</m:t></m:r></m:oMath>`, esc(v.Text))
		if v.Display {
			b.WriteString(`</m:oMathPara>`)
		}
	case *Picture:
		writePicture(b, v)
	}
}

func writeRun(b *strings.Builder, r *Run) {
	b.WriteString(`<w:r>`)
	writeRunProps(b, r.Props)
	if r.Break {
		b.WriteString(`<w:br/>`)
	} else {
		fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, esc(r.Text))
	}
	b.WriteString(`</w:r>`)
}

func writeRunProps(b *strings.Builder, p RunProps) {
	var pr strings.Builder
	if p.Font != "" {
		f := esc(p.Font)
		fmt.Fprintf(&pr, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/>`, f, f, f, f)
	}
	if p.Bold {
		pr.WriteString(`<w:b/><w:bCs/>`)
	}
	if p.Italic {
		pr.WriteString(`<w:i/><w:iCs/>`)
	}
	if p.Strike {
		pr.WriteString(`<w:strike/>`)
	}
	if c := hexColor(p.Color); c != "" {
		fmt.Fprintf(&pr, `<w:color w:val="%s"/>`, c)
	}
	if p.Size > 0 {
		hp := halfPoints(p.Size)
		fmt.Fprintf(&pr, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	}
	if p.Underline {
		pr.WriteString(`<w:u w:val="single"/>`)
	}
	if c := hexColor(p.Shading); c != "" {
		fmt.Fprintf(&pr, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, c)
	}
	if pr.Len() > 0 {
		b.WriteString(`<w:rPr>` + pr.String() + `</w:rPr>`)
	}
}

func writePicture(b *strings.Builder, p *Picture) {
	fmt.Fprintf(b, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="Picture %d" descr="%s"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		p.Width, p.Height, p.docPr, p.docPr, esc(p.Alt), p.docPr, esc(p.Name), p.id, p.Width, p.Height)
}

func writeTable(b *strings.Builder, t *Table) {
	cols := max(t.Columns, 1)
	colWidth := contentWidth / cols
	border := hexColor(t.BorderColor)
	if border == "" {
		border = "000000"
	}

	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="%s"/>`, side, border)
	}
	b.WriteString(`</w:tblBorders><w:tblLayout w:type="fixed"/>` +
		`<w:tblCellMar><w:top w:w="60" w:type="dxa"/><w:left w:w="120" w:type="dxa"/><w:bottom w:w="60" w:type="dxa"/><w:right w:w="120" w:type="dxa"/></w:tblCellMar>` +
		`<w:tblLook w:val="04A0" w:firstRow="1" w:lastRow="0" w:firstColumn="0" w:lastColumn="0" w:noHBand="0" w:noVBand="1"/></w:tblPr>`)

	b.WriteString(`<w:tblGrid>`)
	for range cols {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, colWidth)
	}
	b.WriteString(`</w:tblGrid>`)

	for _, row := range t.Rows {
		b.WriteString(`<w:tr>`)
		if row.Header {
			b.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
		}
		for _, c := range row.Cells {
			writeCell(b, c, colWidth)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}

func writeCell(b *strings.Builder, c *TableCell, colWidth int) {
	span := max(c.GridSpan, 1)
	fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, colWidth*span)
	if span > 1 {
		fmt.Fprintf(b, `<w:gridSpan w:val="%d"/>`, span)
	}
	switch c.VMerge {
	case VMergeRestart:
		b.WriteString(`<w:vMerge w:val="restart"/>`)
	case VMergeContinue:
		b.WriteString(`<w:vMerge/>`)
	}
	if fill := hexColor(c.Shading); fill != "" {
		fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, fill)
	}
	b.WriteString(`<w:vAlign w:val="center"/></w:tcPr>`)

	for _, blk := range c.Blocks {
		writeBlock(b, blk)
	}
	// A cell must end with a paragraph.
	if n := len(c.Blocks); n == 0 {
		b.WriteString(`<w:p/>`)
	} else if _, ok := c.Blocks[n-1].(*Paragraph); !ok {
		b.WriteString(`<w:p/>`)
	}
	b.WriteString(`</w:tc>`)
}

func (d *Document) numberingXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)

	b.WriteString(`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="multilevel"/>`)
	for lvl := range 9 {
		format, text := orderedLevel(lvl)
		fmt.Fprintf(&b, `<w:lvl w:ilvl="%d"><w:start w:val="1"/><w:numFmt w:val="%s"/><w:lvlText w:val="%s"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr></w:lvl>`,
			lvl, format, text, listIndent(lvl))
	}
	b.WriteString(`</w:abstractNum>`)

	b.WriteString(`<w:abstractNum w:abstractNumId="1"><w:multiLevelType w:val="hybridMultilevel"/>`)
	for lvl := range 9 {
		fmt.Fprintf(&b, `<w:lvl w:ilvl="%d"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="%s"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr></w:lvl>`,
			lvl, bulletGlyphs[lvl%len(bulletGlyphs)], listIndent(lvl))
	}
	b.WriteString(`</w:abstractNum>`)

	for i, l := range d.lists {
		abstract := 1
		if l.ordered {
			abstract = 0
		}
		fmt.Fprintf(&b, `<w:num w:numId="%d"><w:abstractNumId w:val="%d"/>`, i+1, abstract)
		if l.ordered {
			fmt.Fprintf(&b, `<w:lvlOverride w:ilvl="%d"><w:startOverride w:val="%d"/></w:lvlOverride>`, l.level, l.start)
		}
		b.WriteString(`</w:num>`)
	}
	b.WriteString(`</w:numbering>`)
	return []byte(b.String())
}

var bulletGlyphs = []string{"•", "◦", "▪"}

// orderedLevel cycles decimal, parenthesized decimal and lower-alpha by depth.
func orderedLevel(lvl int) (format, text string) {
	n := strconv.Itoa(lvl + 1)
	switch lvl % 3 {
	case 1:
		return "decimal", "(%" + n + ")"
	case 2:
		return "lowerLetter", "%" + n + "."
	}
	return "decimal", "%" + n + "."
}

// ListIndent is the left indent of a list level in twips.
func ListIndent(level int) int {
	return listIndent(clampLevel(level))
}

func listIndent(lvl int) int {
	return 720 * (lvl + 1)
}

type styleData struct {
	BodyFont, HeadingFont, CodeFont string
	BodySize, CodeSize              int
	Line                            int
	Headings                        []int
	CodeShading, LinkColor          string
}

func (d *Document) styleData() styleData {
	s := d.Styles
	sd := styleData{
		BodyFont:    orDefault(s.BodyFont, "Calibri"),
		HeadingFont: orDefault(s.HeadingFont, orDefault(s.BodyFont, "Calibri")),
		CodeFont:    orDefault(s.CodeFont, "Consolas"),
		BodySize:    halfPoints(orDefaultSize(s.BodySize, 12)),
		CodeSize:    halfPoints(orDefaultSize(s.CodeSize, 10)),
		Line:        int(math.Round(240 * orDefaultSize(s.LineHeight, 1.15))),
		CodeShading: orDefault(hexColor(s.CodeShading), "F5F5F5"),
		LinkColor:   orDefault(hexColor(s.LinkColor), "0563C1"),
	}
	defaults := [6]float64{16, 14, 13, 12, 11, 10}
	for i, size := range s.HeadingSizes {
		sd.Headings = append(sd.Headings, halfPoints(orDefaultSize(size, defaults[i])))
	}
	return sd
}

type coreData struct {
	Title, Author, Subject, Keywords string
	Created, Modified                string
}

func (d *Document) coreData() coreData {
	p := d.Properties
	created := p.Created
	if created.IsZero() {
		created = time.Now()
	}
	modified := p.Modified
	if modified.IsZero() {
		modified = created
	}
	return coreData{
		Title:    p.Title,
		Author:   p.Author,
		Subject:  p.Subject,
		Keywords: strings.Join(p.Keywords, ", "),
		Created:  created.UTC().Format(time.RFC3339),
		Modified: modified.UTC().Format(time.RFC3339),
	}
}

// esc escapes text for element content and attribute values.
func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// hexColor turns #rgb or #rrggbb into the six uppercase digits OOXML
// expects; anything else yields "".
func hexColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return ""
	}
	for _, r := range c {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}
	return strings.ToUpper(c)
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultSize(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
