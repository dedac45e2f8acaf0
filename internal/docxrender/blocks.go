package docxrender

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/highlight"
	"github.com/alnah/go-md2word/internal/mdast"
)

// Layout constants, in twips unless noted.
const (
	quoteIndent     = 720
	quoteBorder     = "#d1d5db"
	ruleColor       = "#9ca3af"
	lineNumberColor = "#999999"
	darkCodeColor   = "#f8f8f2"
	codeSpacing     = 120
	listHanging     = 360
)

// frame is the block context threaded through construction.
type frame struct {
	indent int
	quote  bool
}

func (f frame) nested() frame {
	return frame{indent: f.indent + quoteIndent, quote: true}
}

// builder assembles one document.
type builder struct {
	r       *Renderer
	d       *docx.Document
	rasters map[*mdast.Token]*Raster
}

func (b *builder) blocks(tokens []*mdast.Token, f frame) []docx.Block {
	var out []docx.Block
	for _, t := range tokens {
		if t != nil {
			out = append(out, b.block(t, f)...)
		}
	}
	return out
}

func (b *builder) block(t *mdast.Token, f frame) []docx.Block {
	switch t.Kind {
	case mdast.Heading:
		return []docx.Block{b.heading(t, f)}
	case mdast.Paragraph, mdast.Text:
		return []docx.Block{b.paragraph(b.inlines(t.Children, t.Text), f)}
	case mdast.List:
		return b.list(t, 0, f)
	case mdast.Blockquote:
		return b.blocks(t.Children, f.nested())
	case mdast.HR:
		p := b.paragraph(nil, f)
		p.BorderBottom = ruleColor
		return []docx.Block{p}
	case mdast.HTML:
		txt := htmlText(t.Text)
		if txt == "" {
			return nil
		}
		return []docx.Block{b.paragraph(textRuns(txt, b.bodyProps()), f)}
	case mdast.Code:
		if ras, ok := b.rasters[t]; ok {
			return []docx.Block{b.diagram(ras, t.Lang, f)}
		}
		return b.code(t, f)
	case mdast.Table:
		return []docx.Block{b.table(t, f)}
	case mdast.BlockMath:
		p := b.paragraph([]docx.Inline{b.math(t, b.bodyProps())}, f)
		p.Align = docx.AlignCenter
		return []docx.Block{p}
	}

	if len(t.Children) > 0 {
		return []docx.Block{b.paragraph(b.inlines(t.Children, ""), f)}
	}
	raw := t.Raw
	if raw == "" {
		raw = t.Text
	}
	if raw == "" {
		return nil
	}
	return []docx.Block{b.paragraph(textRuns(raw, b.bodyProps()), f)}
}

func (b *builder) paragraph(inlines []docx.Inline, f frame) *docx.Paragraph {
	p := &docx.Paragraph{IndentLeft: f.indent, Inlines: inlines}
	if f.quote {
		p.Style = "Quote"
		p.BorderLeft = quoteBorder
	}
	return p
}

func (b *builder) heading(t *mdast.Token, f frame) *docx.Paragraph {
	level := min(max(t.Depth, 1), 6)
	props := docx.RunProps{
		Bold: true,
		Font: b.r.opts.Heading.FontFamily,
		Size: b.r.opts.HeadingSize(level),
	}
	return &docx.Paragraph{
		Style:      "Heading" + strconv.Itoa(level),
		IndentLeft: f.indent,
		KeepNext:   true,
		Inlines:    b.runs(t.Children, t.Text, props),
	}
}

// list emits one numbered paragraph per item. An item's inline content is
// buffered into a single paragraph, flushed before any block sibling,
// paragraphs included, and at the end of the item.
func (b *builder) list(t *mdast.Token, level int, f frame) []docx.Block {
	num := b.d.List(t.Ordered, level, t.Start)
	indent := f.indent + docx.ListIndent(level)

	var out []docx.Block
	for _, item := range t.Items {
		if item == nil {
			continue
		}
		var pending []docx.Inline
		numbered := false
		if item.Checked != nil {
			box := "☐ "
			if *item.Checked {
				box = "☑ "
			}
			pending = append(pending, &docx.Run{Text: box, Props: b.bodyProps()})
		}

		flush := func(force bool) {
			if len(pending) == 0 && !force {
				return
			}
			p := &docx.Paragraph{Style: "ListParagraph", IndentLeft: indent, Inlines: pending}
			if !numbered {
				p.NumID, p.NumLevel, p.Hanging = num, level, listHanging
				numbered = true
			}
			if f.quote {
				p.BorderLeft = quoteBorder
			}
			out = append(out, p)
			pending = nil
		}

		inline := false
		for _, child := range item.Children {
			if child == nil {
				continue
			}
			switch child.Kind {
			case mdast.Text:
				if inline {
					pending = append(pending, &docx.Run{Break: true, Props: b.bodyProps()})
				}
				pending = append(pending, b.inlines(child.Children, child.Text)...)
				inline = true
			case mdast.Paragraph:
				// Later paragraphs of a loose item stand alone at the item indent.
				if inline {
					flush(false)
				}
				pending = append(pending, b.inlines(child.Children, child.Text)...)
				inline = true
			case mdast.List:
				flush(!numbered)
				out = append(out, b.list(child, level+1, f)...)
				inline = false
			default:
				flush(!numbered)
				out = append(out, b.block(child, frame{indent: indent, quote: f.quote})...)
				inline = false
			}
		}
		flush(!numbered)
	}
	return out
}

func (b *builder) code(t *mdast.Token, f frame) []docx.Block {
	o := b.r.opts
	base := docx.RunProps{Font: o.Code.FontFamily, Size: o.Code.FontSize}
	if o.Dark() {
		base.Color = darkCodeColor
	}

	lines := b.codeLines(t.Text, t.Lang)
	out := make([]docx.Block, 0, len(lines))
	for i, spans := range lines {
		var inlines []docx.Inline
		if o.Code.LineNumbers {
			ln := base
			ln.Color = lineNumberColor
			inlines = append(inlines, &docx.Run{Text: fmt.Sprintf("%3d  ", i+1), Props: ln})
		}
		for _, s := range spans {
			props := base
			props.Bold, props.Italic = s.Bold, s.Italic
			if s.Color != "" {
				props.Color = s.Color
			}
			inlines = append(inlines, &docx.Run{Text: s.Text, Props: props})
		}

		p := &docx.Paragraph{
			Style:      "Code",
			IndentLeft: f.indent,
			Shading:    highlight.Background(o.Dark()),
			Spacing:    true,
			Inlines:    inlines,
		}
		if i == 0 {
			p.SpaceBefore = codeSpacing
		}
		if i == len(lines)-1 {
			p.SpaceAfter = codeSpacing
		}
		out = append(out, p)
	}
	return out
}

// codeLines returns the styled spans of each line, or single uncolored spans
// when the language is unknown or highlighting fails.
func (b *builder) codeLines(code, lang string) [][]highlight.Span {
	plain := func() [][]highlight.Span {
		src := strings.Split(code, "\n")
		out := make([][]highlight.Span, len(src))
		for i, l := range src {
			if l != "" {
				out[i] = []highlight.Span{{Text: l}}
			}
		}
		return out
	}

	tokLines, err := b.r.hl.Tokenize(code, lang)
	if err != nil {
		if !errors.Is(err, highlight.ErrUnknownLanguage) {
			b.r.logger.Warn("code highlighting failed", zap.String("lang", lang), zap.Error(err))
		}
		return plain()
	}
	if len(tokLines) == 0 {
		return plain()
	}
	out := make([][]highlight.Span, len(tokLines))
	for i, l := range tokLines {
		out[i] = b.r.hl.Spans(l)
	}
	return out
}

func (b *builder) diagram(ras *Raster, lang string, f frame) *docx.Paragraph {
	pic := b.d.Picture(ras.PNG, ras.Width, ras.Height, strings.TrimSpace(lang)+" diagram")
	p := b.paragraph([]docx.Inline{pic}, f)
	p.Align = docx.AlignCenter
	return p
}

// htmlText returns the visible text of an HTML block.
func htmlText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}
