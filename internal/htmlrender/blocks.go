package htmlrender

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/highlight"
	"github.com/alnah/go-md2word/internal/mathconv"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/options"
	"github.com/alnah/go-md2word/internal/tables"
)

const lineNumberStyle = `color: #999999; display: inline-block; min-width: 2em; margin-right: 12pt; text-align: right; user-select: none;`

func (r *Renderer) code(t *mdast.Token) string {
	lang := strings.TrimSpace(t.Lang)
	class := lang
	if class == "" {
		class = "plaintext"
	}

	lines := r.codeLines(t.Text, lang)
	if r.opts.Code.LineNumbers {
		for i, l := range lines {
			lines[i] = fmt.Sprintf(`<span class="line-number" style="%s">%d</span>%s`, lineNumberStyle, i+1, l)
		}
	}

	return fmt.Sprintf(`<pre style="background-color: %s; padding: 12pt; overflow-x: auto; border-radius: 4px; margin: 12pt 0;"><code class="hljs %s" style="font-family: %s; font-size: %spt;">%s</code></pre>`,
		highlight.Background(r.opts.Dark()), attr(class), attr(r.opts.Code.FontFamily), num(r.opts.Code.FontSize), strings.Join(lines, "\n"))
}

// codeLines returns the highlighted lines of code, or the escaped source
// lines when the language is unknown or highlighting fails.
func (r *Renderer) codeLines(code, lang string) []string {
	plain := func() []string {
		src := strings.Split(code, "\n")
		for i, l := range src {
			src[i] = html.EscapeString(l)
		}
		return src
	}

	tokLines, err := r.hl.Tokenize(code, lang)
	if err != nil {
		if !errors.Is(err, highlight.ErrUnknownLanguage) {
			r.logger.Warn("code highlighting failed", zap.String("lang", lang), zap.Error(err))
		}
		return plain()
	}

	out := make([]string, 0, len(tokLines))
	for _, l := range tokLines {
		h, err := r.hl.HTML(l)
		if err != nil {
			r.logger.Warn("code highlighting failed", zap.String("lang", lang), zap.Error(err))
			return plain()
		}
		out = append(out, h)
	}
	if len(out) == 0 {
		return plain()
	}
	return out
}

func (r *Renderer) table(t *mdast.Token) string {
	td := t.Table
	if td == nil {
		p := tables.Process(t)
		td = &p
	}
	layout := tables.Resolve(td, r.opts.Table.MergeCells)
	border := attr(r.opts.Table.BorderColor)

	var b strings.Builder
	fmt.Fprintf(&b, `<table style="width: 100%%; border-collapse: collapse; border: 1px solid %s; margin: 12pt 0; font-family: %s;">`,
		border, attr(r.opts.Text.FontFamily))

	if len(layout.Header) > 0 {
		fmt.Fprintf(&b, `<thead style="background-color: %s;"><tr>`, attr(r.opts.Table.HeaderBackground))
		for _, p := range layout.Header {
			b.WriteString(r.cell("th", p, border))
		}
		b.WriteString(`</tr></thead>`)
	}

	b.WriteString(`<tbody>`)
	for _, row := range layout.Rows {
		b.WriteString(`<tr>`)
		for _, p := range row {
			if p.Continue {
				continue
			}
			b.WriteString(r.cell("td", p, border))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func (r *Renderer) cell(tag string, p tables.Placement, border string) string {
	var spans string
	if p.RowSpan > 1 {
		spans += ` rowspan="` + strconv.Itoa(p.RowSpan) + `"`
	}
	if p.ColSpan > 1 {
		spans += ` colspan="` + strconv.Itoa(p.ColSpan) + `"`
	}

	align := p.Cell.Align
	if align == mdast.AlignNone {
		align = r.opts.Table.DefaultAlign
	}
	if align == mdast.AlignNone {
		align = mdast.AlignLeft
	}

	content := text(p.Cell.Content)
	if len(p.Cell.Tokens) > 0 {
		content = r.inlines(p.Cell.Tokens)
	}
	return fmt.Sprintf(`<%s%s style="border: 1px solid %s; padding: 6pt; text-align: %s;">%s</%s>`,
		tag, spans, border, align, content, tag)
}

// math renders a formula according to the configured output mode.
func (r *Renderer) math(t *mdast.Token) string {
	block := t.IsBlockMath()
	switch r.opts.MathMode() {
	case options.MathLatex:
		raw := t.Raw
		if raw == "" {
			raw = mathconv.Wrap(t.Text, block)
		}
		return "<span>" + html.EscapeString(raw) + "</span>"
	case options.MathUnicodeMath:
		return "<span>" + html.EscapeString(mathconv.ToUnicodeMath(t.Text)) + "</span>"
	case options.MathText:
		return "<span>" + html.EscapeString(mathconv.StripDelimiters(mathconv.Wrap(t.Text, block))) + "</span>"
	}

	mml, err := r.typeset(t.Text, block)
	if err != nil {
		r.logger.Warn("math typesetting failed", zap.String("tex", t.Text), zap.Error(err))
		return fmt.Sprintf(`<span style="color: %s;">%s</span>`, mathErrorColor, html.EscapeString(mathconv.Wrap(t.Text, block)))
	}
	return mml
}
