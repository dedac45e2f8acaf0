package docxrender

import (
	"html"
	"strings"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/highlight"
	"github.com/alnah/go-md2word/internal/mathconv"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/options"
)

// mathFont is the font of formulas kept as text.
const mathFont = "Cambria Math"

func (b *builder) bodyProps() docx.RunProps {
	return docx.RunProps{Font: b.r.opts.Text.FontFamily, Size: b.r.opts.Text.FontSize}
}

// inlines renders body text. fallback is used when tokens is empty.
func (b *builder) inlines(tokens []*mdast.Token, fallback string) []docx.Inline {
	return b.runs(tokens, fallback, b.bodyProps())
}

func (b *builder) runs(tokens []*mdast.Token, fallback string, props docx.RunProps) []docx.Inline {
	if len(tokens) == 0 {
		return textRuns(html.UnescapeString(fallback), props)
	}
	var out []docx.Inline
	for _, t := range tokens {
		if t != nil {
			out = append(out, b.inline(t, props)...)
		}
	}
	return out
}

// inline renders one token with the properties accumulated from its
// ancestors.
func (b *builder) inline(t *mdast.Token, props docx.RunProps) []docx.Inline {
	switch t.Kind {
	case mdast.Text:
		if len(t.Children) > 0 {
			return b.runs(t.Children, "", props)
		}
		return textRuns(html.UnescapeString(t.Text), props)
	case mdast.Strong:
		props.Bold = true
		return b.runs(t.Children, t.Text, props)
	case mdast.Em:
		props.Italic = true
		return b.runs(t.Children, t.Text, props)
	case mdast.Del:
		props.Strike = true
		return b.runs(t.Children, t.Text, props)
	case mdast.Link:
		return b.link(t, props)
	case mdast.Image:
		return textRuns(imageText(t), props)
	case mdast.Codespan:
		props.Font = b.r.opts.Code.FontFamily
		props.Shading = highlight.LightBackground
		return []docx.Inline{&docx.Run{Text: t.Text, Props: props}}
	case mdast.Br:
		return []docx.Inline{&docx.Run{Break: true, Props: props}}
	case mdast.HTML:
		// Inline tags carry no text of their own.
		return nil
	case mdast.InlineMath, mdast.BlockMath:
		return []docx.Inline{b.math(t, props)}
	}

	if len(t.Children) > 0 {
		return b.runs(t.Children, "", props)
	}
	if t.Raw != "" {
		return textRuns(t.Raw, props)
	}
	return textRuns(html.UnescapeString(t.Text), props)
}

// link wraps the runs of a link in a hyperlink. Content that is not a plain
// run, such as a formula, follows the hyperlink.
func (b *builder) link(t *mdast.Token, props docx.RunProps) []docx.Inline {
	props.Color = b.r.opts.Text.LinkColor
	props.Underline = true
	inner := b.runs(t.Children, t.Text, props)
	if strings.TrimSpace(t.Href) == "" {
		return inner
	}

	var runs []*docx.Run
	var rest []docx.Inline
	for _, in := range inner {
		if r, ok := in.(*docx.Run); ok {
			runs = append(runs, r)
			continue
		}
		rest = append(rest, in)
	}
	if len(runs) == 0 {
		runs = append(runs, &docx.Run{Text: t.Href, Props: props})
	}
	return append([]docx.Inline{b.d.Link(t.Href, runs...)}, rest...)
}

// math renders a formula in the configured dialect.
func (b *builder) math(t *mdast.Token, props docx.RunProps) docx.Inline {
	block := t.IsBlockMath()
	switch b.r.opts.MathMode() {
	case options.MathLatex:
		raw := t.Raw
		if raw == "" {
			raw = mathconv.Wrap(t.Text, block)
		}
		return &docx.Run{Text: strings.TrimSpace(raw), Props: props}
	case options.MathUnicodeMath:
		return &docx.Math{Text: mathconv.ToUnicodeMath(t.Text), Display: block}
	}
	props.Font = mathFont
	return &docx.Run{Text: strings.TrimSpace(mathconv.StripDelimiters(mathconv.Wrap(t.Text, block))), Props: props}
}

// imageText is the textual stand-in of an image that is not fetched.
func imageText(t *mdast.Token) string {
	alt := strings.TrimSpace(t.Text)
	switch {
	case t.Href == "":
		return alt
	case alt == "":
		return t.Href
	}
	return alt + " (" + t.Href + ")"
}

// textRuns emits one run per line, separated by explicit breaks.
func textRuns(s string, props docx.RunProps) []docx.Inline {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	out := make([]docx.Inline, 0, 2*len(lines)-1)
	for i, l := range lines {
		if i > 0 {
			out = append(out, &docx.Run{Break: true, Props: props})
		}
		if l != "" {
			out = append(out, &docx.Run{Text: l, Props: props})
		}
	}
	return out
}
