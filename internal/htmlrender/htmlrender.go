// Package htmlrender turns a token tree into an inline-styled HTML fragment
// that Word and most rich-text editors paste without losing layout.
package htmlrender

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/wyatt915/treeblood"
	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/highlight"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/options"
)

// ErrMath indicates a formula could not be typeset.
var ErrMath = errors.New("math typesetting failed")

const mathErrorColor = "#cc0000"

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for degraded blocks.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// Renderer emits HTML for one set of options. It is safe for concurrent use.
type Renderer struct {
	opts   options.ConversionOptions
	logger *zap.Logger
	hl     *highlight.Highlighter

	mathMu sync.Mutex
	pitz   *treeblood.Pitziil
}

// New returns a Renderer for opts.
func New(opts options.ConversionOptions, optFns ...Option) *Renderer {
	r := &Renderer{
		opts:   opts,
		logger: zap.NewNop(),
		hl:     highlight.New(opts.Dark()),
	}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Render returns the HTML fragment of doc. Top-level blocks are separated by
// newlines. Rendering never fails: blocks that cannot be rendered degrade to
// escaped text.
func (r *Renderer) Render(doc *mdast.Document) string {
	if doc == nil {
		return ""
	}
	return r.blocks(doc.Tokens, "\n")
}

func (r *Renderer) blocks(tokens []*mdast.Token, sep string) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == nil {
			continue
		}
		parts = append(parts, r.block(t))
	}
	return strings.Join(parts, sep)
}

func (r *Renderer) block(t *mdast.Token) string {
	switch t.Kind {
	case mdast.Heading:
		return r.heading(t)
	case mdast.Paragraph:
		return fmt.Sprintf(`<p style="font-size: %spt; line-height: %s; margin: 8pt 0; text-align: left; font-family: %s;">%s</p>`,
			num(r.opts.Text.FontSize), num(r.opts.Text.LineHeight), attr(r.opts.Text.FontFamily), r.inlines(t.Children))
	case mdast.Text:
		if len(t.Children) > 0 {
			return r.inlines(t.Children)
		}
		return text(t.Text)
	case mdast.List:
		return r.list(t)
	case mdast.Blockquote:
		return fmt.Sprintf(`<blockquote style="border-left: 3px solid #e5e7eb; padding-left: 12pt; margin: 12pt 0; font-family: %s;">%s</blockquote>`,
			attr(r.opts.Text.FontFamily), r.blocks(t.Children, "\n"))
	case mdast.HR:
		return `<hr>`
	case mdast.HTML:
		return t.Text
	case mdast.Code:
		return r.code(t)
	case mdast.Table:
		return r.table(t)
	case mdast.BlockMath:
		return `<div style="margin: 12pt 0; text-align: center;">` + r.math(t) + `</div>`
	}
	return r.inline(t)
}

func (r *Renderer) heading(t *mdast.Token) string {
	level := min(max(t.Depth, 1), 6)
	return fmt.Sprintf(`<h%d style="font-size: %spt; font-weight: 700; margin: 24pt 0 12pt; font-family: %s;">%s</h%d>`,
		level, num(r.opts.HeadingSize(level)), attr(r.opts.Heading.FontFamily), r.inlines(t.Children), level)
}

func (r *Renderer) list(t *mdast.Token) string {
	tag := "ul"
	start := ""
	if t.Ordered {
		tag = "ol"
		if t.Start > 1 {
			start = ` start="` + strconv.Itoa(t.Start) + `"`
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<%s%s style="margin: 8pt 0; padding-left: 24pt;">`, tag, start)
	for _, item := range t.Items {
		fmt.Fprintf(&b, `<li style="margin: 4pt 0; font-family: %s;">`, attr(r.opts.Text.FontFamily))
		if item.Checked != nil {
			if *item.Checked {
				b.WriteString("☑ ")
			} else {
				b.WriteString("☐ ")
			}
		}
		b.WriteString(r.blocks(item.Children, ""))
		b.WriteString(`</li>`)
	}
	fmt.Fprintf(&b, `</%s>`, tag)
	return b.String()
}

func (r *Renderer) inlines(tokens []*mdast.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		if t != nil {
			b.WriteString(r.inline(t))
		}
	}
	return b.String()
}

func (r *Renderer) inline(t *mdast.Token) string {
	switch t.Kind {
	case mdast.Text:
		if len(t.Children) > 0 {
			return r.inlines(t.Children)
		}
		return text(t.Text)
	case mdast.Strong:
		return "<strong>" + r.inlines(t.Children) + "</strong>"
	case mdast.Em:
		return "<em>" + r.inlines(t.Children) + "</em>"
	case mdast.Del:
		return "<del>" + r.inlines(t.Children) + "</del>"
	case mdast.Link:
		title := ""
		if t.Title != "" {
			title = ` title="` + attr(t.Title) + `"`
		}
		return fmt.Sprintf(`<a href="%s"%s style="color: %s; text-decoration: underline;">%s</a>`,
			attr(t.Href), title, attr(r.opts.Text.LinkColor), r.inlines(t.Children))
	case mdast.Image:
		title := ""
		if t.Title != "" {
			title = ` title="` + attr(t.Title) + `"`
		}
		return fmt.Sprintf(`<img src="%s" alt="%s"%s style="max-width: 100%%;">`, attr(t.Href), attr(t.Text), title)
	case mdast.Codespan:
		return fmt.Sprintf(`<code style="font-family: %s;">%s</code>`, attr(r.opts.Code.FontFamily), text(t.Text))
	case mdast.Br:
		return "<br>"
	case mdast.HTML:
		return t.Text
	case mdast.InlineMath, mdast.BlockMath:
		return r.math(t)
	}

	if len(t.Children) > 0 {
		return r.inlines(t.Children)
	}
	if t.Raw != "" {
		return text(t.Raw)
	}
	return text(t.Text)
}

// text decodes entities left by the tokenizer and escapes once.
func text(s string) string {
	return html.EscapeString(html.UnescapeString(s))
}

func attr(s string) string {
	return html.EscapeString(s)
}

// num formats a point size without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// typeset converts TeX to MathML. The treeblood document is not safe for
// concurrent use and may panic on malformed input.
func (r *Renderer) typeset(tex string, block bool) (mml string, err error) {
	r.mathMu.Lock()
	defer r.mathMu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			mml, err = "", fmt.Errorf("%w: %v", ErrMath, p)
		}
	}()

	if r.pitz == nil {
		r.pitz = treeblood.NewDocument(nil, false)
	}
	if block {
		mml, err = r.pitz.DisplayStyle(tex)
	} else {
		mml, err = r.pitz.TextStyle(tex)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMath, err)
	}
	return mml, nil
}
