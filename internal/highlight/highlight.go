// Package highlight tokenizes code blocks with chroma and exposes the result
// as colored lines for both the HTML and the docx renderer.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Sentinel errors for highlighting.
var (
	ErrUnknownLanguage = errors.New("no lexer for language")
	ErrHighlight       = errors.New("highlighting failed")
)

// Style names per code theme.
const (
	LightStyle = "github"
	DarkStyle  = "monokai"
)

// Background colors of the code block shading per theme.
const (
	LightBackground = "#f5f5f5"
	DarkBackground  = "#272822"
)

// Span is a run of code text with a single style.
type Span struct {
	Text   string
	Color  string // "#rrggbb", empty for the default color
	Bold   bool
	Italic bool
}

// Line is a highlighted code line without its line terminator.
type Line []chroma.Token

// Highlighter tokenizes code with one chroma style.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New returns a Highlighter using the dark or light style.
func New(dark bool) *Highlighter {
	name := LightStyle
	if dark {
		name = DarkStyle
	}
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style: style,
		formatter: chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Background returns the block shading color for the theme.
func Background(dark bool) string {
	if dark {
		return DarkBackground
	}
	return LightBackground
}

// Tokenize splits code into highlighted lines. It returns ErrUnknownLanguage
// when lang is empty or chroma has no lexer for it.
func (h *Highlighter) Tokenize(code, lang string) (lines []Line, err error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil, ErrUnknownLanguage
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	lexer = chroma.Coalesce(lexer)

	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("%w: %s: %v", ErrHighlight, lang, r)
		}
	}()

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHighlight, lang, err)
	}
	for _, l := range chroma.SplitTokensIntoLines(it.Tokens()) {
		lines = append(lines, trimNewline(l))
	}
	return lines, nil
}

// HTML formats a line as inline-styled spans.
func (h *Highlighter) HTML(line Line) (string, error) {
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, chroma.Literator(line...)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return b.String(), nil
}

// Spans resolves a line's token types to concrete colors and weights.
func (h *Highlighter) Spans(line Line) []Span {
	spans := make([]Span, 0, len(line))
	for _, tok := range line {
		entry := h.style.Get(tok.Type)
		s := Span{
			Text:   tok.Value,
			Bold:   entry.Bold == chroma.Yes,
			Italic: entry.Italic == chroma.Yes,
		}
		if entry.Colour.IsSet() {
			s.Color = entry.Colour.String()
		}
		if n := len(spans); n > 0 && spans[n-1].sameStyle(s) {
			spans[n-1].Text += s.Text
			continue
		}
		spans = append(spans, s)
	}
	return spans
}

func (s Span) sameStyle(o Span) bool {
	return s.Color == o.Color && s.Bold == o.Bold && s.Italic == o.Italic
}

// trimNewline drops the line terminator chroma keeps on the last token.
func trimNewline(tokens []chroma.Token) Line {
	out := make(Line, 0, len(tokens))
	for i, tok := range tokens {
		if i == len(tokens)-1 {
			tok.Value = strings.TrimSuffix(tok.Value, "\n")
			if tok.Value == "" {
				break
			}
		}
		out = append(out, tok)
	}
	return out
}
