// Package parser tokenizes Markdown into the mdast token tree using goldmark
// with GFM and dollar math.
package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-md2word/internal/mdast"
)

// ErrParse indicates the grammar engine failed on the input.
var ErrParse = errors.New("markdown parsing failed")

// Parser converts Markdown text to a token tree. It is safe for concurrent
// use.
type Parser struct {
	md goldmark.Markdown
}

// New creates a Parser with GFM (tables, strikethrough, task lists, linkify)
// and dollar math enabled.
func New() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&mathExtension{},
		),
	)
	return &Parser{md: md}
}

// Parse tokenizes src. goldmark has no context support, so parsing runs in a
// goroutine raced against ctx.
func (p *Parser) Parse(ctx context.Context, src string) (*mdast.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		doc *mdast.Document
		err error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrParse, r)}
			}
		}()
		done <- result{doc: p.ParseString(src)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.doc, r.err
	}
}

// ParseString tokenizes src synchronously.
func (p *Parser) ParseString(src string) *mdast.Document {
	source := []byte(src)
	root := p.md.Parser().Parse(text.NewReader(source))
	c := converter{source: source}
	return &mdast.Document{
		Tokens: c.blocks(root),
		Raw:    src,
	}
}
