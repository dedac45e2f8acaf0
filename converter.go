package md2word

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/docxrender"
	"github.com/alnah/go-md2word/internal/htmlrender"
	"github.com/alnah/go-md2word/internal/mathconv"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/parser"
	"github.com/alnah/go-md2word/internal/pipeline"
)

// DefaultMaxInputSize caps the Markdown accepted by one conversion.
const DefaultMaxInputSize = 10 << 20

// htmlRenderer renders a token tree to an HTML fragment.
type htmlRenderer interface {
	RenderHTML(opts ConversionOptions, doc *mdast.Document) string
}

// Compile-time interface checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.Preprocessor)(nil)
	_ htmlRenderer                  = (*inlineStyleRenderer)(nil)
	_ DiagramRenderer               = (*rodDiagramRenderer)(nil)
	_ DiagramRenderer               = NopDiagramRenderer{}
)

// inlineStyleRenderer is the production htmlRenderer.
type inlineStyleRenderer struct {
	logger *zap.Logger
}

func (r *inlineStyleRenderer) RenderHTML(opts ConversionOptions, doc *mdast.Document) string {
	return htmlrender.New(opts, htmlrender.WithLogger(r.logger)).Render(doc)
}

// Converter runs the Markdown to HTML and .docx pipeline: cleaning, math
// normalization, tokenizing with table annotation, then rendering. Create
// with NewConverter and Close when done. A Converter is safe for concurrent
// use when its DiagramRenderer is.
type Converter struct {
	opts         ConversionOptions
	cleanerOpts  CleanerOptions
	logger       *zap.Logger
	cache        *Cache
	noCache      bool
	diagrams     DiagramRenderer
	maxInput     int
	preprocessor pipeline.MarkdownPreprocessor
	parser       *parser.Parser
	html         htmlRenderer
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOptions sets the default conversion options.
func WithOptions(o ConversionOptions) Option {
	return func(c *Converter) {
		c.opts = o
	}
}

// WithCleaner selects the cleaning passes run before parsing.
func WithCleaner(o CleanerOptions) Option {
	return func(c *Converter) {
		c.cleanerOpts = o
	}
}

// WithCache sets the HTML result cache. nil disables caching.
func WithCache(cache *Cache) Option {
	return func(c *Converter) {
		c.cache = cache
		c.noCache = cache == nil
	}
}

// WithDiagramRenderer sets the renderer for diagram code blocks in .docx
// output. The Converter closes it on Close.
func WithDiagramRenderer(d DiagramRenderer) Option {
	return func(c *Converter) {
		if d != nil {
			c.diagrams = d
		}
	}
}

// WithMaxInputSize caps the Markdown size in bytes. Non-positive values
// keep the default.
func WithMaxInputSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxInput = n
		}
	}
}

// NewConverter creates a Converter. Without WithDiagramRenderer, diagram
// blocks stay code blocks. Returns an error wrapping ErrInvalidOptions when
// the options do not validate.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		opts:        DefaultOptions(),
		cleanerOpts: DefaultCleanerOptions(),
		logger:      zap.NewNop(),
		diagrams:    NopDiagramRenderer{},
		maxInput:    DefaultMaxInputSize,
		parser:      parser.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.opts.Validate(); err != nil {
		return nil, classify("validating options", err)
	}
	if c.cache == nil && !c.noCache {
		c.cache = NewCache(DefaultCacheCapacity, DefaultCacheTTL)
	}
	if c.preprocessor == nil {
		c.preprocessor = pipeline.NewPreprocessor(c.cleanerOpts)
	}
	if c.html == nil {
		c.html = &inlineStyleRenderer{logger: c.logger}
	}
	return c, nil
}

// HTML converts Markdown to an inline-styled HTML fragment. Results are
// cached by text and options.
func (c *Converter) HTML(ctx context.Context, in Input) (result *HTMLResult, err error) {
	defer c.recoverInto("converting to HTML", &err)

	opts, err := c.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	key, cacheable := "", false
	if c.cache != nil {
		key, cacheable = cacheKey(in.Markdown, opts, c.cleanerOpts)
	}
	if cacheable {
		if e, ok := c.cache.get(key); ok {
			c.logger.Debug("html cache hit")
			return &HTMLResult{HTML: e.html, PlainText: PlainText(in.Markdown), Stats: e.stats, Cached: true}, nil
		}
	}

	doc, err := c.parse(ctx, in.Markdown)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := c.html.RenderHTML(opts, doc)
	c.logger.Debug("rendered html", zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", len(out)))
	if err := ctx.Err(); err != nil {
		return nil, classify("converting to HTML", err)
	}

	stats := ComputeStats(in.Markdown, doc)
	if cacheable {
		c.cache.set(key, out, stats)
	}
	return &HTMLResult{HTML: out, PlainText: PlainText(in.Markdown), Stats: stats}, nil
}

// Docx converts Markdown to a .docx package. Diagram blocks are rasterized
// through the DiagramRenderer; failed ones stay code blocks.
func (c *Converter) Docx(ctx context.Context, in Input) (result *DocxResult, err error) {
	defer c.recoverInto("converting to docx", &err)

	opts, err := c.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	doc, err := c.parse(ctx, in.Markdown)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	r := docxrender.New(opts, docxrender.WithLogger(c.logger), docxrender.WithDiagrams(c.diagrams))
	d, err := r.Render(ctx, doc)
	if err != nil {
		return nil, classify("building document", err)
	}
	d.Properties = properties(in.Properties, doc)

	data, err := d.Bytes()
	if err != nil {
		return nil, classify("serializing document", err)
	}
	c.logger.Debug("rendered docx",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(data)),
		zap.Int("diagrams", d.Pictures()))
	if err := ctx.Err(); err != nil {
		return nil, classify("converting to docx", err)
	}

	return &DocxResult{Docx: data, Stats: ComputeStats(in.Markdown, doc), Diagrams: d.Pictures()}, nil
}

// Clipboard returns the rich clipboard payload of the Markdown: its HTML and
// the Markdown source as plain text, with math delimiters removed when
// StripMath is set.
func (c *Converter) Clipboard(ctx context.Context, in Input) (data *ClipboardData, err error) {
	defer c.recoverInto("preparing clipboard", &err)

	res, err := c.HTML(ctx, in)
	if err != nil {
		return nil, err
	}
	text := in.Markdown
	if in.StripMath && mathconv.ContainsMath(text) {
		text = mathconv.StripDelimiters(text)
	}
	return &ClipboardData{HTML: res.HTML, PlainText: text}, nil
}

// ClearCache drops every cached HTML result.
func (c *Converter) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Close releases the DiagramRenderer.
func (c *Converter) Close() error {
	if c.diagrams != nil {
		return c.diagrams.Close()
	}
	return nil
}

// prepare validates the input and resolves the options of one call.
func (c *Converter) prepare(ctx context.Context, in Input) (ConversionOptions, error) {
	if err := ctx.Err(); err != nil {
		return ConversionOptions{}, classify("conversion aborted", err)
	}
	if strings.TrimSpace(in.Markdown) == "" {
		return ConversionOptions{}, classify("validating input", ErrEmptyMarkdown)
	}
	if len(in.Markdown) > c.maxInput {
		return ConversionOptions{}, classify("validating input",
			fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(in.Markdown), c.maxInput))
	}

	opts := c.opts
	if in.Options != nil {
		opts = *in.Options
		if err := opts.Validate(); err != nil {
			return ConversionOptions{}, classify("validating options", err)
		}
	}
	return opts, nil
}

// parse preprocesses and tokenizes markdown.
func (c *Converter) parse(ctx context.Context, markdown string) (*mdast.Document, error) {
	start := time.Now()
	md := c.preprocessor.PreprocessMarkdown(ctx, markdown)
	doc, err := c.parser.Parse(ctx, md)
	if err != nil {
		return nil, classify("parsing markdown", err)
	}
	c.logger.Debug("parsed markdown",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("blocks", len(doc.Tokens)))
	return doc, nil
}

// recoverInto turns a panic into a convert error.
func (c *Converter) recoverInto(message string, err *error) {
	if r := recover(); r != nil {
		c.logger.Error("conversion panicked", zap.Any("panic", r))
		*err = &ConversionError{Kind: KindConvert, Message: message, Err: fmt.Errorf("internal error: %v", r)}
	}
}

// properties resolves the core properties, taking the title from the first
// heading when none is given.
func properties(p *DocumentProperties, doc *mdast.Document) docx.Properties {
	var out docx.Properties
	if p != nil {
		out = docx.Properties{
			Title:    p.Title,
			Author:   p.Author,
			Subject:  p.Subject,
			Keywords: p.Keywords,
			Created:  p.Created,
			Modified: p.Modified,
		}
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = firstHeading(doc)
	}
	return out
}

func firstHeading(doc *mdast.Document) string {
	if doc == nil {
		return ""
	}
	for _, t := range doc.Tokens {
		if t != nil && t.Kind == mdast.Heading {
			if len(t.Children) > 0 {
				return strings.TrimSpace(mdast.PlainText(t.Children))
			}
			return strings.TrimSpace(t.Text)
		}
	}
	return ""
}
