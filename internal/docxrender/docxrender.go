// Package docxrender builds a Word document object graph from a token tree.
//
// The renderer mirrors the HTML renderer's choices (merge layout, math
// dialects, highlighting) in WordprocessingML terms: styles instead of CSS,
// gridSpan and vMerge instead of colspan and rowspan, numbering instances
// instead of ol/ul. Diagram blocks are rasterized through a DiagramRenderer
// before the document is assembled.
package docxrender

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/highlight"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/options"
)

// ErrTable indicates a table could not be laid out.
var ErrTable = errors.New("table construction failed")

// Raster is a rendered diagram. Width and Height are in CSS pixels; PNG may
// be captured at a higher device scale.
type Raster struct {
	PNG    []byte
	Width  int
	Height int
}

// DiagramRenderer rasterizes diagram source such as mermaid.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, lang, source string) (*Raster, error)
	Close() error
}

// diagramLanguages are the code block languages sent to the DiagramRenderer.
var diagramLanguages = map[string]bool{
	"mermaid": true,
}

// IsDiagram reports whether a code block language is rendered as a diagram.
func IsDiagram(lang string) bool {
	return diagramLanguages[strings.ToLower(strings.TrimSpace(lang))]
}

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

// WithDiagrams sets the renderer used for diagram code blocks. Without one,
// diagrams stay literal code blocks.
func WithDiagrams(d DiagramRenderer) Option {
	return func(r *Renderer) {
		r.diagrams = d
	}
}

// Renderer builds documents for one set of options. It is safe for
// concurrent use when its DiagramRenderer is.
type Renderer struct {
	opts     options.ConversionOptions
	logger   *zap.Logger
	hl       *highlight.Highlighter
	diagrams DiagramRenderer
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

// Render builds the document of doc. Blocks that cannot be rendered degrade
// locally; only cancellation is returned as an error.
func (r *Renderer) Render(ctx context.Context, doc *mdast.Document) (*docx.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := docx.New(r.styles())
	if doc == nil {
		return d, nil
	}

	rasters, err := r.renderDiagrams(ctx, doc.Tokens)
	if err != nil {
		return nil, err
	}

	b := &builder{r: r, d: d, rasters: rasters}
	for _, t := range doc.Tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t != nil {
			d.Add(b.block(t, frame{})...)
		}
	}
	return d, nil
}

func (r *Renderer) styles() docx.Styles {
	o := r.opts
	return docx.Styles{
		BodyFont:    o.Text.FontFamily,
		BodySize:    o.Text.FontSize,
		LineHeight:  o.Text.LineHeight,
		HeadingFont: o.Heading.FontFamily,
		HeadingSizes: [6]float64{
			o.Heading.H1Size, o.Heading.H2Size, o.Heading.H3Size,
			o.Heading.H4Size, o.Heading.H5Size, o.Heading.H6Size,
		},
		CodeFont:    o.Code.FontFamily,
		CodeSize:    o.Code.FontSize,
		CodeShading: highlight.Background(o.Dark()),
		LinkColor:   o.Text.LinkColor,
	}
}

// renderDiagrams rasterizes every diagram block at once and returns the
// successful results by token. Failed diagrams are logged and left out.
func (r *Renderer) renderDiagrams(ctx context.Context, tokens []*mdast.Token) (map[*mdast.Token]*Raster, error) {
	if r.diagrams == nil {
		return nil, nil
	}

	var jobs []*mdast.Token
	mdast.Walk(tokens, func(t *mdast.Token) bool {
		if t.Kind == mdast.Code && IsDiagram(t.Lang) {
			jobs = append(jobs, t)
		}
		return true
	})
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([]*Raster, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range jobs {
		g.Go(func() error {
			lang := strings.ToLower(strings.TrimSpace(t.Lang))
			ras, err := r.diagrams.RenderDiagram(gctx, lang, t.Text)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("diagram rendering failed, keeping source", zap.String("lang", lang), zap.Error(err))
				return nil
			}
			if ras == nil || len(ras.PNG) == 0 {
				r.logger.Warn("diagram renderer returned no image", zap.String("lang", lang))
				return nil
			}
			results[i] = ras
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[*mdast.Token]*Raster, len(jobs))
	for i, t := range jobs {
		if results[i] != nil {
			out[t] = results[i]
		}
	}
	return out, nil
}
