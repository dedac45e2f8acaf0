package md2word

// Notes:
// - countingRenderer wraps the production HTML renderer to count invocations
//   for the cache tests
// - fakeDiagrams stands in for the browser so diagram embedding runs without
//   Chrome
// - .docx output is checked through docx.ReadBytes, HTML structure through
//   goquery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/mdast"
)

// ---------------------------------------------------------------------------
// Test Doubles
// ---------------------------------------------------------------------------

type countingRenderer struct {
	calls atomic.Int32
	inner inlineStyleRenderer
}

func (r *countingRenderer) RenderHTML(opts ConversionOptions, doc *mdast.Document) string {
	r.calls.Add(1)
	return r.inner.RenderHTML(opts, doc)
}

type panicRenderer struct{}

func (panicRenderer) RenderHTML(ConversionOptions, *mdast.Document) string {
	panic("boom")
}

// withHTMLRenderer injects the HTML renderer.
func withHTMLRenderer(r htmlRenderer) Option {
	return func(c *Converter) {
		c.html = r
	}
}

type fakeDiagrams struct {
	mu      sync.Mutex
	sources []string
	err     error
	closed  bool
}

func (f *fakeDiagrams) RenderDiagram(_ context.Context, _, source string) (*Raster, error) {
	f.mu.Lock()
	f.sources = append(f.sources, source)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &Raster{PNG: tinyPNG(), Width: 40, Height: 20}, nil
}

func (f *fakeDiagrams) Close() error {
	f.closed = true
	return nil
}

func tinyPNG() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 1)))
	return buf.Bytes()
}

func newTestConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	c, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

const simpleTable = "| A | B |\n| --- | --- |\n| 1 | 2 |"

// ---------------------------------------------------------------------------
// TestConverter_EndToEndTable - One table in both outputs
// ---------------------------------------------------------------------------

func TestConverter_EndToEndTable(t *testing.T) {
	t.Parallel()

	c := newTestConverter(t)
	ctx := context.Background()

	res, err := c.Docx(ctx, Input{Markdown: simpleTable})
	if err != nil {
		t.Fatalf("Docx() error = %v", err)
	}
	sum, err := docx.ReadBytes(res.Docx)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if len(sum.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(sum.Tables))
	}
	rows := sum.Tables[0].Rows
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 2 {
		t.Fatalf("table shape = %v, want 2 rows of 2 cells", rows)
	}
	if rows[0][0].Text != "A" || rows[1][1].Text != "2" {
		t.Errorf("cells = %q/%q, want A/2", rows[0][0].Text, rows[1][1].Text)
	}

	hr, err := c.HTML(ctx, Input{Markdown: simpleTable})
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{"<table", "<th", "<td"} {
		if !strings.Contains(hr.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, hr.HTML)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Cache - Renderer invocations with and without cache
// ---------------------------------------------------------------------------

func TestConverter_Cache(t *testing.T) {
	t.Parallel()

	t.Run("identical calls render once", func(t *testing.T) {
		t.Parallel()

		r := &countingRenderer{}
		c := newTestConverter(t, withHTMLRenderer(r))
		in := Input{Markdown: "# Title\n\nbody"}

		first, err := c.HTML(context.Background(), in)
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		second, err := c.HTML(context.Background(), in)
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if got := r.calls.Load(); got != 1 {
			t.Errorf("renderer calls = %d, want 1", got)
		}
		if first.Cached || !second.Cached {
			t.Errorf("Cached = %v/%v, want false/true", first.Cached, second.Cached)
		}
		if first.HTML != second.HTML || first.Stats != second.Stats {
			t.Error("cached result differs from the rendered one")
		}
	})

	t.Run("clear forces a second render", func(t *testing.T) {
		t.Parallel()

		r := &countingRenderer{}
		c := newTestConverter(t, withHTMLRenderer(r))
		in := Input{Markdown: "text"}

		if _, err := c.HTML(context.Background(), in); err != nil {
			t.Fatal(err)
		}
		c.ClearCache()
		if _, err := c.HTML(context.Background(), in); err != nil {
			t.Fatal(err)
		}
		if got := r.calls.Load(); got != 2 {
			t.Errorf("renderer calls = %d, want 2", got)
		}
	})

	t.Run("different options miss", func(t *testing.T) {
		t.Parallel()

		r := &countingRenderer{}
		c := newTestConverter(t, withHTMLRenderer(r))
		dark := DefaultOptions()
		dark.Code.Theme = "dark"

		if _, err := c.HTML(context.Background(), Input{Markdown: "text"}); err != nil {
			t.Fatal(err)
		}
		if _, err := c.HTML(context.Background(), Input{Markdown: "text", Options: &dark}); err != nil {
			t.Fatal(err)
		}
		if got := r.calls.Load(); got != 2 {
			t.Errorf("renderer calls = %d, want 2", got)
		}
	})

	t.Run("nil cache disables caching", func(t *testing.T) {
		t.Parallel()

		r := &countingRenderer{}
		c := newTestConverter(t, withHTMLRenderer(r), WithCache(nil))
		in := Input{Markdown: "text"}

		for range 3 {
			res, err := c.HTML(context.Background(), in)
			if err != nil {
				t.Fatal(err)
			}
			if res.Cached {
				t.Error("Cached = true with caching disabled")
			}
		}
		if got := r.calls.Load(); got != 3 {
			t.Errorf("renderer calls = %d, want 3", got)
		}
	})
}

// ---------------------------------------------------------------------------
// TestConverter_Errors - Input validation and classification
// ---------------------------------------------------------------------------

func TestConverter_Errors(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	badOpts := DefaultOptions()
	badOpts.Math.Output = "mathjax"

	tests := []struct {
		name        string
		ctx         context.Context
		in          Input
		wantErr     error
		wantKind    Kind
		recoverable bool
	}{
		{
			name:     "empty markdown",
			ctx:      context.Background(),
			in:       Input{Markdown: "  \n\t"},
			wantErr:  ErrEmptyMarkdown,
			wantKind: KindConvert,
		},
		{
			name:     "too large",
			ctx:      context.Background(),
			in:       Input{Markdown: strings.Repeat("a", 65)},
			wantErr:  ErrInputTooLarge,
			wantKind: KindConvert,
		},
		{
			name:     "invalid options",
			ctx:      context.Background(),
			in:       Input{Markdown: "x", Options: &badOpts},
			wantErr:  ErrInvalidOptions,
			wantKind: KindConvert,
		},
		{
			name:        "canceled",
			ctx:         canceled,
			in:          Input{Markdown: "x"},
			wantErr:     context.Canceled,
			wantKind:    KindSystem,
			recoverable: true,
		},
	}

	c := newTestConverter(t, WithMaxInputSize(64))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, htmlErr := c.HTML(tt.ctx, tt.in)
			_, docxErr := c.Docx(tt.ctx, tt.in)
			for _, err := range []error{htmlErr, docxErr} {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				var ce *ConversionError
				if !errors.As(err, &ce) {
					t.Fatalf("error %T is not a *ConversionError", err)
				}
				if ce.Kind != tt.wantKind || ce.Recoverable != tt.recoverable {
					t.Errorf("kind/recoverable = %s/%v, want %s/%v", ce.Kind, ce.Recoverable, tt.wantKind, tt.recoverable)
				}
			}
		})
	}
}

func TestNewConverter_InvalidOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Text.FontSize = 0

	_, err := NewConverter(WithOptions(opts))
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("NewConverter() error = %v, want ErrInvalidOptions", err)
	}
}

func TestConverter_RecoversPanic(t *testing.T) {
	t.Parallel()

	c := newTestConverter(t, withHTMLRenderer(panicRenderer{}))

	_, err := c.HTML(context.Background(), Input{Markdown: "x"})
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConversionError", err)
	}
	if ce.Kind != KindConvert || !strings.Contains(ce.Error(), "boom") {
		t.Errorf("error = %v, want convert error carrying the panic", ce)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_HTML - Rendering through the full pipeline
// ---------------------------------------------------------------------------

func TestConverter_HTML(t *testing.T) {
	t.Parallel()

	c := newTestConverter(t)
	md := "# Report[1]\n\nSee \\(x^2\\) here.\n\n| k | v |\n|---|---|\n| a | 1 |\n| 同上 | 2 |\n\nCopy code\n"

	res, err := c.HTML(context.Background(), Input{Markdown: md})
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(doc.Find("h1").Text()); got != "Report" {
		t.Errorf("h1 = %q, want citation removed", got)
	}
	if doc.Find("math").Length() != 1 {
		t.Errorf("want one MathML formula from the normalized \\( \\) span:\n%s", res.HTML)
	}
	if got := doc.Find("td").First().AttrOr("rowspan", ""); got != "2" {
		t.Errorf("rowspan = %q, want 2", got)
	}
	if strings.Contains(res.HTML, "Copy code") {
		t.Error("Copy code label survived cleaning")
	}

	if res.Stats.Tables != 1 || res.Stats.Headings != 1 {
		t.Errorf("stats = %+v, want 1 table and 1 heading", res.Stats)
	}
	if strings.Contains(res.PlainText, "#") {
		t.Errorf("PlainText = %q, want heading marks removed", res.PlainText)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Docx - Properties and diagrams
// ---------------------------------------------------------------------------

func TestConverter_Docx(t *testing.T) {
	t.Parallel()

	t.Run("title from first heading", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		res, err := c.Docx(context.Background(), Input{Markdown: "intro\n\n## Quarterly *numbers*\n\n# Later"})
		if err != nil {
			t.Fatal(err)
		}
		sum, err := docx.ReadBytes(res.Docx)
		if err != nil {
			t.Fatal(err)
		}
		if sum.Title != "Quarterly numbers" {
			t.Errorf("Title = %q, want first heading text", sum.Title)
		}
	})

	t.Run("explicit properties", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		res, err := c.Docx(context.Background(), Input{
			Markdown: "# Heading",
			Properties: &DocumentProperties{
				Title:   "Annual",
				Author:  "Ops Team",
				Created: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		sum, err := docx.ReadBytes(res.Docx)
		if err != nil {
			t.Fatal(err)
		}
		if sum.Title != "Annual" || sum.Author != "Ops Team" {
			t.Errorf("properties = %q/%q, want Annual/Ops Team", sum.Title, sum.Author)
		}
	})

	t.Run("diagrams embedded", func(t *testing.T) {
		t.Parallel()

		fake := &fakeDiagrams{}
		c := newTestConverter(t, WithDiagramRenderer(fake))
		md := "```mermaid\ngraph TD; A-->B\n```\n\ntext\n\n```mermaid\ngraph LR; C-->D\n```\n"

		res, err := c.Docx(context.Background(), Input{Markdown: md})
		if err != nil {
			t.Fatalf("Docx() error = %v", err)
		}
		if res.Diagrams != 2 {
			t.Errorf("Diagrams = %d, want 2", res.Diagrams)
		}
		sum, err := docx.ReadBytes(res.Docx)
		if err != nil {
			t.Fatal(err)
		}
		if sum.Images != 2 {
			t.Errorf("Images = %d, want 2", sum.Images)
		}
		if len(fake.sources) != 2 {
			t.Errorf("renderer saw %d diagrams, want 2", len(fake.sources))
		}
	})

	t.Run("default keeps diagram source", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		res, err := c.Docx(context.Background(), Input{Markdown: "```mermaid\ngraph TD; A-->B\n```"})
		if err != nil {
			t.Fatal(err)
		}
		if res.Diagrams != 0 {
			t.Errorf("Diagrams = %d, want 0", res.Diagrams)
		}
		sum, err := docx.ReadBytes(res.Docx)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(strings.Join(sum.Paragraphs, "\n"), "A-->B") {
			t.Errorf("paragraphs = %q, want the diagram source", sum.Paragraphs)
		}
	})
}

func TestConverter_CloseClosesDiagrams(t *testing.T) {
	t.Parallel()

	fake := &fakeDiagrams{}
	c, err := NewConverter(WithDiagramRenderer(fake))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.closed {
		t.Error("diagram renderer not closed")
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Clipboard - HTML plus plain text
// ---------------------------------------------------------------------------

func TestConverter_Clipboard(t *testing.T) {
	t.Parallel()

	c := newTestConverter(t)
	md := "Energy $E=mc^2$ and\n\n$$\\int x dx$$"

	tests := []struct {
		name      string
		stripMath bool
		want      string
	}{
		{name: "source kept", stripMath: false, want: md},
		{name: "math stripped", stripMath: true, want: "Energy E=mc^2 and\n\n\\int x dx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := c.Clipboard(context.Background(), Input{Markdown: md, StripMath: tt.stripMath})
			if err != nil {
				t.Fatalf("Clipboard() error = %v", err)
			}
			if data.PlainText != tt.want {
				t.Errorf("PlainText = %q, want %q", data.PlainText, tt.want)
			}
			if !strings.Contains(data.HTML, "<math") {
				t.Errorf("HTML = %q, want MathML", data.HTML)
			}
		})
	}
}
