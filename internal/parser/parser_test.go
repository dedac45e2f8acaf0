package parser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/parser"
)

func parse(t *testing.T, src string) *mdast.Document {
	t.Helper()
	doc, err := parser.New().Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return doc
}

func kinds(tokens []*mdast.Token) []mdast.Kind {
	out := make([]mdast.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func equalKinds(a, b []mdast.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// TestParse_Blocks - Block token mapping
// ---------------------------------------------------------------------------

func TestParse_Blocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []mdast.Kind
	}{
		{name: "heading", input: "# Title", want: []mdast.Kind{mdast.Heading}},
		{name: "paragraphs", input: "one\n\ntwo", want: []mdast.Kind{mdast.Paragraph, mdast.Paragraph}},
		{name: "fenced code", input: "```go\nx := 1\n```", want: []mdast.Kind{mdast.Code}},
		{name: "indented code", input: "    x := 1", want: []mdast.Kind{mdast.Code}},
		{name: "blockquote", input: "> quoted", want: []mdast.Kind{mdast.Blockquote}},
		{name: "rule", input: "a\n\n---\n\nb", want: []mdast.Kind{mdast.Paragraph, mdast.HR, mdast.Paragraph}},
		{name: "html block", input: "<div>\nhi\n</div>", want: []mdast.Kind{mdast.HTML}},
		{name: "block math", input: "$$\nE = mc^2\n$$", want: []mdast.Kind{mdast.BlockMath}},
		{name: "block math after text", input: "text\n$$\nx\n$$", want: []mdast.Kind{mdast.Paragraph, mdast.BlockMath}},
		{name: "single line display", input: "$$a+b$$", want: []mdast.Kind{mdast.BlockMath}},
		{name: "dollars in fence", input: "```\n$$\nx\n$$\n```", want: []mdast.Kind{mdast.Code}},
		{name: "table", input: "| a | b |\n|---|---|\n| 1 | 2 |", want: []mdast.Kind{mdast.Table}},
		{name: "list", input: "- a\n- b", want: []mdast.Kind{mdast.List}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tt.input)
			if got := kinds(doc.Tokens); !equalKinds(got, tt.want) {
				t.Errorf("Parse(%q) kinds = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_HeadingAndCode(t *testing.T) {
	t.Parallel()

	doc := parse(t, "### Sub *title*\n\n```python\nprint(1)\nprint(2)\n```")
	h := doc.Tokens[0]
	if h.Depth != 3 || h.Text != "Sub title" {
		t.Errorf("heading = {depth %d, text %q}, want {3, %q}", h.Depth, h.Text, "Sub title")
	}
	code := doc.Tokens[1]
	if code.Lang != "python" {
		t.Errorf("code.Lang = %q, want %q", code.Lang, "python")
	}
	if code.Text != "print(1)\nprint(2)" {
		t.Errorf("code.Text = %q, want %q", code.Text, "print(1)\nprint(2)")
	}
}

func TestParse_BlockMathSource(t *testing.T) {
	t.Parallel()

	doc := parse(t, "$$\n\\frac{a}{b}\n$$")
	m := doc.Tokens[0]
	if m.Text != `\frac{a}{b}` || !m.IsBlockMath() {
		t.Errorf("math = {%q block=%v}, want {%q block=true}", m.Text, m.IsBlockMath(), `\frac{a}{b}`)
	}
}

func TestParse_UnclosedDollarBlock(t *testing.T) {
	t.Parallel()

	doc := parse(t, "$$\nnot closed")
	if mdast.Count(doc.Tokens, mdast.BlockMath) != 0 {
		t.Error("unclosed $$ should not open a math block")
	}
}

// ---------------------------------------------------------------------------
// TestParse_Inlines - Inline token mapping
// ---------------------------------------------------------------------------

func TestParse_Inlines(t *testing.T) {
	t.Parallel()

	doc := parse(t, "a **b** *c* ~~d~~ `e` [f](http://x.test)")
	got := kinds(doc.Tokens[0].Children)
	want := []mdast.Kind{
		mdast.Text, mdast.Strong, mdast.Text, mdast.Em, mdast.Text,
		mdast.Del, mdast.Text, mdast.Codespan, mdast.Text, mdast.Link,
	}
	if !equalKinds(got, want) {
		t.Fatalf("inline kinds = %v, want %v", got, want)
	}
	link := doc.Tokens[0].Children[9]
	if link.Href != "http://x.test" || link.Text != "f" {
		t.Errorf("link = {%q %q}, want {%q %q}", link.Href, link.Text, "http://x.test", "f")
	}
	if cs := doc.Tokens[0].Children[7]; cs.Text != "e" {
		t.Errorf("codespan.Text = %q, want %q", cs.Text, "e")
	}
}

func TestParse_InlineMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantTeX []string
	}{
		{name: "simple", input: "Let $x^2$ be.", wantTeX: []string{"x^2"}},
		{name: "two spans", input: "$a$ and $b$", wantTeX: []string{"a", "b"}},
		{name: "prices", input: "costs $5 and $6 today", wantTeX: nil},
		{name: "space after opener", input: "a $ b$ c", wantTeX: nil},
		{name: "escaped dollar", input: `\$x$ y`, wantTeX: nil},
		{name: "inline display", input: "so $$x$$ holds", wantTeX: []string{"x"}},
		{name: "emphasis chars inside", input: "$a_1 * b_2$", wantTeX: []string{"a_1 * b_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tt.input)
			var got []string
			mdast.Walk(doc.Tokens, func(tok *mdast.Token) bool {
				if tok.Kind == mdast.InlineMath {
					got = append(got, tok.Text)
				}
				return true
			})
			if len(got) != len(tt.wantTeX) {
				t.Fatalf("math spans = %q, want %q", got, tt.wantTeX)
			}
			for i := range got {
				if got[i] != tt.wantTeX[i] {
					t.Errorf("span %d = %q, want %q", i, got[i], tt.wantTeX[i])
				}
			}
		})
	}
}

func TestParse_TextDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "escapes removed", input: `a \*b\*`, want: "a *b*"},
		{name: "soft break kept", input: "one\ntwo", want: "one\ntwo"},
		{name: "entity left for renderers", input: "a &amp; b", want: "a &amp; b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tt.input)
			if got := doc.Tokens[0].Text; got != tt.want {
				t.Errorf("paragraph text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_LineBreaks(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"a<br>b", "a<br/>b", "a  \nb"} {
		doc := parse(t, in)
		if mdast.Count(doc.Tokens, mdast.Br) != 1 {
			t.Errorf("Parse(%q) has %d br tokens, want 1", in, mdast.Count(doc.Tokens, mdast.Br))
		}
	}
}

func TestParse_Autolink(t *testing.T) {
	t.Parallel()

	doc := parse(t, "see https://example.com now")
	var href string
	mdast.Walk(doc.Tokens, func(tok *mdast.Token) bool {
		if tok.Kind == mdast.Link {
			href = tok.Href
		}
		return true
	})
	if href != "https://example.com" {
		t.Errorf("autolink href = %q, want %q", href, "https://example.com")
	}
}

func TestParse_Image(t *testing.T) {
	t.Parallel()

	doc := parse(t, `![a *cat*](cat.png "Cat")`)
	img := doc.Tokens[0].Children[0]
	if img.Kind != mdast.Image || img.Href != "cat.png" || img.Text != "a cat" || img.Title != "Cat" {
		t.Errorf("image = %+v, want cat.png with alt %q", img, "a cat")
	}
}

// ---------------------------------------------------------------------------
// TestParse_Lists - Ordering, start numbers and task items
// ---------------------------------------------------------------------------

func TestParse_Lists(t *testing.T) {
	t.Parallel()

	doc := parse(t, "3. a\n4. b\n\n- [x] done\n- [ ] todo\n- plain")

	ol := doc.Tokens[0]
	if !ol.Ordered || ol.Start != 3 || len(ol.Items) != 2 {
		t.Errorf("ordered list = {ordered %v start %d items %d}, want {true 3 2}", ol.Ordered, ol.Start, len(ol.Items))
	}

	ul := doc.Tokens[1]
	if ul.Ordered || len(ul.Items) != 3 {
		t.Fatalf("bullet list = {ordered %v items %d}, want {false 3}", ul.Ordered, len(ul.Items))
	}
	if c := ul.Items[0].Checked; c == nil || !*c {
		t.Error("item 0 should be checked")
	}
	if c := ul.Items[1].Checked; c == nil || *c {
		t.Error("item 1 should be unchecked")
	}
	if ul.Items[2].Checked != nil {
		t.Error("item 2 should not be a task")
	}
	if got := ul.Items[0].Text; got != "done" {
		t.Errorf("item 0 text = %q, want %q", got, "done")
	}
}

func TestParse_NestedList(t *testing.T) {
	t.Parallel()

	doc := parse(t, "- a\n  - b\n  - c\n- d")
	outer := doc.Tokens[0]
	if len(outer.Items) != 2 {
		t.Fatalf("outer items = %d, want 2", len(outer.Items))
	}
	first := outer.Items[0]
	if got := kinds(first.Children); !equalKinds(got, []mdast.Kind{mdast.Text, mdast.List}) {
		t.Errorf("first item children = %v, want [text list]", got)
	}
}

// ---------------------------------------------------------------------------
// TestParse_Tables - Grid annotation
// ---------------------------------------------------------------------------

func TestParse_TableMarkers(t *testing.T) {
	t.Parallel()

	doc := parse(t, "| H1 | H2 |\n|---|---|\n| A | B |\n| 同上 | 同左 |")
	td := doc.Tokens[0].Table
	if td == nil {
		t.Fatal("table token has no grid")
	}
	if td.ColumnCount != 2 || td.RowCount != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", td.RowCount, td.ColumnCount)
	}
	if !td.Rows[1].Cells[0].MergeWithPrevious || !td.Rows[1].Cells[1].MergeWithPrevious {
		t.Error("row 2 markers should be flagged")
	}
	if td.Headers[0].Content != "H1" {
		t.Errorf("header 0 = %q, want %q", td.Headers[0].Content, "H1")
	}
}

func TestParse_TableAlignment(t *testing.T) {
	t.Parallel()

	doc := parse(t, "| a | b | c |\n|:-:|--:|---|\n| 1 | **2** | 3 |")
	td := doc.Tokens[0].Table
	want := []mdast.Align{mdast.AlignCenter, mdast.AlignRight, mdast.AlignNone}
	for i, a := range want {
		if td.Alignments[i] != a {
			t.Errorf("Alignments[%d] = %q, want %q", i, td.Alignments[i], a)
		}
	}
	cell := td.Rows[0].Cells[1]
	if cell.Content != "2" || len(cell.Tokens) != 1 || cell.Tokens[0].Kind != mdast.Strong {
		t.Errorf("cell = %+v, want strong 2", cell)
	}
}

// ---------------------------------------------------------------------------
// TestParse_Context - Cancellation
// ---------------------------------------------------------------------------

func TestParse_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.New().Parse(ctx, "# hi")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Parse() error = %v, want context.Canceled", err)
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	doc := parse(t, "")
	if len(doc.Tokens) != 0 {
		t.Errorf("Parse(\"\") = %d tokens, want 0", len(doc.Tokens))
	}
}
