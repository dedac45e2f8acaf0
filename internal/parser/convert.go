package parser

import (
	"bytes"
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2word/internal/mathconv"
	"github.com/alnah/go-md2word/internal/mdast"
	"github.com/alnah/go-md2word/internal/tables"
)

var brTag = regexp.MustCompile(`(?i)^<br\s*/?>$`)

// converter maps goldmark nodes to tokens.
type converter struct {
	source []byte
}

func (c *converter) blocks(parent gast.Node) []*mdast.Token {
	var out []*mdast.Token
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n))
	}
	return out
}

func (c *converter) block(node gast.Node) *mdast.Token {
	switch n := node.(type) {
	case *gast.Heading:
		children := c.inlines(n)
		return &mdast.Token{Kind: mdast.Heading, Depth: n.Level, Children: children, Text: mdast.PlainText(children), Raw: c.lines(n)}

	case *gast.Paragraph:
		children := c.inlines(n)
		if m := soleDisplayMath(children); m != nil {
			return &mdast.Token{Kind: mdast.BlockMath, Text: m.Text, Display: true, Raw: c.lines(n)}
		}
		return &mdast.Token{Kind: mdast.Paragraph, Children: children, Text: mdast.PlainText(children), Raw: c.lines(n)}

	case *gast.TextBlock:
		children := c.inlines(n)
		return &mdast.Token{Kind: mdast.Text, Children: children, Text: mdast.PlainText(children), Raw: c.lines(n)}

	case *gast.List:
		t := &mdast.Token{Kind: mdast.List, Ordered: n.IsOrdered(), Start: n.Start}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			t.Items = append(t.Items, c.listItem(item))
		}
		return t

	case *gast.FencedCodeBlock:
		var lang string
		if l := n.Language(c.source); l != nil {
			lang = string(l)
		}
		return &mdast.Token{Kind: mdast.Code, Lang: lang, Text: c.code(n), Raw: c.lines(n)}

	case *gast.CodeBlock:
		return &mdast.Token{Kind: mdast.Code, Text: c.code(n), Raw: c.lines(n)}

	case *gast.Blockquote:
		children := c.blocks(n)
		return &mdast.Token{Kind: mdast.Blockquote, Children: children}

	case *gast.ThematicBreak:
		return &mdast.Token{Kind: mdast.HR, Raw: "---"}

	case *gast.HTMLBlock:
		raw := c.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.source))
		}
		raw = strings.TrimRight(raw, "\n")
		return &mdast.Token{Kind: mdast.HTML, Text: raw, Raw: raw}

	case *MathBlock:
		tex := n.TeX(c.source)
		return &mdast.Token{Kind: mdast.BlockMath, Text: tex, Display: true, Raw: mathconv.Wrap("\n"+tex+"\n", true)}

	case *east.Table:
		return c.table(n)
	}

	raw := c.lines(node)
	return &mdast.Token{Kind: mdast.Unknown, Text: raw, Raw: raw}
}

// soleDisplayMath returns the $$x$$ span of a paragraph holding nothing else.
func soleDisplayMath(children []*mdast.Token) *mdast.Token {
	var m *mdast.Token
	for _, t := range children {
		switch {
		case t.Kind == mdast.Text && len(t.Children) == 0 && strings.TrimSpace(t.Text) == "":
		case t.Kind == mdast.InlineMath && t.Display && m == nil:
			m = t
		default:
			return nil
		}
	}
	return m
}

func (c *converter) listItem(item gast.Node) *mdast.Token {
	t := &mdast.Token{Kind: mdast.ListItem}
	if first := item.FirstChild(); first != nil {
		if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
			checked := box.IsChecked
			t.Checked = &checked
		}
	}
	t.Children = c.blocks(item)
	t.Text = mdast.PlainText(t.Children)
	return t
}

// table builds the raw row/cell tokens, header row first, and attaches the
// normalized grid.
func (c *converter) table(n *east.Table) *mdast.Token {
	t := &mdast.Token{Kind: mdast.Table}
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		rt := &mdast.Token{Kind: mdast.TableRowKind}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			ct := &mdast.Token{Kind: mdast.TableCellKind, Children: c.inlines(cell)}
			if tc, ok := cell.(*east.TableCell); ok {
				ct.Align = alignment(tc.Alignment)
			}
			ct.Text = mdast.PlainText(ct.Children)
			rt.Children = append(rt.Children, ct)
		}
		t.Children = append(t.Children, rt)
	}
	td := tables.Process(t)
	t.Table = &td
	return t
}

func alignment(a east.Alignment) mdast.Align {
	switch a {
	case east.AlignLeft:
		return mdast.AlignLeft
	case east.AlignCenter:
		return mdast.AlignCenter
	case east.AlignRight:
		return mdast.AlignRight
	}
	return mdast.AlignNone
}

func (c *converter) inlines(parent gast.Node) []*mdast.Token {
	var out []*mdast.Token
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = c.inline(out, n)
	}
	return out
}

func (c *converter) inline(out []*mdast.Token, node gast.Node) []*mdast.Token {
	switch n := node.(type) {
	case *gast.Text:
		value := n.Value(c.source)
		if !n.IsRaw() {
			value = util.UnescapePunctuations(value)
		}
		out = appendText(out, string(value))
		switch {
		case n.HardLineBreak():
			out = append(out, &mdast.Token{Kind: mdast.Br})
		case n.SoftLineBreak():
			out = appendText(out, "\n")
		}

	case *gast.String:
		out = appendText(out, string(n.Value))

	case *gast.CodeSpan:
		out = append(out, &mdast.Token{Kind: mdast.Codespan, Text: c.codeSpan(n)})

	case *gast.Emphasis:
		kind := mdast.Em
		if n.Level >= 2 {
			kind = mdast.Strong
		}
		children := c.inlines(n)
		out = append(out, &mdast.Token{Kind: kind, Children: children, Text: mdast.PlainText(children)})

	case *east.Strikethrough:
		children := c.inlines(n)
		out = append(out, &mdast.Token{Kind: mdast.Del, Children: children, Text: mdast.PlainText(children)})

	case *gast.Link:
		children := c.inlines(n)
		out = append(out, &mdast.Token{
			Kind:     mdast.Link,
			Href:     string(util.UnescapePunctuations(n.Destination)),
			Title:    string(n.Title),
			Children: children,
			Text:     mdast.PlainText(children),
		})

	case *gast.AutoLink:
		label := string(n.Label(c.source))
		out = append(out, &mdast.Token{
			Kind:     mdast.Link,
			Href:     string(n.URL(c.source)),
			Children: []*mdast.Token{{Kind: mdast.Text, Text: label}},
			Text:     label,
		})

	case *gast.Image:
		out = append(out, &mdast.Token{
			Kind:  mdast.Image,
			Href:  string(util.UnescapePunctuations(n.Destination)),
			Title: string(n.Title),
			Text:  mdast.PlainText(c.inlines(n)),
		})

	case *gast.RawHTML:
		var b bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		raw := b.String()
		if brTag.MatchString(strings.TrimSpace(raw)) {
			out = append(out, &mdast.Token{Kind: mdast.Br, Raw: raw})
			break
		}
		out = append(out, &mdast.Token{Kind: mdast.HTML, Text: raw, Raw: raw})

	case *MathInline:
		out = append(out, &mdast.Token{
			Kind:    mdast.InlineMath,
			Text:    n.TeX,
			Display: n.Display,
			Raw:     mathconv.Wrap(n.TeX, n.Display),
		})

	case *east.TaskCheckBox:
		// Recorded on the enclosing list item.

	default:
		children := c.inlines(n)
		out = append(out, &mdast.Token{Kind: mdast.Unknown, Children: children, Text: mdast.PlainText(children)})
	}
	return out
}

// appendText merges s into a trailing plain text token.
func appendText(out []*mdast.Token, s string) []*mdast.Token {
	if s == "" {
		return out
	}
	if l := len(out); l > 0 && out[l-1].Kind == mdast.Text && len(out[l-1].Children) == 0 {
		out[l-1].Text += s
		out[l-1].Raw += s
		return out
	}
	return append(out, &mdast.Token{Kind: mdast.Text, Text: s, Raw: s})
}

func (c *converter) codeSpan(n *gast.CodeSpan) string {
	var b bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *gast.Text:
			v := t.Value(c.source)
			if bytes.HasSuffix(v, []byte("\n")) {
				v = append(v[:len(v)-1:len(v)-1], ' ')
			}
			b.Write(v)
		case *gast.String:
			b.Write(t.Value)
		}
	}
	return b.String()
}

func (c *converter) code(n gast.Node) string {
	return strings.TrimSuffix(c.lines(n), "\n")
}

// lines joins the source lines of a block node.
func (c *converter) lines(n gast.Node) string {
	if n.Type() != gast.TypeBlock {
		return ""
	}
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	var b bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}
