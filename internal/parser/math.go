package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	priorityMathInline = 150
	priorityMathBlock  = 90
)

var dollars = []byte("$$")

// KindMathInline and KindMathBlock identify dollar math nodes.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is a $..$ or single-line $$..$$ span.
type MathInline struct {
	ast.BaseInline
	TeX     string
	Display bool
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"TeX": n.TeX}, nil)
}

// MathBlock is a $$ block spanning several lines.
type MathBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node; block math lines are never parsed as inlines.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// TeX returns the source lines of the block.
func (n *MathBlock) TeX(source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return string(bytes.TrimSpace(b.Bytes()))
}

var (
	_ ast.Node            = (*MathInline)(nil)
	_ ast.Node            = (*MathBlock)(nil)
	_ parser.InlineParser = (*mathInlineParser)(nil)
	_ parser.BlockParser  = (*mathBlockParser)(nil)
	_ goldmark.Extender   = (*mathExtension)(nil)
)

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse reads $$..$$ or $..$ on the current line. A single dollar must be
// followed by a non-space; the closing one must follow a non-space and must
// not precede a digit, so prices like "$5 and $6" stay text.
func (p *mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 || line[0] != '$' {
		return nil
	}

	if line[1] == '$' {
		stop := bytes.Index(line[2:], dollars)
		if stop < 0 {
			return nil
		}
		tex := bytes.TrimSpace(line[2 : 2+stop])
		if len(tex) == 0 {
			return nil
		}
		block.Advance(2 + stop + 2)
		return &MathInline{TeX: string(tex), Display: true}
	}

	if util.IsSpace(line[1]) {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\n':
			return nil
		case c == '\\':
			i++
		case c == '$':
			if util.IsSpace(line[i-1]) {
				continue
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				continue
			}
			block.Advance(i + 1)
			return &MathInline{TeX: string(line[1:i])}
		}
	}
	return nil
}

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

// Open starts a block on a line beginning with $$ whose closing $$ is on a
// later line. Without a closing line the text is left to the paragraph
// parser.
func (p *mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], dollars) {
		return nil, parser.NoChildren
	}
	rest := line[pos+2:]
	if bytes.Contains(rest, dollars) {
		return nil, parser.NoChildren
	}

	found := false
	savedLine, savedSeg := reader.Position()
	for {
		reader.AdvanceLine()
		next, _ := reader.PeekLine()
		if next == nil {
			break
		}
		if bytes.Contains(next, dollars) {
			found = true
			break
		}
	}
	reader.SetPosition(savedLine, savedSeg)
	if !found {
		return nil, parser.NoChildren
	}

	node := &MathBlock{}
	if !util.IsBlank(rest) {
		start := segment.Start + pos + 2
		node.Lines().Append(text.NewSegment(start, segment.Stop))
	}
	advanceLine(reader, line, segment)
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if stop := bytes.Index(line, dollars); stop >= 0 {
		if !util.IsBlank(line[:stop]) {
			node.Lines().Append(text.NewSegment(segment.Start, segment.Start+stop))
		}
		advanceLine(reader, line, segment)
		return parser.Close
	}
	node.Lines().Append(segment)
	advanceLine(reader, line, segment)
	return parser.Continue | parser.NoChildren
}

// advanceLine moves the reader to the newline ending the current line.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	n := segment.Len()
	if len(line) > 0 && line[len(line)-1] == '\n' {
		n--
	}
	reader.Advance(n)
}

func (p *mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// mathExtension registers the dollar math parsers.
type mathExtension struct{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&mathInlineParser{}, priorityMathInline),
		),
		parser.WithBlockParsers(
			util.Prioritized(&mathBlockParser{}, priorityMathBlock),
		),
	)
}
