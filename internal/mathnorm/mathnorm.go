// Package mathnorm rewrites the math notations chat assistants emit into the
// dollar-delimited form the tokenizer understands.
package mathnorm

import (
	"regexp"
	"strings"

	"github.com/alnah/go-md2word/internal/textutil"
	"github.com/dlclark/regexp2"
)

var (
	displayDelims = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	inlineDelims  = regexp.MustCompile(`(?s)\\\((.*?)\\\)`)

	// $ x $ but never a $$ delimiter on either side.
	paddedInline = regexp2.MustCompile(`(?<!\$)\$(?!\$)[ \t]+([^\n$]+?)[ \t]+(?<!\$)\$(?!\$)`, regexp2.None)

	loneDollar = regexp.MustCompile(`^\s*\$\s*$`)
)

// Normalize runs the three passes in order: LaTeX delimiters to dollars,
// padded inline math trimmed, lone "$" lines promoted to "$$". Fenced code is
// left untouched by every pass.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = textutil.MapUnfenced(text, func(s string) string {
		s = ConvertDelimiters(s)
		return TrimInlineSpaces(s)
	})
	return PromoteDollarLines(text)
}

// ConvertDelimiters turns \[..\] into $$..$$ and \(..\) into $..$.
func ConvertDelimiters(text string) string {
	text = displayDelims.ReplaceAllString(text, `$$$$${1}$$$$`)
	return inlineDelims.ReplaceAllString(text, `$$${1}$$`)
}

// TrimInlineSpaces rewrites "$ x $" as "$x$".
func TrimInlineSpaces(text string) string {
	out, err := paddedInline.ReplaceFunc(text, func(m regexp2.Match) string {
		return "$" + strings.TrimSpace(m.GroupByNumber(1).String()) + "$"
	}, -1, -1)
	if err != nil {
		return text
	}
	return out
}

// PromoteDollarLines replaces lines holding a single "$" with "$$", keeping
// the indentation before the dollar. Lines inside ``` or ~~~ fences are kept.
func PromoteDollarLines(text string) string {
	lines := strings.Split(text, "\n")
	var fence textutil.Fence
	for i, line := range lines {
		if fence.Toggle(strings.TrimSpace(line)) || fence.Inside() {
			continue
		}
		if loneDollar.MatchString(line) {
			lines[i] = line[:strings.IndexByte(line, '$')] + "$$"
		}
	}
	return strings.Join(lines, "\n")
}
