package md2word

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-md2word/internal/mdast"
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```.*?```")
	fenceMarker  = regexp.MustCompile("```\\w*\\n?")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	strongText   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emText       = regexp.MustCompile(`\*([^*]+)\*`)
	imageRef     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRef      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headingMark  = regexp.MustCompile(`(?m)^#{1,6}[ \t]`)
	tableLine    = regexp.MustCompile(`\|.+\|`)
	bulletMark   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]`)
	orderedMark  = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]`)
	fenceOrSpans = strings.NewReplacer("```", "")
)

// PlainText turns Markdown into readable text for the plain clipboard
// flavor: fences and inline code are unwrapped, emphasis is dropped, links
// read "text (url)", heading marks and ordered list numbers are removed,
// table pipes become spaces and bullets become "•".
func PlainText(markdown string) string {
	s := fencedBlock.ReplaceAllStringFunc(markdown, func(m string) string {
		return fenceOrSpans.Replace(fenceMarker.ReplaceAllString(m, ""))
	})
	s = inlineCode.ReplaceAllString(s, "$1")
	s = strongText.ReplaceAllString(s, "$1")
	s = emText.ReplaceAllString(s, "$1")
	s = imageRef.ReplaceAllString(s, "$1 ($2)")
	s = linkRef.ReplaceAllString(s, "$1 ($2)")
	s = headingMark.ReplaceAllString(s, "")
	s = tableLine.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, "|", "  ")
	})
	s = bulletMark.ReplaceAllString(s, "• ")
	s = orderedMark.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ComputeStats counts the text of markdown and the elements of its token
// tree. doc may be nil, leaving the element counts at zero.
func ComputeStats(markdown string, doc *mdast.Document) Stats {
	st := Stats{
		Characters: utf8.RuneCountInString(markdown),
		Words:      len(strings.Fields(markdown)),
	}
	for line := range strings.SplitSeq(markdown, "\n") {
		if strings.TrimSpace(line) != "" {
			st.Lines++
		}
	}
	if doc == nil {
		return st
	}

	st.Tables = mdast.Count(doc.Tokens, mdast.Table)
	st.CodeBlocks = mdast.Count(doc.Tokens, mdast.Code)
	st.Images = mdast.Count(doc.Tokens, mdast.Image)
	st.Headings = mdast.Count(doc.Tokens, mdast.Heading)
	st.Links = mdast.Count(doc.Tokens, mdast.Link)
	mdast.Walk(doc.Tokens, func(t *mdast.Token) bool {
		if t.Kind.IsMath() {
			st.Equations++
		}
		return true
	})
	return st
}
