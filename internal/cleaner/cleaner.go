// Package cleaner strips the artifacts chat assistants leave in copied
// answers: citation markers, "Copy code" button labels, UI button lines and
// runs of blank lines.
package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-md2word/internal/textutil"
	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// Options toggles the cleaning passes. The zero value disables everything.
type Options struct {
	RemoveCitations bool `yaml:"removeCitations"`
	RemoveCopyCode  bool `yaml:"removeCopyCode"`
	RemoveButtons   bool `yaml:"removeButtons"`
	TrimWhitespace  bool `yaml:"trimWhitespace"`
	SanitizeLatex   bool `yaml:"sanitizeLatex"`
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{
		RemoveCitations: true,
		RemoveCopyCode:  true,
		RemoveButtons:   true,
		TrimWhitespace:  true,
		SanitizeLatex:   true,
	}
}

// Placeholders masking protected spans use Private Use Area characters,
// which never occur in the citation patterns.
const (
	maskStart = "\uE000"
	maskEnd   = "\uE001"
)

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Fenced code, inline code and the four math delimiter styles.
	protectedSpan = regexp.MustCompile("(?s)```.*?```|~~~.*?~~~|`[^`\n]+`|\\$\\$.*?\\$\\$|\\\\\\[.*?\\\\\\]|\\\\\\(.*?\\\\\\)|\\$[^$\n]+\\$")
	maskRef       = regexp.MustCompile(maskStart + `(\d+)` + maskEnd)

	// [12] not preceded by ] so reference-style links survive.
	bracketCitation = regexp2.MustCompile(`(?<!\])\[\d+\]`, regexp2.None)
	cjkCitation     = regexp.MustCompile(`【\^?\d+\^?】|【】`)
	caretCitation   = regexp.MustCompile(`\^\d+\^`)

	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)

	mathSpan = regexp.MustCompile(`(?s)\$\$.*?\$\$|\$[^$\n]+\$`)
)

var copyCodeLabels = []string{"copy code", "复制代码"}

var buttonLabels = map[string]bool{
	"continue":        true,
	"regenerate":      true,
	"stop generating": true,
	"copy":            true,
	"share":           true,
	"edit":            true,
}

var latexReplacer = strings.NewReplacer(
	"\u2026", `\ldots `,
	"\u00a0", " ",
	"\u2003", " ",
	"\u2212", "-",
	"\u00d7", `\times `,
	"\u00f7", `\div `,
)

// Cleaner applies the enabled passes.
type Cleaner struct {
	opts Options
}

// New returns a Cleaner running the passes enabled in opts.
func New(opts Options) *Cleaner {
	return &Cleaner{opts: opts}
}

// Clean runs every pass with default options.
func Clean(text string) string {
	return New(DefaultOptions()).Clean(text)
}

// Clean returns text with artifacts removed. Passes run in a fixed order:
// citations, copy-code labels, button lines, whitespace, LaTeX sanitizing.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)
	text = crlfOrCR.ReplaceAllString(text, "\n")

	if c.opts.RemoveCitations {
		text = removeCitations(text)
	}
	if c.opts.RemoveCopyCode || c.opts.RemoveButtons {
		text = c.removeLabels(text)
	}
	if c.opts.TrimWhitespace {
		text = trimWhitespace(text)
	}
	if c.opts.SanitizeLatex {
		text = sanitizeLatex(text)
	}
	return text
}

// removeCitations deletes citation markers outside code and math spans.
func removeCitations(text string) string {
	var saved []string
	masked := protectedSpan.ReplaceAllStringFunc(text, func(m string) string {
		saved = append(saved, m)
		return maskStart + strconv.Itoa(len(saved)-1) + maskEnd
	})

	if out, err := bracketCitation.Replace(masked, "", -1, -1); err == nil {
		masked = out
	}
	masked = cjkCitation.ReplaceAllString(masked, "")
	masked = caretCitation.ReplaceAllString(masked, "")

	return maskRef.ReplaceAllStringFunc(masked, func(m string) string {
		i, err := strconv.Atoi(maskRef.FindStringSubmatch(m)[1])
		if err != nil || i >= len(saved) {
			return m
		}
		return saved[i]
	})
}

// removeLabels drops "Copy code" lines anywhere, a "Copy code" suffix right
// before a closing fence, and button-only lines outside fences. Removed lines
// outside fences leave a blank line so paragraphs stay apart.
func (c *Cleaner) removeLabels(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var fence textutil.Fence

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		wasInside := fence.Inside()
		if fence.Toggle(trimmed) {
			out = append(out, line)
			continue
		}

		if c.opts.RemoveCopyCode && isCopyCodeLabel(trimmed) {
			if !wasInside {
				out = append(out, "")
			}
			continue
		}

		if c.opts.RemoveButtons && !wasInside && buttonLabels[strings.ToLower(trimmed)] {
			out = append(out, "")
			continue
		}

		if c.opts.RemoveCopyCode && wasInside && i+1 < len(lines) && fence.Closes(strings.TrimSpace(lines[i+1])) {
			line = trimCopyCodeSuffix(line)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func isCopyCodeLabel(s string) bool {
	s = strings.ToLower(s)
	for _, l := range copyCodeLabels {
		if s == l {
			return true
		}
	}
	return false
}

func trimCopyCodeSuffix(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	lower := strings.ToLower(trimmed)
	for _, l := range copyCodeLabels {
		if strings.HasSuffix(lower, l) {
			return strings.TrimRight(trimmed[:len(trimmed)-len(l)], " \t")
		}
	}
	return line
}

func trimWhitespace(text string) string {
	text = trailingSpace.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.Trim(text, "\n")
}

// sanitizeLatex rewrites Unicode symbols that LaTeX engines reject inside
// math spans. Fenced code is left alone.
func sanitizeLatex(text string) string {
	return textutil.MapUnfenced(text, func(s string) string {
		return mathSpan.ReplaceAllStringFunc(s, latexReplacer.Replace)
	})
}
