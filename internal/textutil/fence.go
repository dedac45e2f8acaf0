// Package textutil holds line-oriented helpers shared by the Markdown text
// passes that run before tokenizing.
package textutil

import "strings"

// Fence tracks whether a line scan is inside a fenced code block. The zero
// value is outside any fence.
type Fence struct {
	marker string
}

// Inside reports whether the scan is currently inside a fence.
func (f *Fence) Inside() bool {
	return f.marker != ""
}

// Toggle updates the state for a trimmed line and reports whether the line is
// a fence delimiter. A fence opens on ``` or ~~~ and closes on a line starting
// with the same three characters.
func (f *Fence) Toggle(trimmed string) bool {
	if f.marker == "" {
		if m := fenceMarker(trimmed); m != "" {
			f.marker = m
			return true
		}
		return false
	}
	if strings.HasPrefix(trimmed, f.marker) {
		f.marker = ""
		return true
	}
	return false
}

// Closes reports whether trimmed would close the currently open fence.
func (f *Fence) Closes(trimmed string) bool {
	return f.marker != "" && strings.HasPrefix(trimmed, f.marker)
}

func fenceMarker(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	}
	return ""
}

// Segment is a run of lines that is either fenced code or ordinary text.
type Segment struct {
	Text  string
	Fence bool
}

// SplitFenced cuts text at fence boundaries. Fenced segments include their
// delimiter lines; an unclosed fence runs to the end of the text. Joining the
// segment texts gives back the input.
func SplitFenced(text string) []Segment {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	var (
		segs  []Segment
		buf   strings.Builder
		fence Fence
	)
	flush := func(fenced bool) {
		if buf.Len() > 0 {
			segs = append(segs, Segment{Text: buf.String(), Fence: fenced})
			buf.Reset()
		}
	}

	for _, line := range lines {
		wasInside := fence.Inside()
		if fence.Toggle(strings.TrimSpace(line)) {
			if !wasInside {
				flush(false)
				buf.WriteString(line)
				continue
			}
			buf.WriteString(line)
			flush(true)
			continue
		}
		buf.WriteString(line)
	}
	flush(fence.Inside())
	return segs
}

// MapUnfenced applies fn to every segment of text outside fenced code.
func MapUnfenced(text string, fn func(string) string) string {
	var b strings.Builder
	for _, s := range SplitFenced(text) {
		if s.Fence {
			b.WriteString(s.Text)
			continue
		}
		b.WriteString(fn(s.Text))
	}
	return b.String()
}
