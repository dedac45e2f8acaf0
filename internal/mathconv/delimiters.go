// Package mathconv converts LaTeX math between the dialects the renderers
// emit: bare source, dollar-wrapped source and linear UnicodeMath.
package mathconv

import "regexp"

var (
	displayMath = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)
	inlineMath  = regexp.MustCompile(`\$([^\n$]+)\$`)
	anyMath     = regexp.MustCompile(`\$\$[^$]+\$\$|\$[^$]+\$|\\[a-zA-Z]+`)
)

// StripDelimiters removes $$..$$ pairs, then single-line $..$ pairs, keeping
// their content.
func StripDelimiters(s string) string {
	if s == "" {
		return ""
	}
	s = displayMath.ReplaceAllString(s, "${1}")
	return inlineMath.ReplaceAllString(s, "${1}")
}

// Wrap surrounds latex with $$ when block is set, with $ otherwise.
func Wrap(latex string, block bool) string {
	if block {
		return "$$" + latex + "$$"
	}
	return "$" + latex + "$"
}

// ContainsMath reports whether s holds a dollar span or a LaTeX command.
func ContainsMath(s string) bool {
	return anyMath.MatchString(s)
}
