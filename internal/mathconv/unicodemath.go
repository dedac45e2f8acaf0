package mathconv

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// One level of nested braces inside an argument.
const braceArg = `\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}`

var (
	escapedPair = regexp.MustCompile(`\\[\\{}]`)
	command     = regexp.MustCompile(`\\([A-Za-z]+)`)

	matrixEnv = regexp.MustCompile(`(?s)\\begin\{(?:matrix|pmatrix|bmatrix|vmatrix|Vmatrix)\}(.*?)\\end\{(?:matrix|pmatrix|bmatrix|vmatrix|Vmatrix)\}`)

	fracCmd  = regexp.MustCompile(`\\frac\s*` + braceArg + `\s*` + braceArg)
	sqrtCmd  = regexp.MustCompile(`\\sqrt\s*` + braceArg)
	rootCmd  = regexp.MustCompile(`\\sqrt\s*\[([^\]]+)\]\s*` + braceArg)
	supGroup = regexp.MustCompile(`\^\{([^{}]*)\}`)
	supChar  = regexp.MustCompile(`\^([0-9n])`)
	subGroup = regexp.MustCompile(`_\{([^{}]*)\}`)
	subChar  = regexp.MustCompile(`_([0-9a-zA-Z])`)
	boldCmd  = regexp.MustCompile(`\\(?:mathbf|textbf|boldsymbol)\s*\{([^{}]*)\}`)
	italCmd  = regexp.MustCompile(`\\(?:mathit|textit)\s*\{([^{}]*)\}`)
	textCmd  = regexp.MustCompile(`\\(?:text|mathrm)\s*\{([^{}]*)\}`)
	accentCm = regexp.MustCompile(`\\(overline|bar|hat|tilde|ddot|dot|vec)\s*\{([^{}]*)\}`)

	delimSizing = regexp.MustCompile(`\\(?:left|right)\b`)
	spacing     = regexp.MustCompile(`\\(?:qquad|quad)\b|\\[,:;! ]`)
	group       = regexp.MustCompile(`\{([^{}]*)\}`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Placeholders for the escaped pairs \\, \{ and \} while groups are stripped.
var (
	protect = map[string]string{`\\`: "\uE010", `\{`: "\uE011", `\}`: "\uE012"}
	restore = strings.NewReplacer("\uE010", `\\`, "\uE011", `\{`, "\uE012", `\}`)
)

var functionSet = func() map[string]bool {
	m := make(map[string]bool, len(functionNames))
	for _, f := range functionNames {
		m[f] = true
	}
	return m
}()

// maxRounds bounds the argument rewriting loop; each round strips at least
// one command, so real formulas settle in a few rounds.
const maxRounds = 16

// ToUnicodeMath converts a LaTeX formula, without delimiters, to the linear
// UnicodeMath form Word builds equations from. Commands it does not know are
// left in place. Applying it to its own output changes nothing.
func ToUnicodeMath(latex string) string {
	if latex == "" {
		return ""
	}

	s := matrixEnv.ReplaceAllStringFunc(latex, convertMatrix)
	s = escapedPair.ReplaceAllStringFunc(s, func(m string) string { return protect[m] })
	s = command.ReplaceAllStringFunc(s, replaceCommand)

	for range maxRounds {
		next := rewriteArguments(s)
		if next == s {
			break
		}
		s = next
	}

	s = delimSizing.ReplaceAllString(s, "")
	for {
		next := group.ReplaceAllString(s, "${1}")
		if next == s {
			break
		}
		s = next
	}
	s = spacing.ReplaceAllStringFunc(s, spaceFor)
	s = whitespace.ReplaceAllString(s, " ")
	return restore.Replace(strings.TrimSpace(s))
}

func convertMatrix(m string) string {
	body := matrixEnv.FindStringSubmatch(m)[1]
	rows := strings.Split(strings.TrimSpace(body), `\\`)
	for i, r := range rows {
		rows[i] = strings.TrimSpace(r)
	}
	return "[■(" + strings.Join(rows, "@") + ")]"
}

func replaceCommand(m string) string {
	name := m[1:]
	if g, ok := greekLetters[name]; ok {
		return g
	}
	if sym, ok := mathSymbols[name]; ok {
		return sym
	}
	if functionSet[name] {
		return name
	}
	return m
}

// rewriteArguments applies one round of every command that takes a braced
// argument. Inner commands resolve first in later rounds because the
// argument patterns only accept limited nesting.
func rewriteArguments(s string) string {
	s = replaceSubmatch(fracCmd, s, func(g []string) string {
		n, d := strings.TrimSpace(g[1]), strings.TrimSpace(g[2])
		if utf8.RuneCountInString(n) > 1 || utf8.RuneCountInString(d) > 1 {
			return "(" + n + ")/(" + d + ")"
		}
		return n + "/" + d
	})
	s = replaceSubmatch(rootCmd, s, func(g []string) string {
		switch g[1] {
		case "3":
			return "∛(" + g[2] + ")"
		case "4":
			return "∜(" + g[2] + ")"
		}
		return g[1] + "√(" + g[2] + ")"
	})
	s = replaceSubmatch(sqrtCmd, s, func(g []string) string {
		return "√(" + g[1] + ")"
	})

	s = replaceSubmatch(supGroup, s, func(g []string) string {
		var b strings.Builder
		for _, r := range g[1] {
			if sup, ok := superscripts[r]; ok {
				b.WriteString(sup)
				continue
			}
			b.WriteByte('^')
			b.WriteRune(r)
		}
		return b.String()
	})
	s = replaceSubmatch(supChar, s, func(g []string) string {
		r, _ := utf8.DecodeRuneInString(g[1])
		return superscripts[r]
	})
	s = replaceSubmatch(subGroup, s, func(g []string) string {
		var b strings.Builder
		for _, r := range g[1] {
			b.WriteString(subscriptOf(r))
		}
		return b.String()
	})
	s = replaceSubmatch(subChar, s, func(g []string) string {
		r, _ := utf8.DecodeRuneInString(g[1])
		return subscriptOf(r)
	})

	s = replaceSubmatch(boldCmd, s, func(g []string) string {
		return strings.Map(toMathBold, g[1])
	})
	s = replaceSubmatch(italCmd, s, func(g []string) string {
		return strings.Map(toMathItalic, g[1])
	})
	s = replaceSubmatch(textCmd, s, func(g []string) string {
		return g[1]
	})
	return replaceSubmatch(accentCm, s, func(g []string) string {
		return g[2] + accents[g[1]]
	})
}

func subscriptOf(r rune) string {
	if sub, ok := subscripts[r]; ok {
		return sub
	}
	return string(r) + combiningLowLine
}

func spaceFor(m string) string {
	switch m {
	case `\qquad`:
		return "    "
	case `\quad`:
		return "  "
	case `\!`:
		return ""
	}
	return " "
}

// replaceSubmatch is ReplaceAllStringFunc with access to capture groups.
func replaceSubmatch(re *regexp.Regexp, s string, fn func([]string) string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return fn(re.FindStringSubmatch(m))
	})
}
