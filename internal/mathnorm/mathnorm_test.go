package mathnorm_test

import (
	"testing"

	"github.com/alnah/go-md2word/internal/mathnorm"
)

// ---------------------------------------------------------------------------
// TestNormalize - All passes together
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "padded inline", input: "Let $ L $ be a line.", want: "Let $L$ be a line."},
		{name: "tabs", input: "Value is $ \t x \t $.", want: "Value is $x$."},
		{name: "display untouched", input: "$$ a + b $$", want: "$$ a + b $$"},
		{name: "two formulas", input: "$ a $ and $ b $", want: "$a$ and $b$"},
		{name: "lone dollar lines", input: "Line 1\n$\nE = mc^2\n$\nLine 2", want: "Line 1\n$$\nE = mc^2\n$$\nLine 2"},
		{name: "indented dollar lines", input: "   $   \nContent\n   $   ", want: "   $$\nContent\n   $$"},
		{name: "dollar in backtick fence", input: "```\n$\n```", want: "```\n$\n```"},
		{name: "dollar in tilde fence", input: "~~~\n$\n~~~", want: "~~~\n$\n~~~"},
		{name: "both fixes", input: "Inline $ a $ and block:\n$\nb\n$", want: "Inline $a$ and block:\n$$\nb\n$$"},
		{name: "display brackets", input: `\[x^2\]`, want: "$$x^2$$"},
		{name: "multiline brackets", input: "\\[\na = b\n\\]", want: "$$\na = b\n$$"},
		{name: "inline parens", input: `where \(a_1\) holds`, want: "where $a_1$ holds"},
		{name: "brackets in fence kept", input: "```\n\\[x\\]\n```", want: "```\n\\[x\\]\n```"},
		{name: "padded dollars in fence kept", input: "```sh\necho $ HOME $\n```", want: "```sh\necho $ HOME $\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mathnorm.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPasses - Individual passes
// ---------------------------------------------------------------------------

func TestConvertDelimiters(t *testing.T) {
	t.Parallel()

	in := `\[a\] and \(b\)`
	if got, want := mathnorm.ConvertDelimiters(in), "$$a$$ and $b$"; got != want {
		t.Errorf("ConvertDelimiters(%q) = %q, want %q", in, got, want)
	}
}

func TestTrimInlineSpaces_NoPadding(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"$x$", "$ x$", "costs $5 and $ 6"} {
		if got := mathnorm.TrimInlineSpaces(in); got != in {
			t.Errorf("TrimInlineSpaces(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestPromoteDollarLines_Unbalanced(t *testing.T) {
	t.Parallel()

	in := "a\n$\nb"
	if got, want := mathnorm.PromoteDollarLines(in), "a\n$$\nb"; got != want {
		t.Errorf("PromoteDollarLines(%q) = %q, want %q", in, got, want)
	}
}
