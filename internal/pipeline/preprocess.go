package pipeline

import (
	"context"
	"strings"

	"github.com/alnah/go-md2word/internal/cleaner"
	"github.com/alnah/go-md2word/internal/mathnorm"
)

const byteOrderMark = "\uFEFF"

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// Preprocessor cleans pasted assistant output and normalizes its math.
type Preprocessor struct {
	cleaner *cleaner.Cleaner
}

// Compile-time interface check.
var _ MarkdownPreprocessor = (*Preprocessor)(nil)

// NewPreprocessor returns a Preprocessor running the cleaner passes enabled
// in opts. Math normalization always runs.
func NewPreprocessor(opts cleaner.Options) *Preprocessor {
	return &Preprocessor{cleaner: cleaner.New(opts)}
}

// PreprocessMarkdown strips a byte order mark, then runs the cleaner (which
// normalizes line endings) and the math normalizer. A canceled context
// returns content as is.
func (p *Preprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = strings.TrimPrefix(content, byteOrderMark)
	content = p.cleaner.Clean(content)
	return mathnorm.Normalize(content)
}
