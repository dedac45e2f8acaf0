package md2word

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-md2word/internal/docx"
	"github.com/alnah/go-md2word/internal/options"
	"github.com/alnah/go-md2word/internal/parser"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrInputTooLarge  = errors.New("markdown content too large")
	ErrInvalidOptions = options.ErrInvalid
	ErrDocxSerialize  = docx.ErrSerialize

	// Diagram rendering errors.
	ErrDiagramRender      = errors.New("diagram rendering failed")
	ErrDiagramUnsupported = errors.New("diagram rendering not available")
	ErrBrowserConnect     = errors.New("failed to connect to browser")
	ErrPageCreate         = errors.New("failed to create browser page")
	ErrPageLoad           = errors.New("failed to load page")
)

// Kind is the stage a conversion failed in.
type Kind int

// Error kinds.
const (
	KindConvert Kind = iota
	KindParse
	KindSystem
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSystem:
		return "system"
	}
	return "convert"
}

// ConversionError is the error every public Converter method returns.
// Recoverable errors may succeed when retried, such as a cancellation or a
// browser that failed to start.
type ConversionError struct {
	Kind        Kind
	Message     string
	Recoverable bool
	Err         error
}

// Error implements error.
func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error: " + e.Message
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// classify wraps err in a ConversionError. A ConversionError is returned
// as is.
func classify(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}

	e := &ConversionError{Kind: KindConvert, Message: message, Err: err}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Kind, e.Recoverable = KindSystem, true
	case errors.Is(err, parser.ErrParse):
		e.Kind = KindParse
	case errors.Is(err, ErrDocxSerialize),
		errors.Is(err, ErrBrowserConnect),
		errors.Is(err, ErrPageCreate),
		errors.Is(err, ErrPageLoad):
		e.Kind, e.Recoverable = KindSystem, true
	}
	return e
}
