// Package md2word converts Markdown, typically copied from a chat assistant,
// into Word-compatible HTML and .docx documents.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := md2word.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Docx(ctx, md2word.Input{
//	    Markdown: "# Hello\n\n| a | b |\n|---|---|\n| 1 | 2 |",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.docx", result.Docx, 0644)
//
// HTML returns an inline-styled fragment that pastes into Word with its
// formatting intact; Clipboard pairs it with a plain text alternative.
//
// # Conversion Pipeline
//
//  1. Cleaning: citation markers, "Copy code" labels and UI button lines are
//     removed, blank lines collapsed
//  2. Math normalization: \[..\] and \(..\) become dollar math
//  3. Tokenizing via goldmark (GFM, dollar math) and table annotation, where
//     cells holding ↑ or 同上 merge with the cell above and → or 同左 with the
//     cell to the left
//  4. Rendering to HTML or to a WordprocessingML document
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	opts := md2word.DefaultOptions()
//	opts.Math.Output = "unicodemath"
//	conv, err := md2word.NewConverter(
//	    md2word.WithOptions(opts),
//	    md2word.WithLogger(logger),
//	)
//
// Per-conversion settings are passed via Input:
//
//	result, err := conv.Docx(ctx, md2word.Input{
//	    Markdown:   content,
//	    Options:    &opts,
//	    Properties: &md2word.DocumentProperties{Title: "Report"},
//	})
//
// # Diagrams
//
// Mermaid code blocks stay code blocks unless a DiagramRenderer is set.
// NewRodDiagramRenderer draws them in headless Chrome and the .docx embeds
// the result as images:
//
//	diagrams, err := md2word.NewRodDiagramRenderer()
//	conv, err := md2word.NewConverter(md2word.WithDiagramRenderer(diagrams))
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool so each worker has its own
// browser:
//
//	pool := md2word.NewConverterPool(4, newConverter)
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	defer pool.Release(conv)
//
// # Errors
//
// Every Converter method returns a *ConversionError tagged with the stage
// that failed. Sentinel errors can be matched with errors.Is:
//
//	if errors.Is(err, md2word.ErrEmptyMarkdown) { ... }
package md2word
