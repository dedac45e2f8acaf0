// Package pipeline holds the text stages around the renderers.
//
// Before tokenizing, Markdown goes through a MarkdownPreprocessor that
// removes chat assistant artifacts and normalizes math delimiters. After
// rendering, HTML fragments can be wrapped into a standalone document,
// sanitized for untrusted output, and have relative image and link paths
// rewritten so they still resolve next to the source file.
package pipeline
