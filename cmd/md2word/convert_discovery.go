package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2word "github.com/alnah/go-md2word"
	"github.com/alnah/go-md2word/internal/config"
	"github.com/alnah/go-md2word/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have a Markdown extension (.md, .markdown, .mdown, .mkd)")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNoFiles            = errors.New("no markdown files found")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string

	// Source holds already read input, used for stdin.
	Source []byte
}

// outputExtension returns the file extension written for format.
func outputExtension(format string) string {
	switch format {
	case config.FormatHTML:
		return ".html"
	case config.FormatClipboard:
		return ".json"
	default:
		return ".docx"
	}
}

// discoverFiles finds all markdown files to convert.
func discoverFiles(inputPath, outputDir, ext string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "", ext)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.IsMarkdown(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath, ext)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the output path for a markdown file.
// An outputDir ending in ext names the file itself for a single input; "-"
// means stdout for a single input.
func resolveOutputPath(inputPath, outputDir, baseInputDir, ext string) string {
	base := filepath.Base(fileutil.ReplaceExt(inputPath, ext))

	if outputDir == "" {
		return fileutil.ReplaceExt(inputPath, ext)
	}

	if baseInputDir == "" && (outputDir == stdinPath || strings.EqualFold(filepath.Ext(outputDir), ext)) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, base)
		}
	}

	return filepath.Join(outputDir, base)
}

// validateMarkdownExtension checks that the file has a Markdown extension.
func validateMarkdownExtension(path string) error {
	if !fileutil.IsMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2word.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2word.MaxPoolSize)
	}
	return nil
}
