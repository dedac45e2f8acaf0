package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	md2word "github.com/alnah/go-md2word"
	"github.com/alnah/go-md2word/internal/config"
	"github.com/alnah/go-md2word/internal/fileutil"
	"github.com/alnah/go-md2word/internal/pipeline"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown  = errors.New("failed to read markdown file")
	ErrWriteOutput   = errors.New("failed to write output file")
	ErrConverterInit = errors.New("failed to initialize converter")
)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// poolAdapter exposes md2word.ConverterPool as a Pool.
type poolAdapter struct {
	pool *md2word.ConverterPool
}

var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (CLIConverter, error) {
	c, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Release panics on a converter the pool did not hand out.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*md2word.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

// conversionParams holds the settings shared by every file of a batch.
type conversionParams struct {
	format     string
	timeout    time.Duration
	stripMath  bool
	properties md2word.DocumentProperties
	now        func() time.Time
	stdout     io.Writer
	logger     *zap.Logger
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// clipboardPayload is the JSON written for the clipboard format.
type clipboardPayload struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark this worker's jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := params.now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	finish := func(err error) ConversionResult {
		result.Err = err
		result.Duration = params.now().Sub(start)
		return result
	}

	content := f.Source
	if content == nil {
		data, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
		if err != nil {
			return finish(fmt.Errorf("%w: %w", ErrReadMarkdown, err))
		}
		content = data
	}

	if params.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.timeout)
		defer cancel()
	}

	data, err := render(ctx, conv, string(content), f.InputPath, params)
	if err != nil {
		return finish(err)
	}

	if err := writeOutput(f.OutputPath, data, params.stdout); err != nil {
		return finish(err)
	}

	params.logger.Debug("converted",
		zap.String("input", f.InputPath),
		zap.String("output", f.OutputPath),
		zap.Int("bytes", len(data)))
	return finish(nil)
}

// render converts markdown into the bytes of the requested format.
func render(ctx context.Context, conv CLIConverter, markdown, inputPath string, params *conversionParams) ([]byte, error) {
	props := params.properties
	in := md2word.Input{
		Markdown:   markdown,
		Properties: &props,
		StripMath:  params.stripMath,
	}

	switch params.format {
	case config.FormatHTML:
		res, err := conv.HTML(ctx, in)
		if err != nil {
			return nil, err
		}
		page, err := htmlPage(res.HTML, inputPath, props.Title)
		if err != nil {
			return nil, err
		}
		return []byte(page), nil

	case config.FormatClipboard:
		clip, err := conv.Clipboard(ctx, in)
		if err != nil {
			return nil, err
		}
		out, err := json.MarshalIndent(clipboardPayload{HTML: clip.HTML, Text: clip.PlainText}, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil

	default:
		res, err := conv.Docx(ctx, in)
		if err != nil {
			return nil, err
		}
		if res.Diagrams > 0 {
			params.logger.Debug("diagrams embedded", zap.String("input", inputPath), zap.Int("count", res.Diagrams))
		}
		return res.Docx, nil
	}
}

// htmlPage sanitizes the fragment, anchors relative paths at the source
// directory and wraps it into a standalone page titled after the file
// unless a title is set.
func htmlPage(fragment, inputPath, title string) (string, error) {
	html, err := pipeline.Sanitize(fragment)
	if err != nil {
		return "", err
	}

	if inputPath != stdinPath {
		html, err = pipeline.RewriteRelativePaths(html, filepath.Dir(inputPath))
		if err != nil {
			return "", err
		}
	}

	if title == "" && inputPath != stdinPath {
		title = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}
	return pipeline.WrapDocument(html, title), nil
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdinPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// printResults outputs conversion results and returns the failure count.
// A lone failure is left to the caller to report.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			}
			continue
		}

		succeeded++
		if quiet || r.OutputPath == stdinPath {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stderr, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stderr, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}
