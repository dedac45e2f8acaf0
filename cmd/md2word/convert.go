package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	md2word "github.com/alnah/go-md2word"
	"github.com/alnah/go-md2word/internal/config"
)

// Sentinel errors for the convert command.
var (
	ErrNoInput           = errors.New("no input specified")
	ErrInvalidTimeout    = errors.New("invalid timeout")
	ErrConversionsFailed = errors.New("conversions failed")
)

// stdinPath selects standard input or output.
const stdinPath = "-"

// CLIConverter is the part of md2word.Converter the CLI uses.
type CLIConverter interface {
	HTML(ctx context.Context, in md2word.Input) (*md2word.HTMLResult, error)
	Docx(ctx context.Context, in md2word.Input) (*md2word.DocxResult, error)
	Clipboard(ctx context.Context, in md2word.Input) (*md2word.ClipboardData, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*md2word.Converter)(nil)

// runConvert executes the convert command.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printConvertUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}

	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.verbose, flags.common.quiet)
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}

	// Merge CLI flags into config (CLI wins)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, env.Getenv(config.EnvTimeout))
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}

	files, err := collectFiles(inputPath, resolveOutputDir(flags.output, cfg), cfg.Output.Format, env)
	if err != nil {
		return err
	}

	poolSize := md2word.ResolvePoolSize(flags.workers)
	logger.Debug("starting conversion",
		zap.Int("files", len(files)),
		zap.Int("workers", poolSize),
		zap.String("format", cfg.Output.Format))

	pool := md2word.NewConverterPool(poolSize, newConverterFactory(cfg, logger))
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converters", zap.Error(err))
		}
	}()

	params := &conversionParams{
		format:    cfg.Output.Format,
		timeout:   timeout,
		stripMath: flags.stripMath,
		properties: md2word.DocumentProperties{
			Title:    cfg.Document.Title,
			Author:   cfg.Document.Author,
			Subject:  cfg.Document.Subject,
			Keywords: cfg.Document.Keywords,
		},
		now:    env.Now,
		stdout: env.Stdout,
		logger: logger,
	}

	results := convertBatch(ctx, &poolAdapter{pool: pool}, files, params)
	return summarize(results, flags.common, env)
}

// loadConfig loads the config named by the flag, then MD2WORD_CONFIG, and
// falls back to the defaults when neither is set.
func loadConfig(flagValue string, env *Environment) (*config.Config, error) {
	name := flagValue
	if name == "" {
		name = env.Getenv(config.EnvConfig)
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags applies explicitly set flags over cfg and validates the result.
// A preset flag replaces the config's options before the other style flags
// apply.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	if flags.style.preset != "" {
		opts, err := config.LoadPreset(flags.style.preset, cfg.Assets.BasePath)
		if err != nil {
			return fmt.Errorf("loading preset: %w", err)
		}
		cfg.Preset = flags.style.preset
		cfg.Options = opts
	}

	if flags.style.math != "" {
		cfg.Options.Math.Output = strings.ToLower(flags.style.math)
	}
	if flags.style.theme != "" {
		cfg.Options.Code.Theme = strings.ToLower(flags.style.theme)
	}
	if flags.style.font != "" {
		cfg.Options.Text.FontFamily = flags.style.font
	}
	if flags.style.noMerge {
		cfg.Options.Table.MergeCells = false
	}
	if flags.style.lineNumbers {
		cfg.Options.Code.LineNumbers = true
	}

	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.author != "" {
		cfg.Document.Author = flags.document.author
	}

	if flags.format != "" {
		cfg.Output.Format = flags.format
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format == "" {
		cfg.Output.Format = config.FormatDocx
	}
	if flags.noDiagrams {
		cfg.Diagrams.Enabled = false
	}

	return cfg.Validate()
}

// resolveTimeout returns the per-file timeout. Priority: flag > env.
// Zero means no deadline.
func resolveTimeout(flagValue, envValue string) (time.Duration, error) {
	sources := []struct {
		name  string
		value string
	}{
		{"--timeout", flagValue},
		{config.EnvTimeout, envValue},
	}

	for _, src := range sources {
		value := strings.TrimSpace(src.value)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrInvalidTimeout, src.name, src.value)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidTimeout, src.name, src.value)
		}
		return d, nil
	}
	return 0, nil
}

// resolveInputPath returns the single positional input.
func resolveInputPath(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("%w: pass a Markdown file, a directory, or - for stdin", ErrNoInput)
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: expected one input, got %d", ErrInvalidFlags, len(args))
	}
}

// resolveOutputDir returns the output location. Priority: flag > config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.Directory
}

// collectFiles builds the conversion jobs. Standard input is read up front
// and written to stdout unless an output file is named.
func collectFiles(inputPath, output, format string, env *Environment) ([]FileToConvert, error) {
	if inputPath == stdinPath {
		src, err := io.ReadAll(env.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", ErrReadMarkdown, err)
		}
		if output == "" {
			output = stdinPath
		}
		return []FileToConvert{{InputPath: stdinPath, OutputPath: output, Source: src}}, nil
	}

	files, err := discoverFiles(inputPath, output, outputExtension(format))
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, inputPath)
	}
	return files, nil
}

// newConverterFactory returns the pool factory. Each converter gets its own
// cache and, for .docx output with diagrams enabled, its own browser.
func newConverterFactory(cfg *config.Config, logger *zap.Logger) func() (*md2word.Converter, error) {
	return func() (*md2word.Converter, error) {
		opts := []md2word.Option{
			md2word.WithOptions(cfg.Options),
			md2word.WithCleaner(cfg.Cleaner),
			md2word.WithCache(md2word.NewCache(cfg.Cache.Capacity, cfg.CacheTTL())),
			md2word.WithLogger(logger),
		}

		if cfg.Diagrams.Enabled && cfg.Output.Format == config.FormatDocx {
			diagrams, err := md2word.NewRodDiagramRenderer(
				md2word.WithDiagramTimeout(cfg.DiagramTimeout()),
				md2word.WithMermaidScript(cfg.Diagrams.ScriptURL),
				md2word.WithDiagramLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			opts = append(opts, md2word.WithDiagramRenderer(diagrams))
		}

		return md2word.NewConverter(opts...)
	}
}

// summarize prints the results and turns failures into the command error.
// A single failed file returns its own error so the exit code reflects it.
func summarize(results []ConversionResult, common commonFlags, env *Environment) error {
	failed := printResults(results, common.quiet, common.verbose, env)
	if failed == 0 {
		return nil
	}
	if len(results) == 1 {
		return fmt.Errorf("%s: %w", results[0].InputPath, results[0].Err)
	}
	return fmt.Errorf("%w: %d of %d", ErrConversionsFailed, failed, len(results))
}
