// Package config loads md2word configuration files: conversion options,
// document properties and CLI defaults, optionally layered over a preset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2word/internal/assets"
	"github.com/alnah/go-md2word/internal/cleaner"
	"github.com/alnah/go-md2word/internal/fileutil"
	"github.com/alnah/go-md2word/internal/options"
	"github.com/alnah/go-md2word/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Environment variables read by the CLI.
const (
	EnvConfig     = "MD2WORD_CONFIG"  // Config name or path used when --config is absent
	EnvTimeout    = "MD2WORD_TIMEOUT" // Per-file timeout, e.g. "45s"
	EnvBrowserBin = "ROD_BROWSER_BIN" // Chrome binary for diagrams
)

// Output formats.
const (
	FormatDocx      = "docx"
	FormatHTML      = "html"
	FormatClipboard = "clipboard"
)

// Field length limits for multi-tenant safety.
const (
	MaxTitleLength   = 200  // Document title
	MaxAuthorLength  = 100  // Full name (generous)
	MaxSubjectLength = 200  // Document subject
	MaxKeywordLength = 50   // Single keyword
	MaxKeywords      = 50   // Keyword count
	MaxPathLength    = 4096 // PATH_MAX
	MaxURLLength     = 2048 // Browser limit
	MaxNameLength    = 64   // Preset name
)

// Config holds all configuration for document generation.
type Config struct {
	Preset   string                    `yaml:"preset"`
	Options  options.ConversionOptions `yaml:"options"`
	Document DocumentConfig            `yaml:"document"`
	Cache    CacheConfig               `yaml:"cache"`
	Diagrams DiagramsConfig            `yaml:"diagrams"`
	Cleaner  cleaner.Options           `yaml:"cleaner"`
	Output   OutputConfig              `yaml:"output"`
	Assets   AssetsConfig              `yaml:"assets"`
}

// DocumentConfig holds the properties written to generated .docx files.
type DocumentConfig struct {
	Title    string   `yaml:"title"`  // Empty = first heading
	Author   string   `yaml:"author"` // Optional
	Subject  string   `yaml:"subject"`
	Keywords []string `yaml:"keywords"`
}

// CacheConfig sizes the HTML result cache.
type CacheConfig struct {
	Capacity int    `yaml:"capacity"` // 0 = default (10)
	TTL      string `yaml:"ttl"`      // Go duration, empty = default (5m)
}

// DiagramsConfig controls mermaid rasterization.
type DiagramsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Timeout   string `yaml:"timeout"`   // Go duration per diagram, empty = default
	ScriptURL string `yaml:"scriptURL"` // Empty = template default
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Format    string `yaml:"format"`    // "docx", "html", "clipboard" (default: "docx")
	Directory string `yaml:"directory"` // Default output directory (empty = same as source)
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns stock options with every cleaner pass and diagrams
// enabled.
func DefaultConfig() *Config {
	return &Config{
		Options:  options.Default(),
		Diagrams: DiagramsConfig{Enabled: true},
		Cleaner:  cleaner.DefaultOptions(),
		Output:   OutputConfig{Format: FormatDocx},
	}
}

// CacheTTL returns the parsed cache lifetime, zero when unset.
func (c *Config) CacheTTL() time.Duration {
	d, _ := parseDuration(c.Cache.TTL)
	return d
}

// DiagramTimeout returns the parsed per-diagram timeout, zero when unset.
func (c *Config) DiagramTimeout() time.Duration {
	d, _ := parseDuration(c.Diagrams.Timeout)
	return d
}

// Validate checks values and field lengths. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}

	if err := validateFieldLength("preset", c.Preset, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.author", c.Document.Author, MaxAuthorLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.subject", c.Document.Subject, MaxSubjectLength); err != nil {
		return err
	}
	if len(c.Document.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: document.keywords has %d entries (max %d)", ErrInvalidValue, len(c.Document.Keywords), MaxKeywords)
	}
	for i, kw := range c.Document.Keywords {
		if err := validateFieldLength(fmt.Sprintf("document.keywords[%d]", i), kw, MaxKeywordLength); err != nil {
			return err
		}
	}

	if c.Cache.Capacity < 0 {
		return fmt.Errorf("%w: cache.capacity must not be negative, got %d", ErrInvalidValue, c.Cache.Capacity)
	}
	if _, err := parseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	if _, err := parseDuration(c.Diagrams.Timeout); err != nil {
		return fmt.Errorf("diagrams.timeout: %w", err)
	}
	if err := validateFieldLength("diagrams.scriptURL", c.Diagrams.ScriptURL, MaxURLLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Output.Format) {
	case "", FormatDocx, FormatHTML, FormatClipboard:
		// valid
	default:
		return fmt.Errorf("%w: output.format %q (must be docx, html, or clipboard)", ErrInvalidValue, c.Output.Format)
	}
	if err := validateFieldLength("output.directory", c.Output.Directory, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

// parseDuration accepts an empty string as zero and rejects non-positive
// durations.
func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidValue, s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadPreset returns the named preset merged over the stock options. A
// basePath containing a presets/ directory overrides the embedded presets.
func LoadPreset(name, basePath string) (options.ConversionOptions, error) {
	opts := options.Default()
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return opts, err
	}
	data, err := resolver.LoadPreset(name)
	if err != nil {
		return opts, err
	}
	if strings.TrimSpace(data) == "" {
		return opts, nil
	}
	if err := yamlutil.MergeStrict([]byte(data), &opts); err != nil {
		return opts, fmt.Errorf("%w: preset %q: %v", ErrConfigParse, name, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("preset %q: %w", name, err)
	}
	return opts, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
//
// Keys absent from the file keep their default, or preset, value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(string(data)) == "" {
		return cfg, nil
	}

	// The preset must be applied before the file's own options.
	var head struct {
		Preset string       `yaml:"preset"`
		Assets AssetsConfig `yaml:"assets"`
	}
	if err := yamlutil.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if head.Preset != "" {
		opts, err := LoadPreset(head.Preset, head.Assets.BasePath)
		if err != nil {
			return nil, err
		}
		cfg.Options = opts
	}

	if err := yamlutil.MergeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2word/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-md2word", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
