package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"

	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// AppName is used for XDG directory paths.
const AppName = "pdflinker"

// Feedback backends
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Server defaults
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultMaxUploadMB     = 64
	DefaultMaxConnections  = 64
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultTolerance is the word gap and line distance, in points.
const DefaultTolerance = 3.0

// Config holds all options of a pdflinker run or server.
type Config struct {
	Patterns      PatternsConfig `yaml:"patterns"`
	Boundary      BoundaryConfig `yaml:"boundary"`
	Padding       float64        `yaml:"padding"`
	Text          TextConfig     `yaml:"text"`
	Bidirectional bool           `yaml:"bidirectional"`
	Feedback      FeedbackConfig `yaml:"feedback"`
	Server        ServerConfig   `yaml:"server"`
}

// PatternsConfig selects built-in marker patterns and defines custom ones.
type PatternsConfig struct {
	// Enabled names built-in patterns: numbered, exercise, solution.
	Enabled []string        `yaml:"enabled"`
	Custom  []CustomPattern `yaml:"custom"`
}

// CustomPattern is a user-defined marker expression.
type CustomPattern struct {
	Name   string `yaml:"name"`
	Side   string `yaml:"side"`
	Regexp string `yaml:"regexp"`
}

// BoundaryConfig locates the solutions section.
type BoundaryConfig struct {
	SolutionsFromPage int    `yaml:"solutions_from_page"`
	SolutionsHeading  string `yaml:"solutions_heading"`
	RestartAfter      int    `yaml:"restart_after"`
}

// TextConfig tunes how characters are grouped into words and lines.
type TextConfig struct {
	XTolerance float64 `yaml:"x_tolerance"`
	YTolerance float64 `yaml:"y_tolerance"`
}

// FeedbackConfig selects where feedback is stored.
type FeedbackConfig struct {
	Backend string `yaml:"backend"`
	// Path defaults to a file in the XDG data directory.
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	MaxConnections  int           `yaml:"max_connections"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Patterns: PatternsConfig{
			Enabled: []string{extract.PatternNumbered, extract.PatternExercise, extract.PatternSolution},
		},
		Padding: extract.DefaultPadding,
		Text: TextConfig{
			XTolerance: DefaultTolerance,
			YTolerance: DefaultTolerance,
		},
		Bidirectional: true,
		Feedback: FeedbackConfig{
			Backend: BackendCSV,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MaxUploadMB:     DefaultMaxUploadMB,
			MaxConnections:  DefaultMaxConnections,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// XDGDataDir returns the directory holding the feedback log.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the directory searched for config.yaml.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and compiles its expressions.
func (c *Config) Validate() error {
	if c.Padding < 0 {
		return ErrInvalidPadding
	}
	if c.Text.XTolerance < 0 || c.Text.YTolerance < 0 {
		return ErrInvalidTolerance
	}
	if c.Boundary.SolutionsFromPage < 0 || c.Boundary.RestartAfter < 0 {
		return ErrInvalidBoundary
	}
	switch c.Feedback.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFeedbackBackend, c.Feedback.Backend)
	}
	if c.Server.MaxUploadMB <= 0 {
		return ErrInvalidUploadLimit
	}
	if c.Server.MaxConnections < 0 {
		return ErrInvalidConnectionLimit
	}
	if _, err := c.ScanOptions(); err != nil {
		return err
	}
	return nil
}

// FeedbackPath returns the configured feedback location or the default
// file for the backend in the XDG data directory.
func (c *Config) FeedbackPath() string {
	if c.Feedback.Path != "" {
		return c.Feedback.Path
	}
	if c.Feedback.Backend == BackendSQLite {
		return filepath.Join(XDGDataDir(), "feedback.db")
	}
	return filepath.Join(XDGDataDir(), "feedback.csv")
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// ScanOptions compiles the pattern and boundary sections.
func (c *Config) ScanOptions() (extract.Options, error) {
	opts := extract.DefaultOptions()
	opts.Padding = c.Padding
	opts.Patterns = nil
	opts.TextOptions = []pdf.TextExtractionOption{
		pdf.WithXTolerance(c.Text.XTolerance),
		pdf.WithYTolerance(c.Text.YTolerance),
	}

	for _, name := range c.Patterns.Enabled {
		p, err := extract.LookupPattern(name)
		if err != nil {
			return opts, err
		}
		opts.Patterns = append(opts.Patterns, p)
	}
	for _, custom := range c.Patterns.Custom {
		p, err := extract.CompilePattern(custom.Name, custom.Side, custom.Regexp)
		if err != nil {
			return opts, err
		}
		opts.Patterns = append(opts.Patterns, p)
	}
	if len(opts.Patterns) == 0 {
		return opts, ErrNoPatterns
	}

	opts.Boundary.FromPage = c.Boundary.SolutionsFromPage
	opts.Boundary.RestartAfter = c.Boundary.RestartAfter
	if c.Boundary.SolutionsHeading != "" {
		re, err := regexp.Compile(c.Boundary.SolutionsHeading)
		if err != nil {
			return opts, fmt.Errorf("%w: solutions heading: %w", extract.ErrInvalidPattern, err)
		}
		opts.Boundary.Heading = re
	}

	return opts, nil
}

// LinkerOptions returns the linker options for this configuration.
func (c *Config) LinkerOptions() ([]linker.Option, error) {
	scan, err := c.ScanOptions()
	if err != nil {
		return nil, err
	}
	return []linker.Option{
		linker.WithPatterns(scan.Patterns...),
		linker.WithBoundary(scan.Boundary),
		linker.WithPadding(scan.Padding),
		linker.WithTextOptions(scan.TextOptions...),
		linker.WithBidirectional(c.Bidirectional),
	}, nil
}
