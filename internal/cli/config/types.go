// Package config provides configuration management for the ddf CLI.
//
// Settings are layered with koanf: defaults, then a ddf.yaml file, then
// DDF_* environment variables, then explicitly set command-line flags.
package config

import (
	"log/slog"
	"time"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// Config holds all CLI configuration options.
type Config struct {
	Extension    string `koanf:"extension"`
	Strict       bool   `koanf:"strict"`
	RowPolicy    string `koanf:"row_policy"`
	LineEnding   string `koanf:"line_ending"`
	Charset      string `koanf:"charset"`
	TempDir      string `koanf:"temp_dir"`
	Workers      int    `koanf:"workers"`
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`

	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// Default configuration values.
const (
	DefaultExtension  = cdt.Extension
	DefaultRowPolicy  = "pad"
	DefaultLineEnding = "crlf"
	DefaultCharset    = "utf-8"
	DefaultWorkers    = 4
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel   = "warn"

	DefaultWatchDebounce = 200 * time.Millisecond
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Extension:    DefaultExtension,
		RowPolicy:    DefaultRowPolicy,
		LineEnding:   DefaultLineEnding,
		Charset:      DefaultCharset,
		Workers:      DefaultWorkers,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,

		WatchDebounce: DefaultWatchDebounce,
	}
}

// Codec builds the table codec the configuration selects.
func (c *Config) Codec() (cdt.Codec, error) {
	rows, err := cdt.ParseRowPolicy(c.RowPolicy)
	if err != nil {
		return cdt.Codec{}, err
	}
	eol, err := cdt.ParseLineEnding(c.LineEnding)
	if err != nil {
		return cdt.Codec{}, err
	}
	cs, err := cdt.ParseCharset(c.Charset)
	if err != nil {
		return cdt.Codec{}, err
	}
	return cdt.Codec{LineEnding: eol, Charset: cs, Rows: rows}, nil
}

// ManagerOptions builds archive manager options from the configuration.
func (c *Config) ManagerOptions(logger *slog.Logger) (ddf.Options, error) {
	codec, err := c.Codec()
	if err != nil {
		return ddf.Options{}, err
	}
	return ddf.Options{
		Codec:     codec,
		Extension: c.Extension,
		Strict:    c.Strict,
		TempDir:   c.TempDir,
		Logger:    logger,
	}, nil
}

// Level returns the log level: debug when verbose, otherwise log_level.
// An unparsable level falls back to warn.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}
