package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
)

var outputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := cdt.ParseRowPolicy(c.RowPolicy); err != nil {
		return fmt.Errorf("row_policy: %w", err)
	}
	if _, err := cdt.ParseLineEnding(c.LineEnding); err != nil {
		return fmt.Errorf("line_ending: %w", err)
	}
	if _, err := cdt.ParseCharset(c.Charset); err != nil {
		return fmt.Errorf("charset: %w", err)
	}
	if strings.ContainsAny(c.Extension, `/\`) {
		return fmt.Errorf("extension must not contain a path separator: %q", c.Extension)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	if c.OutputFormat != "" && !slices.Contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want %s)", c.OutputFormat, strings.Join(outputModes, ", "))
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}
