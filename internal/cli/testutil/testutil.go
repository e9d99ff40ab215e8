// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// SampleArchive returns the archive written by SetupTestArchive: Materials
// with two rows and Schedules with one.
func SampleArchive() *ddf.Archive {
	materials := cdt.New([]int{1, 2, 3}, "Name", "Conductivity", "Density")
	materials.AppendRow("Brick", "0.77", "1700")
	materials.AppendRow("Concrete", "1.13", "2000")

	schedules := cdt.New([]int{10, 20}, "Name", "Type")
	schedules.AppendRow("Office", "Weekly")

	a := &ddf.Archive{}
	a.Set(schema.Materials, materials)
	a.Set(schema.Schedules, schedules)
	return a
}

// SetupTestArchive writes SampleArchive to a temporary project.ddf and
// returns its path.
func SetupTestArchive(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "project.ddf")
	_, err := ddf.Write(context.Background(), SampleArchive(), path)
	require.NoError(t, err)
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode detection.
// In tests, non-TTY defaults to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation: balanced code
// fences and no empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// AssertOutputMode checks that the renderer output matches expected mode characteristics.
func AssertOutputMode(t *testing.T, tr *TestRenderer, expectedMode output.OutputMode) {
	t.Helper()

	combined := tr.Output() + tr.ErrorOutput()
	switch expectedMode {
	case output.ModeMarkdown:
		AssertNoANSI(t, combined)
		AssertValidMarkdown(t, tr.Output())
	case output.ModeJSON:
		AssertNoANSI(t, combined)
	}
}
