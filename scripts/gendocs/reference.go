package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Tokarzewski/ddf-lib/internal/cli/config"
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// ConfigField describes one ddf.yaml key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

// getConfigSchema mirrors config.Config; defaults come from config.Default.
func getConfigSchema() []ConfigField {
	def := config.Default()
	return []ConfigField{
		{Name: "extension", Type: "string", Default: def.Extension, Description: "Extension of table members inside archives"},
		{Name: "strict", Type: "bool", Default: strconv.FormatBool(def.Strict), Description: "Fail reads of archives holding unknown members"},
		{Name: "row_policy", Type: "string", Default: def.RowPolicy, Description: "Ragged rows on write: pad or reject"},
		{Name: "line_ending", Type: "string", Default: def.LineEnding, Description: "Line terminator of written tables: crlf or lf"},
		{Name: "charset", Type: "string", Default: def.Charset, Description: "Table encoding: utf-8 or windows-1252"},
		{Name: "temp_dir", Type: "string", Default: def.TempDir, Description: "Directory for per-call workspaces (system temp when empty)"},
		{Name: "workers", Type: "int", Default: strconv.Itoa(def.Workers), Description: "Archives processed concurrently by extract"},
		{Name: "output", Type: "string", Default: def.OutputFormat, Description: "Output format: auto, text, markdown or json"},
		{Name: "verbose", Type: "bool", Default: strconv.FormatBool(def.Verbose), Description: "Enable debug logging"},
		{Name: "log_level", Type: "string", Default: def.LogLevel, Description: "Log level: debug, info, warn or error"},
		{Name: "watch_debounce", Type: "duration", Default: def.WatchDebounce.String(), Description: "Quiet period before watch re-reads a changed archive"},
	}
}

func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(key)
}

// generateConfigDocs writes configuration.md.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "ddf configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("ddf reads `ddf.yaml` (or `ddf.yml`) from the working directory or the nearest parent directory. " +
		"Use `--config` to point at another file. Relative `temp_dir` values are resolved against the file's directory.")

	var rows [][]string
	for _, f := range getConfigSchema() {
		defVal := "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, InlineCode(envVar(f.Name)), f.Description})
	}
	w.Table([]string{"Key", "Type", "Default", "Environment", "Description"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `line_ending: lf
charset: windows-1252
row_policy: reject
workers: 8
temp_dir: ${HOME}/.cache/ddf`)

	return writePage(outDir, "configuration.md", w)
}

// generateTableDocs writes tables.md, the registry reference.
func generateTableDocs(outDir string) error {
	log.Printf("Generating table docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Tables", "Tables a DDF archive may contain")
	w.GeneratedMarker()

	w.Header(1, "Tables")
	w.Paragraph("A DDF archive holds at most one member per registry entry. Members are written in the order below; " +
		"any other member is reported as unknown and dropped.")

	var rows [][]string
	for _, slot := range schema.Slots() {
		rows = append(rows, []string{
			strconv.Itoa(int(slot)),
			slot.String(),
			InlineCode(slot.FileName(cdt.Extension)),
		})
	}
	w.Table([]string{"#", "Table", "Member"}, rows)

	w.Header(2, "Table Format")
	w.Paragraph("Each member is a CDT text table: a line of integer identifiers, a line of column names and one line per row. " +
		"Every line starts with `" + cdt.LinePrefix + "`.")
	w.CodeBlock("text", fmt.Sprintf("#1%[1]s2%[1]s3\n#Name%[1]sConductivity%[1]sDensity\n#Brick%[2]s0.77%[2]s1700",
		cdt.HeaderSeparator, cdt.DataSeparator))

	return writePage(outDir, "tables.md", w)
}
