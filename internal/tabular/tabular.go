// Package tabular converts CDT tables to and from interchange formats.
//
// CSV uses the worksheet layout of the desktop editor: the first record holds
// the identifiers, the second the column names, every further record one
// data row. A record holding nothing is written as a lone "" field, and a
// record that is one empty field reads back as no fields, the same rule the
// CDT codec applies to its lines. JSON and YAML use a {ids, columns, rows}
// document.
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
)

// Format is an interchange format.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, YAML}

// ErrUnknownFormat is returned for a format name that is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat resolves a format name, case-insensitively. "yml" is accepted
// for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q (want csv, json or yaml)", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Document is the JSON and YAML form of a table.
type Document struct {
	IDs     []int      `json:"ids" yaml:"ids"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// NewDocument returns the document form of t. Empty sections are rendered
// as empty lists, not null.
func NewDocument(t *cdt.Table) Document {
	d := Document{IDs: t.IDs, Columns: t.Columns, Rows: t.Rows}
	if d.IDs == nil {
		d.IDs = []int{}
	}
	if d.Columns == nil {
		d.Columns = []string{}
	}
	if d.Rows == nil {
		d.Rows = [][]string{}
	}
	return d
}

// Table converts the document back into a padded table.
func (d Document) Table() *cdt.Table {
	t := &cdt.Table{IDs: d.IDs, Columns: d.Columns, Rows: d.Rows}
	t.Pad()
	return t
}

// Export writes t to w in the given format.
func Export(w io.Writer, t *cdt.Table, format Format) error {
	if t == nil {
		return errors.New("nil table")
	}
	switch format {
	case CSV:
		return exportCSV(w, t)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(t))
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(t)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Import reads a table from r in the given format. Short rows are padded and
// identifiers are coerced leniently, the same way the CDT codec reads them.
func Import(r io.Reader, format Format) (*cdt.Table, error) {
	switch format {
	case CSV:
		return importCSV(r)
	case JSON:
		var d Document
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode JSON table: %w", err)
		}
		return d.Table(), nil
	case YAML:
		var d Document
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, cdt.ErrTruncated
			}
			return nil, fmt.Errorf("failed to decode YAML table: %w", err)
		}
		return d.Table(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func exportCSV(w io.Writer, t *cdt.Table) error {
	cw := csv.NewWriter(w)

	// csv.Writer emits an empty record as a blank line, which csv.Reader skips.
	write := func(record []string) error {
		if len(record) > 1 || (len(record) == 1 && record[0] != "") {
			return cw.Write(record)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\"\"\n")
		return err
	}

	ids := make([]string, len(t.IDs))
	for i, id := range t.IDs {
		ids[i] = strconv.Itoa(id)
	}
	if err := write(ids); err != nil {
		return err
	}
	if err := write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func importCSV(r io.Reader) (*cdt.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV table: %w", err)
	}
	if len(records) < 2 {
		return nil, cdt.ErrTruncated
	}

	for i, rec := range records {
		if len(rec) == 1 && rec[0] == "" {
			records[i] = []string{}
		}
	}

	t := &cdt.Table{
		IDs:     make([]int, 0, len(records[0])),
		Columns: records[1],
		Rows:    records[2:],
	}
	for _, f := range records[0] {
		t.IDs = append(t.IDs, cdt.ParseID(f))
	}
	t.Pad()
	return t, nil
}
