package cdt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CDT format tokens.
const (
	LinePrefix      = "#"
	HeaderSeparator = " #"
	DataSeparator   = "  #"
	Extension       = ".cdt"
)

// LineEnding selects the terminator written after every line.
// Decoding accepts both.
type LineEnding int

const (
	CRLF LineEnding = iota
	LF
)

func (l LineEnding) String() string {
	if l == LF {
		return "lf"
	}
	return "crlf"
}

func (l LineEnding) terminator() string {
	if l == LF {
		return "\n"
	}
	return "\r\n"
}

// ParseLineEnding parses "crlf" or "lf".
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(s) {
	case "", "crlf":
		return CRLF, nil
	case "lf":
		return LF, nil
	}
	return CRLF, fmt.Errorf("unknown line ending %q (want crlf or lf)", s)
}

// Charset is the byte encoding of CDT files.
type Charset int

const (
	UTF8 Charset = iota
	Windows1252
)

func (c Charset) String() string {
	if c == Windows1252 {
		return "windows-1252"
	}
	return "utf-8"
}

// ParseCharset parses "utf-8" or "windows-1252" (aliases "utf8", "cp1252").
func ParseCharset(s string) (Charset, error) {
	switch strings.ToLower(s) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "windows-1252", "cp1252":
		return Windows1252, nil
	}
	return UTF8, fmt.Errorf("unknown charset %q (want utf-8 or windows-1252)", s)
}

// RowPolicy decides what Encode does with rows whose cell count differs from
// the column count.
type RowPolicy int

const (
	// PadRows pads short rows with empty cells and keeps long rows.
	PadRows RowPolicy = iota
	// RejectRagged fails with a RowError.
	RejectRagged
)

func (p RowPolicy) String() string {
	if p == RejectRagged {
		return "reject"
	}
	return "pad"
}

// ParseRowPolicy parses "pad" or "reject".
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(s) {
	case "", "pad":
		return PadRows, nil
	case "reject":
		return RejectRagged, nil
	}
	return PadRows, fmt.Errorf("unknown row policy %q (want pad or reject)", s)
}

// Codec encodes and decodes CDT tables. The zero value writes UTF-8 with
// CRLF line endings and pads short rows.
type Codec struct {
	LineEnding LineEnding
	Charset    Charset
	Rows       RowPolicy
}

// Unmarshal parses a CDT file with the default codec.
func Unmarshal(data []byte) (*Table, error) {
	return Codec{}.Unmarshal(data)
}

// Marshal serializes a table with the default codec.
func Marshal(t *Table) ([]byte, error) {
	return Codec{}.Marshal(t)
}

// Unmarshal parses a CDT file.
//
// Identifiers that are not 32-bit integers become 0. Short rows are padded
// with empty cells; long rows are kept as-is. Fewer than two lines is
// ErrTruncated.
func (c Codec) Unmarshal(data []byte) (*Table, error) {
	text, err := c.decodeText(data)
	if err != nil {
		return nil, err
	}

	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: %d line(s)", ErrTruncated, len(lines))
	}

	idFields := splitLine(lines[0], HeaderSeparator)
	ids := make([]int, len(idFields))
	for i, f := range idFields {
		ids[i] = ParseID(f)
	}

	columns := splitLine(lines[1], HeaderSeparator)

	rows := make([][]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		rows = append(rows, padCells(splitLine(line, DataSeparator), len(columns)))
	}

	return &Table{IDs: ids, Columns: columns, Rows: rows}, nil
}

// Decode reads a whole CDT file from r.
func (c Codec) Decode(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(data)
}

// Marshal serializes a table. Every line, including the last, ends with the
// codec's line terminator.
func (c Codec) Marshal(t *Table) ([]byte, error) {
	if t == nil {
		return nil, errors.New("cdt: nil table")
	}
	if err := t.Validate(c.Rows); err != nil {
		return nil, err
	}

	eol := c.LineEnding.terminator()
	var sb strings.Builder

	sb.WriteString(LinePrefix)
	for i, id := range t.IDs {
		if id < math.MinInt32 || id > math.MaxInt32 {
			return nil, fmt.Errorf("%w: identifier %d is %d", ErrIDOutOfRange, i, id)
		}
		if i > 0 {
			sb.WriteString(HeaderSeparator)
		}
		sb.WriteString(strconv.Itoa(id))
	}
	sb.WriteString(eol)

	if err := checkValues(-1, t.Columns, HeaderSeparator); err != nil {
		return nil, err
	}
	if len(t.Columns) == 1 && t.Columns[0] == "" {
		return nil, fmt.Errorf("%w: column names", ErrLoneEmptyField)
	}
	sb.WriteString(LinePrefix)
	sb.WriteString(strings.Join(t.Columns, HeaderSeparator))
	sb.WriteString(eol)

	for i, r := range t.Rows {
		if err := checkValues(i, r, DataSeparator); err != nil {
			return nil, err
		}
		if len(t.Columns) == 0 && len(r) == 1 && r[0] == "" {
			return nil, fmt.Errorf("%w: row %d", ErrLoneEmptyField, i)
		}
		if len(r) < len(t.Columns) {
			r = padCells(append([]string(nil), r...), len(t.Columns))
		}
		sb.WriteString(LinePrefix)
		sb.WriteString(strings.Join(r, DataSeparator))
		sb.WriteString(eol)
	}

	return c.encodeText(sb.String())
}

// Encode writes t to w.
func (c Codec) Encode(w io.Writer, t *Table) error {
	data, err := c.Marshal(t)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFile reads and parses a CDT file. A missing file yields an error
// matching fs.ErrNotExist, which callers treat as an absent table.
func (c Codec) ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := c.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// WriteFile serializes t to path, replacing any existing file.
func (c Codec) WriteFile(path string, t *Table) error {
	data, err := c.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c Codec) decodeText(data []byte) (string, error) {
	if c.Charset == Windows1252 {
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode windows-1252: %w", err)
		}
		return string(out), nil
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

func (c Codec) encodeText(s string) ([]byte, error) {
	if c.Charset == Windows1252 {
		out, err := charmap.Windows1252.NewEncoder().String(s)
		if err != nil {
			return nil, fmt.Errorf("failed to encode windows-1252: %w", err)
		}
		return []byte(out), nil
	}
	return []byte(s), nil
}

// splitLines splits on \n, drops a trailing \r from each line and ignores a
// single final terminator.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitLine strips the line prefix once and splits on the whole separator
// token. A line with nothing after the prefix has no fields.
func splitLine(line, sep string) []string {
	line = strings.TrimPrefix(line, LinePrefix)
	if line == "" {
		return []string{}
	}
	return strings.Split(line, sep)
}

// ParseID converts an identifier field leniently: surrounding whitespace is
// ignored and anything that is not a 32-bit decimal integer becomes 0.
func ParseID(s string) int {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

func checkValues(row int, values []string, sep string) error {
	for col, v := range values {
		if strings.Contains(v, sep) || strings.ContainsAny(v, "\r\n") {
			if row < 0 {
				return fmt.Errorf("%w: column name %d %q", ErrSeparatorInValue, col, v)
			}
			return fmt.Errorf("%w: row %d column %d", ErrSeparatorInValue, row, col)
		}
	}
	return nil
}
