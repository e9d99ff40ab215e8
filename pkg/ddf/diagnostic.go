package ddf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// NotFound: the archive path does not exist. The read yields an empty
	// archive.
	NotFound Kind = iota + 1
	// Truncated: a table member has fewer than two lines.
	Truncated
	// UnknownMember: a member does not name a registry slot; it is dropped.
	UnknownMember
	// DuplicateMember: a second member maps to an already loaded slot.
	DuplicateMember
	// AccessDenied: storage refused to read or write a table.
	AccessDenied
	// Malformed: a table member exists but could not be read or decoded.
	Malformed
	// CorruptContainer: the ZIP container cannot be opened.
	CorruptContainer
	// IOError: a workspace could not be created or removed.
	IOError
)

var kindNames = map[Kind]string{
	NotFound:         "not_found",
	Truncated:        "truncated",
	UnknownMember:    "unknown_member",
	DuplicateMember:  "duplicate_member",
	AccessDenied:     "access_denied",
	Malformed:        "malformed",
	CorruptContainer: "corrupt_container",
	IOError:          "io_error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Severity is the log level a diagnostic is reported at.
func (k Kind) Severity() slog.Level {
	switch k {
	case CorruptContainer, AccessDenied, IOError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Diagnostic is one non-fatal finding of a read or write.
type Diagnostic struct {
	Kind Kind
	// Table is the registry name or, for unknown members, the member name
	// without its table extension.
	Table string
	Path  string
	Err   error
}

func (d Diagnostic) String() string {
	var msg string
	switch d.Kind {
	case NotFound:
		msg = fmt.Sprintf("archive not found: %s", d.Path)
	case UnknownMember:
		msg = fmt.Sprintf("unknown member %q dropped", d.Table)
	case DuplicateMember:
		msg = fmt.Sprintf("duplicate member for %s ignored: %s", d.Table, d.Path)
	case CorruptContainer:
		msg = fmt.Sprintf("cannot open archive %s", d.Path)
	case IOError:
		msg = fmt.Sprintf("workspace error at %s", d.Path)
	default:
		msg = fmt.Sprintf("%s: table %s treated as absent", d.Kind, d.Table)
	}
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

// Diagnostics is the ordered list of findings of one call.
type Diagnostics []Diagnostic

// Has reports whether any diagnostic is of kind k.
func (ds Diagnostics) Has(k Kind) bool {
	for _, d := range ds {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// Of returns the diagnostics of kind k.
func (ds Diagnostics) Of(k Kind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Unknown returns the names of the unknown members.
func (ds Diagnostics) Unknown() []string {
	var out []string
	for _, d := range ds.Of(UnknownMember) {
		out = append(out, d.Table)
	}
	return out
}

// Err joins all diagnostics into one error, or returns nil.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = errors.New(d.String())
	}
	return errors.Join(errs...)
}

// report collects diagnostics and mirrors each one to the logger.
type report struct {
	ctx    context.Context
	diags  Diagnostics
	logger *slog.Logger
}

func (r *report) add(d Diagnostic) {
	r.diags = append(r.diags, d)
	attrs := []any{slog.String("kind", d.Kind.String())}
	if d.Table != "" {
		attrs = append(attrs, slog.String("table", d.Table))
	}
	if d.Path != "" {
		attrs = append(attrs, slog.String("path", d.Path))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.Any("error", d.Err))
	}
	r.logger.Log(r.ctx, d.Kind.Severity(), "ddf diagnostic", attrs...)
}
