package ddf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

var (
	// ErrCorruptContainer is returned when the ZIP container cannot be read.
	ErrCorruptContainer = errors.New("ddf: corrupt container")

	// ErrUnknownMember is returned by strict reads of archives holding
	// members outside the registry.
	ErrUnknownMember = errors.New("ddf: unknown archive member")

	// ErrNilArchive is returned when writing a nil archive.
	ErrNilArchive = errors.New("ddf: nil archive")
)

// Options configures a Manager.
type Options struct {
	// Codec reads and writes the table members.
	Codec cdt.Codec
	// Extension of table members, default ".cdt". Matched case-insensitively
	// on read.
	Extension string
	// Strict fails a read when the archive holds unknown members instead of
	// dropping them.
	Strict bool
	// TempDir is where workspaces are created (default os.TempDir()).
	TempDir string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Manager reads and writes DDF archives. It holds no mutable state and is
// safe for concurrent use; every call owns a separate workspace.
type Manager struct {
	codec   cdt.Codec
	ext     string
	strict  bool
	tempDir string
	logger  *slog.Logger
}

// New creates a Manager.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ext := opts.Extension
	if ext == "" {
		ext = cdt.Extension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Manager{
		codec:   opts.Codec,
		ext:     ext,
		strict:  opts.Strict,
		tempDir: opts.TempDir,
		logger:  logger,
	}
}

var defaultManager = New(Options{})

// Read reads an archive with default options.
func Read(ctx context.Context, path string) (*Archive, Diagnostics, error) {
	return defaultManager.Read(ctx, path)
}

// Write writes an archive with default options.
func Write(ctx context.Context, a *Archive, path string) (Diagnostics, error) {
	return defaultManager.Write(ctx, a, path)
}

// Extension returns the table member extension.
func (m *Manager) Extension() string {
	return m.ext
}

// Read loads every recognized table of the archive at path.
//
// A missing path yields an empty archive and a NotFound diagnostic. A
// container that cannot be opened yields an empty archive and an error
// wrapping ErrCorruptContainer. Per-table failures leave that slot absent and
// are reported as diagnostics. On error the returned archive is always empty.
func (m *Manager) Read(ctx context.Context, path string) (*Archive, Diagnostics, error) {
	op := newOpID()
	rep := &report{ctx: ctx, logger: m.logger.With("op", op, "archive", path)}

	a, err := m.read(ctx, path, op, rep)
	if err != nil {
		return &Archive{}, rep.diags, err
	}

	rep.logger.Debug("archive read",
		slog.Int("tables", a.Len()),
		slog.Int("diagnostics", len(rep.diags)),
	)
	return a, rep.diags, nil
}

func (m *Manager) read(ctx context.Context, path, op string, rep *report) (*Archive, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rep.add(Diagnostic{Kind: NotFound, Path: path, Err: err})
			return &Archive{}, nil
		}
		rep.add(Diagnostic{Kind: AccessDenied, Path: path, Err: err})
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	zr, err := openContainer(path)
	if err != nil {
		rep.add(Diagnostic{Kind: CorruptContainer, Path: path, Err: err})
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptContainer, path, err)
	}
	defer func() { _ = zr.Close() }()

	ws, err := newWorkspace(m.tempDir, op)
	if err != nil {
		rep.add(Diagnostic{Kind: IOError, Path: m.tempDir, Err: err})
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer m.closeWorkspace(ws, rep)

	if err := m.extractMembers(ctx, &zr.Reader, ws, rep); err != nil {
		return nil, err
	}

	return m.loadDir(ctx, ws.dir, rep)
}

// Write serializes every present table of a and replaces the file at path
// with a new archive. Absent slots are skipped. The destination is only
// replaced once the new archive is complete.
func (m *Manager) Write(ctx context.Context, a *Archive, path string) (Diagnostics, error) {
	if a == nil {
		return nil, ErrNilArchive
	}

	op := newOpID()
	rep := &report{ctx: ctx, logger: m.logger.With("op", op, "archive", path)}

	if err := m.write(ctx, a, path, op, rep); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			rep.add(Diagnostic{Kind: AccessDenied, Path: path, Err: err})
		}
		return rep.diags, err
	}

	rep.logger.Debug("archive written", slog.Int("tables", a.Len()))
	return rep.diags, nil
}

func (m *Manager) write(ctx context.Context, a *Archive, path, op string, rep *report) error {
	ws, err := newWorkspace(m.tempDir, op)
	if err != nil {
		rep.add(Diagnostic{Kind: IOError, Path: m.tempDir, Err: err})
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer m.closeWorkspace(ws, rep)

	members, err := m.saveDir(ctx, a, ws.dir)
	if err != nil {
		return err
	}

	return writeContainer(ctx, path, ws.dir, members)
}

// LoadDir loads the table files of a directory with the same rules as Read:
// recognized files are loaded, everything else is reported.
func (m *Manager) LoadDir(ctx context.Context, dir string) (*Archive, Diagnostics, error) {
	rep := &report{ctx: ctx, logger: m.logger.With("dir", dir)}
	a, err := m.loadDir(ctx, dir, rep)
	if err != nil {
		return &Archive{}, rep.diags, err
	}
	return a, rep.diags, nil
}

// SaveDir writes every present table of a into dir as <Name><ext> and returns
// the file names in registry order. dir is created if needed.
func (m *Manager) SaveDir(ctx context.Context, a *Archive, dir string) ([]string, error) {
	if a == nil {
		return nil, ErrNilArchive
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return m.saveDir(ctx, a, dir)
}

func (m *Manager) loadDir(ctx context.Context, dir string, rep *report) (*Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rep.add(Diagnostic{Kind: NotFound, Path: dir, Err: err})
			return &Archive{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make(map[schema.Slot]string)
	for _, entry := range entries {
		name := entry.Name()
		slot, known := m.memberSlot(name)
		if entry.IsDir() || !known {
			rep.add(Diagnostic{Kind: UnknownMember, Table: m.memberTable(name), Path: name})
			continue
		}
		if _, dup := files[slot]; dup {
			rep.add(Diagnostic{Kind: DuplicateMember, Table: slot.String(), Path: name})
			continue
		}
		files[slot] = name
	}

	if m.strict && rep.diags.Has(UnknownMember) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, strings.Join(rep.diags.Unknown(), ", "))
	}

	a := &Archive{}
	for _, slot := range schema.Slots() {
		name, ok := files[slot]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := m.codec.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			rep.add(Diagnostic{Kind: tableErrorKind(err), Table: slot.String(), Path: name, Err: err})
			continue
		}

		a.Set(slot, t)
		rep.logger.Debug("table loaded",
			slog.String("table", slot.String()),
			slog.Int("rows", t.NumRows()),
			slog.Int("columns", t.NumColumns()),
		)
	}
	return a, nil
}

func (m *Manager) saveDir(ctx context.Context, a *Archive, dir string) ([]string, error) {
	var members []string
	for _, slot := range a.Present() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, _ := a.Get(slot)
		name := slot.FileName(m.ext)
		if err := m.codec.WriteFile(filepath.Join(dir, name), t); err != nil {
			return nil, fmt.Errorf("failed to write table %s: %w", slot, err)
		}
		members = append(members, name)
	}
	return members, nil
}

func (m *Manager) closeWorkspace(ws *workspace, rep *report) {
	if err := ws.Close(); err != nil {
		rep.add(Diagnostic{Kind: IOError, Path: ws.dir, Err: err})
	}
}

func tableErrorKind(err error) Kind {
	switch {
	case errors.Is(err, cdt.ErrTruncated):
		return Truncated
	case errors.Is(err, fs.ErrPermission):
		return AccessDenied
	default:
		return Malformed
	}
}
