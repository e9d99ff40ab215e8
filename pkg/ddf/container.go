package ddf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// memberModTime is stamped on every written member so that writing the same
// archive twice produces identical bytes.
var memberModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

func openContainer(path string) (*zip.ReadCloser, error) {
	return zip.OpenReader(path)
}

// extractMembers copies the top-level members of zr that name a registry
// slot into the workspace. Every other entry, including anything in a
// subdirectory or with a name that is not a local path, is reported as an
// unknown member and never written.
func (m *Manager) extractMembers(ctx context.Context, zr *zip.Reader, ws *workspace, rep *report) error {
	seen := make(map[schema.Slot]bool, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.Name
		if !isTopLevel(name) || f.FileInfo().IsDir() {
			rep.add(Diagnostic{Kind: UnknownMember, Table: name, Path: name})
			continue
		}
		slot, known := m.memberSlot(name)
		if !known {
			rep.add(Diagnostic{Kind: UnknownMember, Table: m.memberTable(name), Path: name})
			continue
		}

		// Names of one slot differ at most in the case of the extension and
		// would collide on case-insensitive file systems.
		if seen[slot] {
			rep.add(Diagnostic{Kind: DuplicateMember, Table: m.memberTable(name), Path: name})
			continue
		}
		seen[slot] = true

		if err := extractFile(f, ws.path(name)); err != nil {
			rep.add(Diagnostic{Kind: Malformed, Table: slot.String(), Path: name, Err: err})
		}
	}
	return nil
}

// memberSlot resolves "<Name><ext>" to its registry slot.
func (m *Manager) memberSlot(name string) (schema.Slot, bool) {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, m.ext) {
		return 0, false
	}
	return schema.Lookup(strings.TrimSuffix(name, ext))
}

// memberTable returns the name a diagnostic reports for a member: the member
// name without the table extension.
func (m *Manager) memberTable(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, m.ext) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

func isTopLevel(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.IsLocal(name)
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return nil
}

// writeContainer compresses the named files of srcDir into a temporary file
// next to dest and renames it over dest. dest is left untouched on failure.
func writeContainer(ctx context.Context, dest, srcDir string, members []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = compressMembers(ctx, tmp, srcDir, members); err != nil {
		return fmt.Errorf("failed to compress archive: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return nil
}

func compressMembers(ctx context.Context, w io.Writer, srcDir string, members []string) error {
	zw := zip.NewWriter(w)
	for _, name := range members {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(filepath.Join(srcDir, name))
		if err != nil {
			return err
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: memberModTime,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}
