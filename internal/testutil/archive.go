package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Member is one raw ZIP entry. A Name ending in "/" is written as a
// directory entry.
type Member struct {
	Name string
	Data string
}

// WriteZip writes the members, in order, into a new ZIP file at path. It
// allows names the archive writer itself never produces (subdirectories,
// duplicates, foreign files).
func WriteZip(t testing.TB, path string, members ...Member) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		require.NoError(t, err)
		if m.Data != "" {
			_, err = w.Write([]byte(m.Data))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
}

// ReadZip returns the member names and contents of the ZIP file at path, in
// container order.
func ReadZip(t testing.TB, path string) []Member {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	var out []Member
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		require.NoError(t, err)
		out = append(out, Member{Name: f.Name, Data: string(data)})
	}
	return out
}

// WriteFiles creates dir/name for every entry of files.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0600))
	}
}

// RequireEmptyDir fails the test if dir holds any entry.
func RequireEmptyDir(t testing.TB, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	require.Empty(t, names, "directory %s is not empty", dir)
}
