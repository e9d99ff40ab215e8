package ddf

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// workspace is a uniquely named scratch directory owned by one call.
// Callers defer Close immediately after creating it.
type workspace struct {
	dir string
}

func newWorkspace(base, op string) (*workspace, error) {
	dir, err := os.MkdirTemp(base, "ddf-"+op+"-")
	if err != nil {
		return nil, err
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything in it.
func (w *workspace) Close() error {
	return os.RemoveAll(w.dir)
}

// newOpID returns a short identifier correlating the logs and workspace of
// one call.
func newOpID() string {
	return uuid.NewString()[:8]
}
