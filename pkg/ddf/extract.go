package ddf

import (
	"context"
	"fmt"
)

// Extract reads the archive at path and writes each recognized table into dir
// as <Name><ext>. Unknown members are reported, not copied.
func (m *Manager) Extract(ctx context.Context, path, dir string) (Diagnostics, error) {
	a, diags, err := m.Read(ctx, path)
	if err != nil {
		return diags, err
	}
	if diags.Has(NotFound) {
		return diags, fmt.Errorf("archive not found: %s", path)
	}
	if _, err := m.SaveDir(ctx, a, dir); err != nil {
		return diags, err
	}
	return diags, nil
}

// Pack builds an archive at path from the table files in dir.
func (m *Manager) Pack(ctx context.Context, dir, path string) (Diagnostics, error) {
	a, diags, err := m.LoadDir(ctx, dir)
	if err != nil {
		return diags, err
	}
	if diags.Has(NotFound) {
		return diags, fmt.Errorf("directory not found: %s", dir)
	}
	wdiags, err := m.Write(ctx, a, path)
	return append(diags, wdiags...), err
}
