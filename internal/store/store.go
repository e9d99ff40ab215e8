// Package store keeps DDF archives in a SQLite database, one row per table
// and one row per cell, so that tables can be queried with SQL and restored
// into an archive.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// ErrNotOpen is returned by operations on a closed store.
var ErrNotOpen = errors.New("database not opened")

// Store is a SQLite-backed copy of one archive.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already migrated database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveArchive replaces the stored archive with a. The replacement is a single
// transaction.
func (s *Store) SaveArchive(ctx context.Context, a *ddf.Archive) (err error) {
	if s.db == nil {
		return ErrNotOpen
	}
	if a == nil {
		return ddf.ErrNilArchive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM ddf_cells`); err != nil {
		return fmt.Errorf("failed to clear cells: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM ddf_tables`); err != nil {
		return fmt.Errorf("failed to clear tables: %w", err)
	}

	for _, slot := range a.Present() {
		t, _ := a.Get(slot)
		if err = insertTable(ctx, tx, slot, t); err != nil {
			return fmt.Errorf("failed to store table %s: %w", slot, err)
		}
		s.logger.Debug("table stored",
			slog.String("table", slot.String()),
			slog.Int("rows", t.NumRows()),
		)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertTable(ctx context.Context, tx *sql.Tx, slot schema.Slot, t *cdt.Table) error {
	ids, err := json.Marshal(nonNil(t.IDs))
	if err != nil {
		return err
	}
	columns, err := json.Marshal(nonNil(t.Columns))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ddf_tables (name, position, ids, columns, row_count) VALUES (?, ?, ?, ?, ?)`,
		slot.String(), int(slot), string(ids), string(columns), t.NumRows(),
	); err != nil {
		return err
	}

	for r, row := range t.Rows {
		for c, value := range row {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ddf_cells (table_name, row_idx, col_idx, value) VALUES (?, ?, ?, ?)`,
				slot.String(), r, c, value,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadArchive reads the stored archive. Rows are padded to the column count;
// stored tables whose name is not a registry entry are skipped.
func (s *Store) LoadArchive(ctx context.Context) (*ddf.Archive, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, ids, columns, row_count FROM ddf_tables ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	type stored struct {
		slot     schema.Slot
		table    *cdt.Table
		rowCount int
	}
	var tables []stored
	for rows.Next() {
		var name, ids, columns string
		var rowCount int
		if err := rows.Scan(&name, &ids, &columns, &rowCount); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		slot, ok := schema.Lookup(name)
		if !ok {
			s.logger.Warn("skipping unknown stored table", slog.String("table", name))
			continue
		}

		t := &cdt.Table{}
		if err := json.Unmarshal([]byte(ids), &t.IDs); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("invalid ids of %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(columns), &t.Columns); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("invalid columns of %s: %w", name, err)
		}
		tables = append(tables, stored{slot: slot, table: t, rowCount: rowCount})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	a := &ddf.Archive{}
	for _, st := range tables {
		if err := s.loadCells(ctx, st.slot, st.table, st.rowCount); err != nil {
			return nil, err
		}
		a.Set(st.slot, st.table)
	}
	return a, nil
}

func (s *Store) loadCells(ctx context.Context, slot schema.Slot, t *cdt.Table, rowCount int) error {
	t.Rows = make([][]string, rowCount)
	for i := range t.Rows {
		t.Rows[i] = []string{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, col_idx, value FROM ddf_cells WHERE table_name = ? ORDER BY row_idx, col_idx`,
		slot.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query cells of %s: %w", slot, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r, c int
		var value string
		if err := rows.Scan(&r, &c, &value); err != nil {
			return fmt.Errorf("failed to scan cell of %s: %w", slot, err)
		}
		if r < 0 || r >= rowCount || c < 0 {
			return fmt.Errorf("cell (%d, %d) of %s out of range", r, c, slot)
		}
		for len(t.Rows[r]) < c {
			t.Rows[r] = append(t.Rows[r], "")
		}
		t.Rows[r] = append(t.Rows[r], value)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	t.Pad()
	return nil
}

// TableSummary is one stored table.
type TableSummary struct {
	Name    string
	Rows    int
	Columns int
}

// Tables lists the stored tables in registry order.
func (s *Store) Tables(ctx context.Context) ([]TableSummary, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, row_count, column_count FROM ddf_table_summary`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TableSummary
	for rows.Next() {
		var ts TableSummary
		if err := rows.Scan(&ts.Name, &ts.Rows, &ts.Columns); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
