package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/internal/cli/testutil"
	"github.com/Tokarzewski/ddf-lib/internal/store"
)

func TestRunDBDump(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	c := newTestContext(t, tr)
	archive := testutil.SetupTestArchive(t)
	database := filepath.Join(t.TempDir(), "project.db")

	require.NoError(t, runDBDump(context.Background(), c, archive, database))

	out := tr.Output()
	assert.Contains(t, out, "| Table | Rows | Columns |")
	assert.Contains(t, out, "| Materials | 2 | 3 |")
	assert.Contains(t, out, "| Schedules | 1 | 2 |")
	assert.Contains(t, out, "Dumped 2 tables from")

	s, err := store.Open(context.Background(), database, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.LoadArchive(context.Background())
	require.NoError(t, err)
	assert.True(t, testutil.SampleArchive().Equal(got))
}

func TestRunDBDump_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	c := newTestContext(t, tr)
	archive := testutil.SetupTestArchive(t)
	database := filepath.Join(t.TempDir(), "project.db")

	require.NoError(t, runDBDump(context.Background(), c, archive, database))

	var res output.DatabaseResult
	require.NoError(t, json.Unmarshal([]byte(tr.Output()), &res))
	assert.Equal(t, database, res.Database)
	assert.Equal(t, archive, res.Archive)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, "Materials", res.Tables[0].Name)
	assert.Equal(t, []int{1, 2, 3}, res.Tables[0].IDs)
	assert.Empty(t, res.Diagnostics)
}

func TestRunDBDump_MissingArchive(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	c := newTestContext(t, tr)
	dir := t.TempDir()

	err := runDBDump(context.Background(), c, filepath.Join(dir, "missing.ddf"), filepath.Join(dir, "x.db"))
	require.Error(t, err)
	assert.Contains(t, tr.ErrorOutput(), "archive not found")
	assert.NoFileExists(t, filepath.Join(dir, "x.db"))
}

func TestRunDBRestore(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewTestRendererMarkdown()
	c := newTestContext(t, tr)
	dir := t.TempDir()
	database := filepath.Join(dir, "project.db")

	s, err := store.Open(ctx, database, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveArchive(ctx, testutil.SampleArchive()))
	require.NoError(t, s.Close())

	archive := filepath.Join(dir, "restored.ddf")
	require.NoError(t, runDBRestore(ctx, c, database, archive))
	assert.Contains(t, tr.Output(), "Restored 2 tables from")

	got := readBack(t, archive)
	assert.True(t, testutil.SampleArchive().Equal(got))
}

func TestRunDBRestore_EmptyDatabase(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	c := newTestContext(t, tr)
	dir := t.TempDir()
	archive := filepath.Join(dir, "empty.ddf")

	require.NoError(t, runDBRestore(context.Background(), c, filepath.Join(dir, "new.db"), archive))

	var res output.DatabaseResult
	require.NoError(t, json.Unmarshal([]byte(tr.Output()), &res))
	assert.Empty(t, res.Tables)
	assert.Equal(t, 0, readBack(t, archive).Len())
}

func TestDBCommand_Subcommands(t *testing.T) {
	cmd := NewDBCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"dump", "restore"}, names)
}
