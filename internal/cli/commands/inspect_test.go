package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/internal/cli/testutil"
	ziptest "github.com/Tokarzewski/ddf-lib/internal/testutil"
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
)

func TestRunList_Markdown(t *testing.T) {
	path := testutil.SetupTestArchive(t)
	tr := testutil.NewTestRendererAuto()
	c := newTestContext(t, tr)

	require.NoError(t, runList(newTestCmd(), c, path))

	out := tr.Output()
	assert.Contains(t, out, "# Archive: "+path)
	assert.Contains(t, out, "- **Tables**: 2")
	assert.Contains(t, out, "| Materials | 2 | 3 |")
	assert.Contains(t, out, "| Schedules | 1 | 2 |")
	assert.NotContains(t, out, "Unknown members")
	testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
}

func TestRunList_Text(t *testing.T) {
	path := testutil.SetupTestArchive(t)
	tr := testutil.NewTestRendererText()
	c := newTestContext(t, tr)

	require.NoError(t, runList(newTestCmd(), c, path))

	out := tr.Output()
	assert.Contains(t, out, "(2 tables)")
	assert.Contains(t, out, "Materials")
	assert.Contains(t, out, "Schedules")
}

func TestRunList_JSON(t *testing.T) {
	path := testutil.SetupTestArchive(t)
	tr := testutil.NewTestRendererJSON()
	c := newTestContext(t, tr)

	require.NoError(t, runList(newTestCmd(), c, path))

	var info output.ArchiveInfo
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &info))
	assert.Equal(t, path, info.Path)
	require.Len(t, info.Tables, 2)
	assert.Equal(t, "Materials", info.Tables[0].Name)
	assert.Equal(t, []int{1, 2, 3}, info.Tables[0].IDs)
	assert.Equal(t, "Schedules", info.Tables[1].Name)
	assert.Empty(t, info.Unknown)
	assert.Empty(t, info.Diagnostics)
	testutil.AssertOutputMode(t, tr, output.ModeJSON)
}

func TestRunList_UnknownMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.ddf")
	ziptest.WriteZip(t, path,
		ziptest.Member{Name: "Materials.cdt", Data: "#1\r\n#Name\r\n#Brick\r\n"},
		ziptest.Member{Name: "Walls.cdt", Data: "#1\r\n#Name\r\n"},
	)

	tr := testutil.NewTestRendererJSON()
	c := newTestContext(t, tr)
	require.NoError(t, runList(newTestCmd(), c, path))

	var info output.ArchiveInfo
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &info))
	require.Len(t, info.Tables, 1)
	assert.Equal(t, []string{"Walls"}, info.Unknown)
	require.Len(t, info.Diagnostics, 1)
	assert.Equal(t, "unknown_member", info.Diagnostics[0].Kind)

	md := testutil.NewTestRendererMarkdown()
	c = newTestContext(t, md)
	require.NoError(t, runList(newTestCmd(), c, path))
	assert.Contains(t, md.Output(), "## Unknown members\n")
	assert.Contains(t, md.Output(), "- Walls\n")
	assert.Contains(t, md.ErrorOutput(), "warning:")
}

func TestRunList_Missing(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	c := newTestContext(t, tr)

	require.NoError(t, runList(newTestCmd(), c, filepath.Join(t.TempDir(), "missing.ddf")))
	assert.Contains(t, tr.Output(), "- **Tables**: 0")
	assert.Contains(t, tr.ErrorOutput(), "archive not found")
}

func TestRunList_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.ddf")
	ziptest.WriteFiles(t, filepath.Dir(path), map[string]string{"corrupt.ddf": "not a zip"})

	tr := testutil.NewTestRendererMarkdown()
	c := newTestContext(t, tr)

	err := runList(newTestCmd(), c, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestRunShow(t *testing.T) {
	path := testutil.SetupTestArchive(t)

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		c := newTestContext(t, tr)
		require.NoError(t, runShow(newTestCmd(), c, path, "Materials", &ShowOptions{}))

		out := tr.Output()
		assert.Contains(t, out, "# Materials")
		assert.Contains(t, out, "- **IDs**: 1, 2, 3")
		assert.Contains(t, out, "- **Rows**: 2")
		assert.Contains(t, out, "| Name | Conductivity | Density |")
		assert.Contains(t, out, "| Brick | 0.77 | 1700 |")
		assert.Contains(t, out, "| Concrete | 1.13 | 2000 |")
		testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
	})

	t.Run("limit", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		c := newTestContext(t, tr)
		require.NoError(t, runShow(newTestCmd(), c, path, "materials", &ShowOptions{Limit: 1}))

		out := tr.Output()
		assert.Contains(t, out, "Brick")
		assert.NotContains(t, out, "Concrete")
		assert.Contains(t, out, "... 1 more rows")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		c := newTestContext(t, tr)
		require.NoError(t, runShow(newTestCmd(), c, path, "Materials", &ShowOptions{Limit: 1}))

		var doc output.TableOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &doc))
		assert.Equal(t, "Materials", doc.Name)
		assert.Equal(t, []string{"Name", "Conductivity", "Density"}, doc.Columns)
		assert.Equal(t, [][]string{{"Brick", "0.77", "1700"}}, doc.Rows)
		assert.Equal(t, 2, doc.Total)
	})
}

func TestRunShow_Errors(t *testing.T) {
	path := testutil.SetupTestArchive(t)

	tests := []struct {
		name    string
		table   string
		limit   int
		wantErr string
	}{
		{name: "absent table", table: "Glazing", wantErr: "table Glazing not present"},
		{name: "unknown table", table: "Walls", wantErr: `unknown table "Walls"`},
		{name: "negative limit", table: "Materials", limit: -1, wantErr: "--limit must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewTestRendererMarkdown()
			c := newTestContext(t, tr)
			err := runShow(newTestCmd(), c, path, tt.table, &ShowOptions{Limit: tt.limit})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisplayHeader(t *testing.T) {
	tbl := cdt.New([]int{1}, "A", "B")
	tbl.Rows = [][]string{{"1", "2", "3", "4"}, {"x"}}

	assert.Equal(t, []string{"A", "B", "(2)", "(3)"}, displayHeader(tbl))
	assert.Equal(t, []string{"A"}, displayHeader(cdt.New(nil, "A")))
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, "1, -2, 0", formatIDs([]int{1, -2, 0}))
	assert.Equal(t, "", formatIDs(nil))
}

func TestRunSlots(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		c := newTestContext(t, tr)
		require.NoError(t, runSlots(c))

		out := tr.Output()
		assert.Contains(t, out, "# Tables (17)")
		assert.Contains(t, out, "| 0 | Glazing | Glazing.cdt |")
		assert.Contains(t, out, "| 16 | Schedules | Schedules.cdt |")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		c := newTestContext(t, tr)
		require.NoError(t, runSlots(c))

		var infos []output.SlotInfo
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &infos))
		require.Len(t, infos, 17)
		assert.Equal(t, output.SlotInfo{Index: 5, Name: "Materials", File: "Materials.cdt"}, infos[5])
	})
}
