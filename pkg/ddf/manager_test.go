package ddf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Tokarzewski/ddf-lib/internal/testutil"
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

const materialsCDT = "#1 #2\r\n" +
	"#Name #Conductivity\r\n" +
	"#Brick  #0.8\r\n" +
	"#Wood\r\n"

const schedulesCDT = "#7\r\n#Name\r\n#Office\r\n"

// newTestManager returns a manager whose workspaces live in a private temp
// directory, and fails the test if any workspace outlives it.
func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	tmp := t.TempDir()
	opts.TempDir = tmp
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	t.Cleanup(func() { testutil.RequireEmptyDir(t, tmp) })
	return New(opts)
}

func sampleArchive() *Archive {
	a := &Archive{}
	a.Set(schema.Materials, &cdt.Table{
		IDs:     []int{1, 2},
		Columns: []string{"Name", "Conductivity"},
		Rows:    [][]string{{"Brick", "0.8"}, {"Wood", ""}},
	})
	a.Set(schema.Schedules, &cdt.Table{
		IDs:     []int{7},
		Columns: []string{"Name"},
		Rows:    [][]string{{"Office"}},
	})
	a.Set(schema.Glazing, cdt.New(nil))
	return a
}

func TestManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "project.ddf")

	want := sampleArchive()
	diags, err := m.Write(ctx, want, path)
	require.NoError(t, err)
	assert.Empty(t, diags)

	got, diags, err := m.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.True(t, want.Equal(got), "round trip changed the archive")
	assert.Equal(t, []string{"Glazing", "Materials", "Schedules"}, got.PresentNames())
}

func TestManager_RoundTrip_Codecs(t *testing.T) {
	codecs := []struct {
		name  string
		codec cdt.Codec
	}{
		{"crlf utf-8", cdt.Codec{}},
		{"lf utf-8", cdt.Codec{LineEnding: cdt.LF}},
		{"crlf windows-1252", cdt.Codec{Charset: cdt.Windows1252}},
	}

	for _, tt := range codecs {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newTestManager(t, Options{Codec: tt.codec})
			path := filepath.Join(t.TempDir(), "a.ddf")

			want := sampleArchive()
			want.Set(schema.Panes, &cdt.Table{
				IDs:     []int{-3, 0, 2147483647},
				Columns: []string{"Name", "U-value", "Note"},
				Rows:    [][]string{{"Clear 6mm", "5.7", "Façade"}, {"", "", ""}},
			})

			_, err := m.Write(ctx, want, path)
			require.NoError(t, err)
			got, diags, err := m.Read(ctx, path)
			require.NoError(t, err)
			assert.Empty(t, diags)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestManager_Read_MaterialsScenario(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "materials.ddf")
	testutil.WriteZip(t, path, testutil.Member{Name: "Materials.cdt", Data: materialsCDT})

	a, diags, err := m.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Equal(t, 1, a.Len())

	tbl, ok := a.Get(schema.Materials)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, tbl.IDs)
	assert.Equal(t, []string{"Name", "Conductivity"}, tbl.Columns)
	assert.Equal(t, [][]string{{"Brick", "0.8"}, {"Wood", ""}}, tbl.Rows)

	out := filepath.Join(t.TempDir(), "out.ddf")
	_, err = m.Write(ctx, a, out)
	require.NoError(t, err)
	again, _, err := m.Read(ctx, out)
	require.NoError(t, err)
	assert.True(t, a.Equal(again))
}

func TestManager_Read_NotFound(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "missing.ddf")

	a, diags, err := m.Read(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 0, a.Len())
	require.Len(t, diags, 1)
	assert.Equal(t, NotFound, diags[0].Kind)
	assert.Equal(t, path, diags[0].Path)
}

func TestManager_Read_Members(t *testing.T) {
	tests := []struct {
		name        string
		members     []testutil.Member
		wantPresent []string
		wantKinds   []Kind
		wantTables  []string
	}{
		{
			name: "unknown cdt member is dropped",
			members: []testutil.Member{
				{Name: "Materials.cdt", Data: materialsCDT},
				{Name: "Foo.cdt", Data: materialsCDT},
			},
			wantPresent: []string{"Materials"},
			wantKinds:   []Kind{UnknownMember},
			wantTables:  []string{"Foo"},
		},
		{
			name: "foreign file is unknown",
			members: []testutil.Member{
				{Name: "readme.txt", Data: "hello"},
				{Name: "Schedules.cdt", Data: schedulesCDT},
			},
			wantPresent: []string{"Schedules"},
			wantKinds:   []Kind{UnknownMember},
			wantTables:  []string{"readme.txt"},
		},
		{
			name: "registry names are case sensitive",
			members: []testutil.Member{
				{Name: "materials.cdt", Data: materialsCDT},
			},
			wantKinds:  []Kind{UnknownMember},
			wantTables: []string{"materials"},
		},
		{
			name: "extension is case insensitive",
			members: []testutil.Member{
				{Name: "Materials.CDT", Data: materialsCDT},
			},
			wantPresent: []string{"Materials"},
		},
		{
			name: "truncated member is absent",
			members: []testutil.Member{
				{Name: "Glazing.cdt", Data: "#1 #2\r\n"},
				{Name: "Materials.cdt", Data: materialsCDT},
			},
			wantPresent: []string{"Materials"},
			wantKinds:   []Kind{Truncated},
			wantTables:  []string{"Glazing"},
		},
		{
			name: "empty member is truncated",
			members: []testutil.Member{
				{Name: "Panes.cdt"},
			},
			wantKinds:  []Kind{Truncated},
			wantTables: []string{"Panes"},
		},
		{
			name: "duplicate member keeps the first",
			members: []testutil.Member{
				{Name: "Schedules.cdt", Data: schedulesCDT},
				{Name: "Schedules.cdt", Data: "#8\r\n#Other\r\n"},
			},
			wantPresent: []string{"Schedules"},
			wantKinds:   []Kind{DuplicateMember},
			wantTables:  []string{"Schedules"},
		},
		{
			name: "members differing only in extension case collide",
			members: []testutil.Member{
				{Name: "Schedules.cdt", Data: schedulesCDT},
				{Name: "Schedules.CDT", Data: schedulesCDT},
			},
			wantPresent: []string{"Schedules"},
			wantKinds:   []Kind{DuplicateMember},
			wantTables:  []string{"Schedules"},
		},
		{
			name: "case variant of a registry name is unknown",
			members: []testutil.Member{
				{Name: "Schedules.cdt", Data: schedulesCDT},
				{Name: "SCHEDULES.cdt", Data: schedulesCDT},
			},
			wantPresent: []string{"Schedules"},
			wantKinds:   []Kind{UnknownMember},
			wantTables:  []string{"SCHEDULES"},
		},
		{
			name: "unknown members differing only in case are each reported",
			members: []testutil.Member{
				{Name: "Foo.cdt", Data: materialsCDT},
				{Name: "foo.cdt", Data: materialsCDT},
				{Name: "Materials.cdt", Data: materialsCDT},
			},
			wantPresent: []string{"Materials"},
			wantKinds:   []Kind{UnknownMember, UnknownMember},
			wantTables:  []string{"Foo", "foo"},
		},
		{
			name: "nested members are never extracted",
			members: []testutil.Member{
				{Name: "nested/"},
				{Name: "nested/Materials.cdt", Data: materialsCDT},
			},
			wantKinds:  []Kind{UnknownMember, UnknownMember},
			wantTables: []string{"nested/", "nested/Materials.cdt"},
		},
		{
			name:    "empty container",
			members: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, Options{})
			path := filepath.Join(t.TempDir(), "a.ddf")
			testutil.WriteZip(t, path, tt.members...)

			a, diags, err := m.Read(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPresent, nilIfEmpty(a.PresentNames()))
			var kinds []Kind
			var tables []string
			for _, d := range diags {
				kinds = append(kinds, d.Kind)
				tables = append(tables, d.Table)
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantTables, tables)
		})
	}
}

func TestManager_Read_DuplicateKeepsFirst(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.ddf")
	testutil.WriteZip(t, path,
		testutil.Member{Name: "Schedules.cdt", Data: schedulesCDT},
		testutil.Member{Name: "Schedules.cdt", Data: "#8\r\n#Other\r\n"},
	)

	a, _, err := m.Read(context.Background(), path)
	require.NoError(t, err)
	tbl, ok := a.Get(schema.Schedules)
	require.True(t, ok)
	assert.Equal(t, []int{7}, tbl.IDs)
}

func TestManager_UnknownMemberNotRoundTripped(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	dir := t.TempDir()
	in := filepath.Join(dir, "in.ddf")
	out := filepath.Join(dir, "out.ddf")
	testutil.WriteZip(t, in,
		testutil.Member{Name: "Foo.cdt", Data: materialsCDT},
		testutil.Member{Name: "foo.cdt", Data: materialsCDT},
		testutil.Member{Name: "Materials.cdt", Data: materialsCDT},
	)

	a, diags, err := m.Read(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo", "foo"}, diags.Unknown())

	_, err = m.Write(ctx, a, out)
	require.NoError(t, err)

	members := testutil.ReadZip(t, out)
	require.Len(t, members, 1)
	assert.Equal(t, "Materials.cdt", members[0].Name)
}

func TestManager_Read_Strict(t *testing.T) {
	m := newTestManager(t, Options{Strict: true})
	path := filepath.Join(t.TempDir(), "a.ddf")
	testutil.WriteZip(t, path,
		testutil.Member{Name: "Materials.cdt", Data: materialsCDT},
		testutil.Member{Name: "Foo.cdt", Data: materialsCDT},
	)

	a, diags, err := m.Read(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMember)
	assert.Contains(t, err.Error(), "Foo")
	assert.Equal(t, 0, a.Len())
	assert.True(t, diags.Has(UnknownMember))
}

func TestManager_Read_StrictAcceptsKnownMembers(t *testing.T) {
	m := newTestManager(t, Options{Strict: true})
	path := filepath.Join(t.TempDir(), "a.ddf")
	testutil.WriteZip(t, path, testutil.Member{Name: "Materials.cdt", Data: materialsCDT})

	a, diags, err := m.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.True(t, a.Has("Materials"))
}

func TestManager_Read_CorruptContainer(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.ddf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0600))

	a, diags, err := m.Read(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptContainer)
	assert.Equal(t, 0, a.Len())
	assert.True(t, diags.Has(CorruptContainer))
}

func TestManager_Read_CancelledContext(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.ddf")
	testutil.WriteZip(t, path, testutil.Member{Name: "Materials.cdt", Data: materialsCDT})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, _, err := m.Read(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.Len())
}

func TestManager_Write_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	dir := t.TempDir()
	first := filepath.Join(dir, "first.ddf")
	second := filepath.Join(dir, "second.ddf")

	_, err := m.Write(ctx, sampleArchive(), first)
	require.NoError(t, err)

	a, _, err := m.Read(ctx, first)
	require.NoError(t, err)
	_, err = m.Write(ctx, a, second)
	require.NoError(t, err)

	b1, err := os.ReadFile(first)
	require.NoError(t, err)
	b2, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "saving an unchanged archive must produce identical bytes")
}

func TestManager_Write_MembersInRegistryOrder(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.ddf")

	_, err := m.Write(context.Background(), sampleArchive(), path)
	require.NoError(t, err)

	var names []string
	for _, member := range testutil.ReadZip(t, path) {
		names = append(names, member.Name)
	}
	assert.Equal(t, []string{"Glazing.cdt", "Materials.cdt", "Schedules.cdt"}, names)
}

func TestManager_Write_MemberFormat(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.ddf")
	a := &Archive{}
	a.Set(schema.Materials, &cdt.Table{
		IDs:     []int{1, 2},
		Columns: []string{"Name", "Conductivity"},
		Rows:    [][]string{{"Brick", "0.8"}, {"Wood", ""}},
	})

	_, err := m.Write(context.Background(), a, path)
	require.NoError(t, err)

	members := testutil.ReadZip(t, path)
	require.Len(t, members, 1)
	assert.Equal(t, "#1 #2\r\n#Name #Conductivity\r\n#Brick  #0.8\r\n#Wood  #\r\n", members[0].Data)
}

func TestManager_Write_ReplacesDestination(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ddf")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0600))

	_, err := m.Write(ctx, sampleArchive(), path)
	require.NoError(t, err)

	a, diags, err := m.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.True(t, sampleArchive().Equal(a))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may remain next to the destination")
}

func TestManager_Write_FailureKeepsDestination(t *testing.T) {
	m := newTestManager(t, Options{Codec: cdt.Codec{Rows: cdt.RejectRagged}})
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ddf")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0600))

	a := &Archive{}
	a.Set(schema.Materials, &cdt.Table{
		IDs:     []int{1, 2},
		Columns: []string{"Name", "Conductivity"},
		Rows:    [][]string{{"Wood"}},
	})

	_, err := m.Write(context.Background(), a, path)
	require.Error(t, err)
	var rowErr *cdt.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 0, rowErr.Row)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManager_Write_Errors(t *testing.T) {
	m := newTestManager(t, Options{})

	_, err := m.Write(context.Background(), nil, filepath.Join(t.TempDir(), "a.ddf"))
	assert.ErrorIs(t, err, ErrNilArchive)

	missingDir := filepath.Join(t.TempDir(), "no", "such", "dir", "a.ddf")
	_, err = m.Write(context.Background(), sampleArchive(), missingDir)
	require.Error(t, err)
	_, statErr := os.Stat(missingDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_Write_EmptyArchive(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "empty.ddf")

	_, err := m.Write(ctx, &Archive{}, path)
	require.NoError(t, err)
	assert.Empty(t, testutil.ReadZip(t, path))

	a, diags, err := m.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 0, a.Len())
}

func TestManager_CustomExtension(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{Extension: "txt"})
	assert.Equal(t, ".txt", m.Extension())

	path := filepath.Join(t.TempDir(), "a.ddf")
	_, err := m.Write(ctx, sampleArchive(), path)
	require.NoError(t, err)
	assert.Equal(t, "Glazing.txt", testutil.ReadZip(t, path)[0].Name)

	a, diags, err := m.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 3, a.Len())
}

func TestManager_LogsDiagnostics(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	m := newTestManager(t, Options{Logger: logger})
	path := filepath.Join(t.TempDir(), "a.ddf")
	testutil.WriteZip(t, path, testutil.Member{Name: "Foo.cdt", Data: materialsCDT})

	_, _, err := m.Read(context.Background(), path)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=unknown_member")
	assert.Contains(t, out, "table=Foo")
}

func TestManager_ConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})
	dir := t.TempDir()

	var g errgroup.Group
	for i := range 8 {
		g.Go(func() error {
			path := filepath.Join(dir, string(rune('a'+i))+".ddf")
			if _, err := m.Write(ctx, sampleArchive(), path); err != nil {
				return err
			}
			a, _, err := m.Read(ctx, path)
			if err != nil {
				return err
			}
			if !sampleArchive().Equal(a) {
				return errors.New("archive changed")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestPackageReadWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a.ddf")

	_, err := Write(ctx, sampleArchive(), path)
	require.NoError(t, err)
	a, diags, err := Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.True(t, sampleArchive().Equal(a))
}

func TestManager_LoadDir(t *testing.T) {
	m := newTestManager(t, Options{})
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"Materials.cdt": materialsCDT,
		"Foo.cdt":       materialsCDT,
		"Glazing.cdt":   "#1\r\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Panes.cdt"), 0750))

	a, diags, err := m.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Materials"}, a.PresentNames())
	assert.ElementsMatch(t, []string{"Foo", "Panes"}, diags.Unknown())
	assert.True(t, diags.Has(Truncated))
}

func TestManager_SaveDir(t *testing.T) {
	m := newTestManager(t, Options{})
	dir := filepath.Join(t.TempDir(), "tables")

	names, err := m.SaveDir(context.Background(), sampleArchive(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Glazing.cdt", "Materials.cdt", "Schedules.cdt"}, names)

	for _, name := range names {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}

	_, err = m.SaveDir(context.Background(), nil, dir)
	assert.ErrorIs(t, err, ErrNilArchive)
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
