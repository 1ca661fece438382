package history

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := &Run{
		Path:        "/tmp/deliverables/django__django-1234",
		Instance:    "django__django-1234",
		Digest:      "abc123",
		Violated:    []string{"C1", "C3"},
		Warnings:    2,
		HasProblems: true,
		Report:      `{"violated": ["C1", "C3"]}`,
	}
	require.NoError(t, store.Record(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Instance, got.Instance)
	assert.Equal(t, []string{"C1", "C3"}, got.Violated)
	assert.Equal(t, 2, got.Warnings)
	assert.True(t, got.HasProblems)
	assert.JSONEq(t, run.Report, got.Report)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_GetByPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Run{ID: "aaaa-1111", Path: "p1"}))
	require.NoError(t, store.Record(ctx, &Run{ID: "aaaa-2222", Path: "p2"}))
	require.NoError(t, store.Record(ctx, &Run{ID: "bbbb-1111", Path: "p3"}))

	got, err := store.Get(ctx, "bbbb")
	require.NoError(t, err)
	assert.Equal(t, "p3", got.Path)

	_, err = store.Get(ctx, "aaaa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = store.Get(ctx, "cccc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, path := range []string{"first", "second", "third"} {
		require.NoError(t, store.Record(ctx, &Run{Path: path, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].Path)
	assert.Equal(t, "first", runs[2].Path)
	assert.Nil(t, runs[0].Violated)
	assert.Equal(t, "{}", runs[0].Report)

	runs, err = store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_Delete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, &Run{Path: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Record(ctx, &Run{Path: "new", CreatedAt: now}))

	n, err := store.Delete(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].Path)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, &Run{ID: "keep", Path: "p"}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	versions, err := AppliedVersions(ctx, store.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, versions)

	_, err = store.Get(ctx, "keep")
	require.NoError(t, err)
}

func TestMigrations_Rollback(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, Rollback(ctx, store.db))
	versions, err := AppliedVersions(ctx, store.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, versions)

	require.NoError(t, RunMigrations(ctx, store.db))
	versions, err = AppliedVersions(ctx, store.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, versions)
}

func TestReadMigrations_InvalidName(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/bad.sql": {Data: []byte("-- +up\nSELECT 1;\n")},
	}
	_, err := readMigrations(fsys)
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestSections(t *testing.T) {
	up, down := sections("-- +up\nCREATE TABLE t (x TEXT);\n-- +down\nDROP TABLE t;\n")
	assert.Equal(t, "CREATE TABLE t (x TEXT);", up)
	assert.Equal(t, "DROP TABLE t;\n", down)
}

func TestSplitStatements(t *testing.T) {
	script := "CREATE TABLE t (x TEXT DEFAULT 'a;b');\n-- note; not a split\nINSERT INTO t VALUES ('c');"

	stmts := splitStatements(script)

	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE t (x TEXT DEFAULT 'a;b')", stmts[0])
	assert.Contains(t, stmts[1], "INSERT INTO t VALUES ('c')")
}
