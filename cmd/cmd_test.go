package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newhook/swereview/internal/cachemanager"
	"github.com/newhook/swereview/internal/project"
	"github.com/newhook/swereview/internal/review"
	"github.com/newhook/swereview/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDeliverable(t *testing.T, parent string) string {
	t.Helper()
	dir := filepath.Join(parent, "django__django-1234 retry")
	files := map[string]string{
		"django__django-1234.json":         `{"fail_to_pass": ["t1"], "pass_to_pass": ["t2"]}`,
		"logs/django_base.log":             `[{"test_name": "t2", "status": "failed"}]`,
		"logs/django_before.log":           `[{"test_name": "t1", "status": "passed"}]`,
		"logs/django_after.log":            `[{"test_name": "t1", "status": "passed"}, {"test_name": "t2", "status": "passed"}]`,
		"logs/django_post_agent_patch.log": `[{"test_name": "t1", "status": "passed"}, {"test_name": "t2", "status": "passed"}]`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestAnalyzeDir_RecordsRun(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	proj, err := project.Create(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { proj.Close() })

	dir := writeDeliverable(t, root)
	d, result, err := analyzeDir(ctx, proj, dir, true)
	require.NoError(t, err)
	assert.Equal(t, "django__django-1234", d.Instance)
	assert.Equal(t, []rules.ID{rules.C1, rules.C3}, result.Violated())

	run, err := recordRun(ctx, proj, d, result)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, []string{"C1", "C3"}, run.Violated)
	assert.True(t, run.HasProblems)

	store, err := proj.History(ctx)
	require.NoError(t, err)
	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, d.Digest, runs[0].Digest)
	assert.Contains(t, runs[0].Report, `"rule_checks"`)
}

func TestRecordRun_NoWorkspace(t *testing.T) {
	ctx := context.Background()
	proj := project.Default()

	dir := writeDeliverable(t, t.TempDir())
	d, result, err := analyzeDir(ctx, proj, dir, false)
	require.NoError(t, err)

	run, err := recordRun(ctx, proj, d, result)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestAnalyzeDir_Invalid(t *testing.T) {
	_, _, err := analyzeDir(context.Background(), project.Default(), t.TempDir(), false)
	assert.Error(t, err)
}

func TestSelectMatch(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		number int
		want   int
	}{
		{"first", 3, 1, 0},
		{"last", 3, 3, 2},
		{"wraps past the end", 3, 4, 0},
		{"negative counts from the end", 3, -1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectMatch(tt.n, tt.number).Pos())
		})
	}
}

func TestRelevantToDeliverable(t *testing.T) {
	assert.True(t, relevantToDeliverable("/d/logs/x_after.log"))
	assert.True(t, relevantToDeliverable("/d/inst.json"))
	assert.True(t, relevantToDeliverable("/d/fix.patch"))
	assert.False(t, relevantToDeliverable("/d/.swereview/history.db"))
	assert.False(t, relevantToDeliverable("/d/logs/.x_after.log.swp"))
	assert.False(t, relevantToDeliverable("/d/notes.md"))
}

func TestWatchAnalyze_SharedCacheFlushedOnChange(t *testing.T) {
	ctx := context.Background()
	proj := project.Default()
	dir := writeDeliverable(t, t.TempDir())
	cache := cachemanager.NewInMemoryCacheManager[string, review.SearchResults]("test", time.Minute, time.Minute)

	first := watchAnalyze(ctx, proj, dir, cache, nil)
	require.NotNil(t, first)
	first.Search(ctx, "t1", -1)
	key := first.Digest + "|3|t1"
	_, ok := cache.Get(ctx, key)
	require.True(t, ok)

	second := watchAnalyze(ctx, proj, dir, cache, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Digest, second.Digest)
	_, ok = cache.Get(ctx, key)
	assert.True(t, ok, "unchanged inputs keep cached searches")

	after := filepath.Join(dir, "logs", "django_after.log")
	require.NoError(t, os.WriteFile(after, []byte(`[{"test_name": "t1", "status": "failed"}]`), 0644))

	third := watchAnalyze(ctx, proj, dir, cache, second)
	require.NotNil(t, third)
	assert.NotEqual(t, second.Digest, third.Digest)
	_, ok = cache.Get(ctx, key)
	assert.False(t, ok, "changed inputs flush cached searches")
}

func TestWatchAnalyze_IncompleteKeepsPrevious(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, review.SearchResults]("test", time.Minute, time.Minute)
	assert.Nil(t, watchAnalyze(context.Background(), project.Default(), t.TempDir(), cache, nil))
}
