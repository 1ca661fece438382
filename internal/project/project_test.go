package project

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config

	assert.Equal(t, 3, cfg.Search.GetContextLines())
	assert.True(t, cfg.Analysis.IsParallel())
	assert.True(t, cfg.History.IsEnabled())
	assert.Equal(t, "history.db", cfg.History.GetPath())
	assert.Equal(t, 10*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.GetDebounce())
	assert.Equal(t, slog.LevelInfo, cfg.Logging.GetLevel())
}

func TestConfig_Overrides(t *testing.T) {
	const text = `
[search]
context_lines = 0

[analysis]
parallel = false

[history]
enabled = false
path = "runs.db"

[cache]
ttl_minutes = 2

[watch]
debounce_ms = 50

[logging]
level = "debug"
`
	var cfg Config
	_, err := toml.Decode(text, &cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Search.GetContextLines())
	assert.False(t, cfg.Analysis.IsParallel())
	assert.False(t, cfg.History.IsEnabled())
	assert.Equal(t, "runs.db", cfg.History.GetPath())
	assert.Equal(t, 2*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.GetDebounce())
	assert.Equal(t, slog.LevelDebug, cfg.Logging.GetLevel())
}

func TestConfig_InvalidValuesFallBack(t *testing.T) {
	neg := -4
	cfg := Config{
		Search: SearchConfig{ContextLines: &neg},
		Cache:  CacheConfig{TTLMinutes: &neg},
		Watch:  WatchConfig{DebounceMs: &neg},
	}

	assert.Equal(t, 3, cfg.Search.GetContextLines())
	assert.Equal(t, 10*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.GetDebounce())
}

func TestGenerateDocumentedConfig_IsValidTOML(t *testing.T) {
	cfg := &Config{Workspace: WorkspaceConfig{Name: `review "batch" 7`}}

	content, err := cfg.GenerateDocumentedConfig(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, content, "2026-01-02T03:04:05Z")

	var decoded Config
	_, err = toml.Decode(content, &decoded)
	require.NoError(t, err)
	assert.Equal(t, `review "batch" 7`, decoded.Workspace.Name)
	assert.Equal(t, 3, decoded.Search.GetContextLines())
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	proj, err := Create(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { proj.Close() })
	assert.Equal(t, filepath.Base(root), proj.Config.Workspace.Name)

	_, err = Create(ctx, root)
	assert.ErrorContains(t, err, "already exists")

	nested := filepath.Join(root, "deliverables", "inst-1")
	require.NoError(t, os.MkdirAll(nested, 0750))

	found, err := Find(ctx, nested)
	require.NoError(t, err)
	t.Cleanup(func() { found.Close() })
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	foundRoot, err := filepath.EvalSymlinks(found.Root)
	require.NoError(t, err)
	assert.Equal(t, resolved, foundRoot)

	store, err := found.History(ctx)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.FileExists(t, filepath.Join(found.Root, ConfigDir, HistoryDB))
}

func TestFindOrDefault(t *testing.T) {
	proj, err := FindOrDefault(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, proj.Root)

	store, err := proj.History(context.Background())
	require.NoError(t, err)
	assert.Nil(t, store)
}
