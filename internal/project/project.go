// Package project locates and loads a swereview workspace: a directory
// holding .swereview/config.toml, the run history and the debug log.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/newhook/swereview/internal/history"
	"github.com/newhook/swereview/internal/logging"
)

const (
	// ConfigDir is the directory name for workspace configuration.
	ConfigDir = logging.ConfigDir
	// ConfigFile is the name of the workspace config file.
	ConfigFile = "config.toml"
	// HistoryDB is the default name of the history database file.
	HistoryDB = "history.db"
)

// ErrNotFound is returned by Find when no workspace encloses the start directory.
var ErrNotFound = errors.New("no workspace found")

// Project is a loaded workspace. Root is empty for the default, workspace-less project.
type Project struct {
	Root   string
	Config *Config

	history *history.Store
}

// Default returns a project with default settings and no workspace.
// History is off since there is nowhere to store it.
func Default() *Project {
	off := false
	return &Project{Config: &Config{History: HistoryConfig{Enabled: &off}}}
}

// Find finds a workspace from a flag value or the current directory.
func Find(ctx context.Context, flagValue string) (*Project, error) {
	start := flagValue
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		start = cwd
	}
	return find(ctx, start)
}

// FindOrDefault is Find falling back to Default when no workspace exists.
func FindOrDefault(ctx context.Context, flagValue string) (*Project, error) {
	proj, err := Find(ctx, flagValue)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return proj, err
}

// find walks up from startDir looking for .swereview/config.toml.
func find(ctx context.Context, startDir string) (*Project, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigDir, ConfigFile)); err == nil {
			return load(ctx, dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w (no %s directory)", ErrNotFound, ConfigDir)
		}
		dir = parent
	}
}

func load(_ context.Context, root string) (*Project, error) {
	configPath := filepath.Join(root, ConfigDir, ConfigFile)
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if err := logging.Init(root, cfg.Logging.GetLevel()); err != nil {
		logging.Warn("failed to initialize logging", "error", err)
	}

	return &Project{Root: root, Config: cfg}, nil
}

// Create initializes a workspace in dir and returns it loaded.
func Create(ctx context.Context, dir string) (*Project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	configPath := filepath.Join(root, ConfigDir, ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", root)
	}
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", ConfigDir, err)
	}

	cfg := &Config{Workspace: WorkspaceConfig{Name: filepath.Base(root)}}
	content, err := cfg.GenerateDocumentedConfig(time.Now())
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}

	return load(ctx, root)
}

// History opens the run history on first use. It returns nil when history
// is disabled or there is no workspace.
func (p *Project) History(ctx context.Context) (*history.Store, error) {
	if p.history != nil {
		return p.history, nil
	}
	if p.Root == "" || !p.Config.History.IsEnabled() {
		return nil, nil
	}
	path := p.Config.History.GetPath()
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, ConfigDir, path)
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	p.history = store
	return store, nil
}

// Close releases the history database and the log file.
func (p *Project) Close() error {
	var errs []error
	if p.history != nil {
		errs = append(errs, p.history.Close())
		p.history = nil
	}
	if p.Root != "" {
		errs = append(errs, logging.Close())
	}
	return errors.Join(errs...)
}
