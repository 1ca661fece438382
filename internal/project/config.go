package project

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/search"
)

//go:embed templates/config.tmpl
var configTemplateText string

// Config represents the workspace configuration stored in .swereview/config.toml.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Search    SearchConfig    `toml:"search"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	History   HistoryConfig   `toml:"history"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
	Logging   LoggingConfig   `toml:"logging"`
}

// WorkspaceConfig contains workspace metadata.
type WorkspaceConfig struct {
	Name string `toml:"name"`
}

// SearchConfig contains log search configuration.
type SearchConfig struct {
	// ContextLines is the number of lines shown around each match.
	// Defaults to 3 when not specified.
	ContextLines *int `toml:"context_lines"`
}

// GetContextLines returns the configured context, or 3.
func (s *SearchConfig) GetContextLines() int {
	if s.ContextLines == nil || *s.ContextLines < 0 {
		return search.DefaultContextLines
	}
	return *s.ContextLines
}

// AnalysisConfig contains analysis configuration.
type AnalysisConfig struct {
	// Parallel controls concurrent stage parsing and rule evaluation.
	// Defaults to true when not specified.
	Parallel *bool `toml:"parallel"`
}

// IsParallel returns true unless parallel evaluation was disabled.
func (a *AnalysisConfig) IsParallel() bool {
	if a.Parallel == nil {
		return true
	}
	return *a.Parallel
}

// HistoryConfig contains run history configuration.
type HistoryConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"` // relative to .swereview/
}

// IsEnabled returns true unless history was disabled.
func (h *HistoryConfig) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

// GetPath returns the database file name, or "history.db".
func (h *HistoryConfig) GetPath() string {
	if h.Path == "" {
		return HistoryDB
	}
	return h.Path
}

// CacheConfig contains search cache configuration.
type CacheConfig struct {
	TTLMinutes *int `toml:"ttl_minutes"`
}

// GetTTL returns the search cache TTL. Defaults to 10 minutes.
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTLMinutes != nil && *c.TTLMinutes > 0 {
		return time.Duration(*c.TTLMinutes) * time.Minute
	}
	return 10 * time.Minute
}

// WatchConfig contains watcher configuration.
type WatchConfig struct {
	DebounceMs *int `toml:"debounce_ms"`
}

// GetDebounce returns the quiet period before re-analysis. Defaults to 300ms.
func (w *WatchConfig) GetDebounce() time.Duration {
	if w.DebounceMs != nil && *w.DebounceMs > 0 {
		return time.Duration(*w.DebounceMs) * time.Millisecond
	}
	return 300 * time.Millisecond
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// GetLevel returns the slog level. Defaults to info.
func (l *LoggingConfig) GetLevel() slog.Level {
	return logging.ParseLevel(l.Level)
}

// LoadConfig reads and parses a config.toml file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logging.Warn("unknown config keys", "path", path, "keys", strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// SaveConfig writes the config as plain TOML.
func (c *Config) SaveConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// tomlString quotes s as a TOML basic string.
func tomlString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

var configTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"tomlString": tomlString,
}).Parse(configTemplateText))

// GenerateDocumentedConfig renders the commented default config.
func (c *Config) GenerateDocumentedConfig(now time.Time) (string, error) {
	var buf bytes.Buffer
	err := configTemplate.Execute(&buf, struct {
		Name      string
		CreatedAt string
	}{
		Name:      c.Workspace.Name,
		CreatedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return buf.String(), nil
}
