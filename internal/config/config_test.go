package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

// memFS is an in-memory loader.FileSystem for config tests.
type memFS map[string]string

func (m memFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m memFS) ReadFile(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	if cfg.Ranking.CacheSize != 1000 {
		t.Errorf("CacheSize = %d, want 1000", cfg.Ranking.CacheSize)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Format = %q, want 'text'", cfg.Output.Format)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("Debounce = %v, want 200ms", cfg.Watch.Debounce)
	}
	if cfg.Scoring.StartWord != 0.9 {
		t.Errorf("StartWord = %v, want 0.9", cfg.Scoring.StartWord)
	}
}

func TestLoadWithFS(t *testing.T) {
	memfs := memFS{"/config.toml": `
[ranking]
limit = 25
minScore = 0.5

[output]
format = "json"
scores = true

[scoring]
startWord = 0.85

[watch]
debounce = "500ms"

[logging]
level = "debug"
`}

	cfg, err := LoadWithFS(memfs, "/config.toml")
	if err != nil {
		t.Fatalf("LoadWithFS failed: %v", err)
	}

	if cfg.Ranking.Limit != 25 {
		t.Errorf("Limit = %d, want 25", cfg.Ranking.Limit)
	}
	if cfg.Ranking.MinScore != 0.5 {
		t.Errorf("MinScore = %v, want 0.5", cfg.Ranking.MinScore)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Format = %q, want 'json'", cfg.Output.Format)
	}
	if !cfg.Output.Scores {
		t.Error("Scores = false, want true")
	}
	if cfg.Scoring.StartWord != 0.85 {
		t.Errorf("StartWord = %v, want 0.85", cfg.Scoring.StartWord)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Watch.Debounce)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want 'debug'", cfg.Logging.Level)
	}

	// Untouched sections keep their defaults.
	if cfg.Ranking.CacheSize != 1000 {
		t.Errorf("CacheSize = %d, want default 1000", cfg.Ranking.CacheSize)
	}
	if cfg.Picker.Prompt != "> " {
		t.Errorf("Prompt = %q, want default '> '", cfg.Picker.Prompt)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFS(memFS{}, "/nonexistent.toml")
	if err != nil {
		t.Fatalf("LoadWithFS failed: %v", err)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Format = %q, want default 'text'", cfg.Output.Format)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	memfs := memFS{"/config.toml": `
[ranking]
limit = 25

[output]
format = "json"
`}
	t.Setenv("QUICKMATCH_RANKING_LIMIT", "5")
	t.Setenv("QUICKMATCH_FORMAT", "markup")

	cfg, err := LoadWithFS(memfs, "/config.toml")
	if err != nil {
		t.Fatalf("LoadWithFS failed: %v", err)
	}
	if cfg.Ranking.Limit != 5 {
		t.Errorf("Limit = %d, want env override 5", cfg.Ranking.Limit)
	}
	if cfg.Output.Format != "markup" {
		t.Errorf("Format = %q, want env override 'markup'", cfg.Output.Format)
	}
}

func TestLoadRejectsUnknownSetting(t *testing.T) {
	memfs := memFS{"/config.toml": `
[ranking]
speed = "fast"
`}

	_, err := LoadWithFS(memfs, "/config.toml")
	if err == nil {
		t.Fatal("expected error for unknown setting")
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error %v does not match ErrValidationFailed", err)
	}
}

func TestLoadRejectsWrongType(t *testing.T) {
	memfs := memFS{"/config.toml": `
[ranking]
limit = "lots"
`}

	_, err := LoadWithFS(memfs, "/config.toml")
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error %v does not match ErrTypeMismatch", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative limit", func(c *Config) { c.Ranking.Limit = -1 }},
		{"min score above one", func(c *Config) { c.Ranking.MinScore = 1.5 }},
		{"negative cache", func(c *Config) { c.Ranking.CacheSize = -1 }},
		{"negative workers", func(c *Config) { c.Ranking.Workers = -2 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad color mode", func(c *Config) { c.Output.Color = "sometimes" }},
		{"negative height", func(c *Config) { c.Picker.Height = -1 }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"zero scoring tier", func(c *Config) { c.Scoring.OK = 0 }},
		{"scoring tier above one", func(c *Config) { c.Scoring.Skipped = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Ranking.CacheSize = 50
	cfg.Ranking.MinScore = 0.25
	cfg.Scoring.OK = 0.7

	opts := cfg.Options()
	if opts.CacheSize != 50 {
		t.Errorf("CacheSize = %d, want 50", opts.CacheSize)
	}
	if opts.MinScore != 0.25 {
		t.Errorf("MinScore = %v, want 0.25", opts.MinScore)
	}
	if opts.Scoring.OK != 0.7 {
		t.Errorf("Scoring.OK = %v, want 0.7", opts.Scoring.OK)
	}
}
