package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/quickmatch"
	"github.com/dshills/quickmatch/internal/config/loader"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "QUICKMATCH_"

// Config holds all quickmatch settings. Values come from defaults, then the
// config file, then QUICKMATCH_ environment variables, each layer overriding
// the one before it.
type Config struct {
	Scoring ScoringConfig
	Ranking RankingConfig
	Output  OutputConfig
	Picker  PickerConfig
	Watch   WatchConfig
	Script  ScriptConfig
	Logging LoggingConfig
}

// ScoringConfig tunes the match scoring tiers and penalties.
type ScoringConfig struct {
	ContinueMatch float64
	StartWord     float64
	OK            float64
	Skipped       float64
	CaseMismatch  float64
	NotComplete   float64
}

// Scoring converts the section to the matcher's tuning type.
func (c ScoringConfig) Scoring() quickmatch.Scoring {
	return quickmatch.Scoring{
		ContinueMatch: c.ContinueMatch,
		StartWord:     c.StartWord,
		OK:            c.OK,
		Skipped:       c.Skipped,
		CaseMismatch:  c.CaseMismatch,
		NotComplete:   c.NotComplete,
	}
}

// RankingConfig controls result selection.
type RankingConfig struct {
	// Limit caps the number of results; 0 means unlimited.
	Limit int
	// MinScore drops results scoring below it.
	MinScore float64
	// CacheSize is the ranked-result cache capacity; 0 disables it.
	CacheSize int
	// Workers is the parallel ranking worker count; 0 means one per CPU.
	Workers int
}

// Options converts the ranking and scoring sections to ranker options.
func (c *Config) Options() quickmatch.Options {
	return quickmatch.Options{
		CacheSize: c.Ranking.CacheSize,
		MinScore:  c.Ranking.MinScore,
		Scoring:   c.Scoring.Scoring(),
	}
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	// Format is one of "text", "markup", "ansi", "json".
	Format string
	// Scores prefixes each result with its score.
	Scores bool
	// Color is one of "auto", "always", "never".
	Color string
}

// PickerConfig controls the interactive picker.
type PickerConfig struct {
	// Prompt is drawn before the typed abbreviation.
	Prompt string
	// Height caps the list height in rows; 0 uses the full screen.
	Height int
}

// WatchConfig controls candidate file watching.
type WatchConfig struct {
	// Debounce coalesces change events closer together than this.
	Debounce time.Duration
}

// ScriptConfig points at the Lua hook file.
type ScriptConfig struct {
	// File is the hook script path; empty disables scripting.
	File string
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// File receives the log; empty means stderr.
	File string
}

// Default returns the built-in configuration.
func Default() *Config {
	scoring := quickmatch.DefaultScoring()
	return &Config{
		Scoring: ScoringConfig{
			ContinueMatch: scoring.ContinueMatch,
			StartWord:     scoring.StartWord,
			OK:            scoring.OK,
			Skipped:       scoring.Skipped,
			CaseMismatch:  scoring.CaseMismatch,
			NotComplete:   scoring.NotComplete,
		},
		Ranking: RankingConfig{
			Limit:     0,
			MinScore:  0,
			CacheSize: 1000,
			Workers:   0,
		},
		Output: OutputConfig{
			Format: "text",
			Scores: false,
			Color:  "auto",
		},
		Picker: PickerConfig{
			Prompt: "> ",
			Height: 0,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Script:  ScriptConfig{},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns the standard config file location, or "" when the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quickmatch", "config.toml")
}

// Load reads the config file at path (skipped when empty or missing),
// applies QUICKMATCH_ environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithFS(loader.DefaultFS(), path)
}

// LoadWithFS is Load against an explicit file system, for tests.
func LoadWithFS(fsys loader.FileSystem, path string) (*Config, error) {
	merged := make(map[string]any)

	if path != "" {
		fileMap, err := loader.NewTOMLLoaderWithFS(fsys, path).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileMap)
	}

	envMap, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, envMap)

	cfg := Default()
	if err := cfg.apply(merged); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies a merged settings map onto the typed config.
func (c *Config) apply(m map[string]any) error {
	for section, raw := range m {
		sub, ok := raw.(map[string]any)
		if !ok {
			return &ValidationError{Path: section, Message: "expected a table"}
		}

		var err error
		switch section {
		case "scoring":
			err = c.applyScoring(sub)
		case "ranking":
			err = c.applyRanking(sub)
		case "output":
			err = c.applyOutput(sub)
		case "picker":
			err = c.applyPicker(sub)
		case "watch":
			err = c.applyWatch(sub)
		case "script":
			err = c.applyScript(sub)
		case "logging":
			err = c.applyLogging(sub)
		default:
			err = &ValidationError{Path: section, Message: "unknown section"}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyScoring(m map[string]any) error {
	for key, val := range m {
		var dst *float64
		switch key {
		case "continueMatch":
			dst = &c.Scoring.ContinueMatch
		case "startWord":
			dst = &c.Scoring.StartWord
		case "ok":
			dst = &c.Scoring.OK
		case "skipped":
			dst = &c.Scoring.Skipped
		case "caseMismatch":
			dst = &c.Scoring.CaseMismatch
		case "notComplete":
			dst = &c.Scoring.NotComplete
		default:
			return unknownSetting("scoring", key)
		}
		f, ok := toFloat(val)
		if !ok {
			return typeMismatch("scoring", key, "number", val)
		}
		*dst = f
	}
	return nil
}

func (c *Config) applyRanking(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "limit":
			n, ok := toInt(val)
			if !ok {
				return typeMismatch("ranking", key, "integer", val)
			}
			c.Ranking.Limit = n
		case "minScore":
			f, ok := toFloat(val)
			if !ok {
				return typeMismatch("ranking", key, "number", val)
			}
			c.Ranking.MinScore = f
		case "cacheSize":
			n, ok := toInt(val)
			if !ok {
				return typeMismatch("ranking", key, "integer", val)
			}
			c.Ranking.CacheSize = n
		case "workers":
			n, ok := toInt(val)
			if !ok {
				return typeMismatch("ranking", key, "integer", val)
			}
			c.Ranking.Workers = n
		default:
			return unknownSetting("ranking", key)
		}
	}
	return nil
}

func (c *Config) applyOutput(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "format":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("output", key, "string", val)
			}
			c.Output.Format = s
		case "scores":
			b, ok := val.(bool)
			if !ok {
				return typeMismatch("output", key, "boolean", val)
			}
			c.Output.Scores = b
		case "color":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("output", key, "string", val)
			}
			c.Output.Color = s
		default:
			return unknownSetting("output", key)
		}
	}
	return nil
}

func (c *Config) applyPicker(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "prompt":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("picker", key, "string", val)
			}
			c.Picker.Prompt = s
		case "height":
			n, ok := toInt(val)
			if !ok {
				return typeMismatch("picker", key, "integer", val)
			}
			c.Picker.Height = n
		default:
			return unknownSetting("picker", key)
		}
	}
	return nil
}

func (c *Config) applyWatch(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "debounce":
			d, ok := toDuration(val)
			if !ok {
				return typeMismatch("watch", key, "duration", val)
			}
			c.Watch.Debounce = d
		default:
			return unknownSetting("watch", key)
		}
	}
	return nil
}

func (c *Config) applyScript(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "file":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("script", key, "string", val)
			}
			c.Script.File = os.ExpandEnv(s)
		default:
			return unknownSetting("script", key)
		}
	}
	return nil
}

func (c *Config) applyLogging(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "level":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("logging", key, "string", val)
			}
			c.Logging.Level = s
		case "file":
			s, ok := val.(string)
			if !ok {
				return typeMismatch("logging", key, "string", val)
			}
			c.Logging.File = os.ExpandEnv(s)
		default:
			return unknownSetting("logging", key)
		}
	}
	return nil
}

// Validate checks every setting and returns the first violation.
func (c *Config) Validate() error {
	if err := c.Scoring.Scoring().Validate(); err != nil {
		return &ValidationError{Path: "scoring", Message: err.Error()}
	}
	if c.Ranking.Limit < 0 {
		return &ValidationError{Path: "ranking.limit", Message: "must be >= 0"}
	}
	if c.Ranking.MinScore < 0 || c.Ranking.MinScore > 1 {
		return &ValidationError{Path: "ranking.minScore", Message: "must be in [0, 1]"}
	}
	if c.Ranking.CacheSize < 0 {
		return &ValidationError{Path: "ranking.cacheSize", Message: "must be >= 0"}
	}
	if c.Ranking.Workers < 0 {
		return &ValidationError{Path: "ranking.workers", Message: "must be >= 0"}
	}
	switch c.Output.Format {
	case "text", "markup", "ansi", "json":
	default:
		return &ValidationError{Path: "output.format", Message: fmt.Sprintf("unknown format %q", c.Output.Format)}
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return &ValidationError{Path: "output.color", Message: fmt.Sprintf("unknown color mode %q", c.Output.Color)}
	}
	if c.Picker.Height < 0 {
		return &ValidationError{Path: "picker.height", Message: "must be >= 0"}
	}
	if c.Watch.Debounce < 0 {
		return &ValidationError{Path: "watch.debounce", Message: "must be >= 0"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// toDuration accepts a time.Duration, a duration string, or a bare number
// of milliseconds.
func toDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case int64:
		return time.Duration(d) * time.Millisecond, true
	case int:
		return time.Duration(d) * time.Millisecond, true
	}
	return 0, false
}
