// Package config provides the configuration system for quickmatch.
//
// Settings merge from three layers, each overriding the one before it:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← QUICKMATCH_* (highest priority)
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/quickmatch/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command-line flags are applied by the caller on top of the loaded Config,
// so they outrank all three layers.
//
// # Configuration File
//
// The file is TOML with camelCase keys matching the environment naming:
//
//	# ~/.config/quickmatch/config.toml
//	[ranking]
//	limit = 25
//	minScore = 0.5
//
//	[output]
//	format = "json"
//	scores = true
//
//	[scoring]
//	startWord = 0.9
//
// # Environment Variables
//
// Any setting can be overridden with QUICKMATCH_SECTION_SETTING, e.g.
// QUICKMATCH_RANKING_CACHE_SIZE=500 or QUICKMATCH_LOG_LEVEL=debug.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ranker := quickmatch.NewRanker(cfg.Options())
//
// Loading validates every setting; errors match ErrValidationFailed or
// ErrTypeMismatch with errors.Is.
package config
