// Package mlangconfig loads the small set of knobs the analysis core
// exposes to a host application: the speculative-reparse token budget, the
// field-access type-engine toggle, and the cancellation poll granularity
// (SPEC_FULL.md §2.3). Shaped after vito/dang's pkg/dang/project.go
// (toml.DecodeFile into a plain struct, walk-up-to-.git discovery), reduced
// to the fields this core actually needs.
package mlangconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables a host can set for the analysis core.
type Config struct {
	// SpeculativeReparse bounds how much work a speculative re-parse may do
	// before the core gives up on it (spec.md §4 "Speculative re-parse
	// contract").
	SpeculativeReparse SpeculativeReparseConfig `toml:"speculative_reparse"`

	// FieldAccess controls the field-access analysis (spec.md §4.H).
	FieldAccess FieldAccessConfig `toml:"field_access"`

	// CancellationPollInterval is loaded from the config file but not read
	// by the analyses in pkg/mcomplete: they check their cancellation token
	// at every component boundary with no throttling, whatever its value.
	CancellationPollInterval time.Duration `toml:"cancellation_poll_interval"`
}

// SpeculativeReparseConfig bounds a single speculative re-parse attempt.
type SpeculativeReparseConfig struct {
	// MaxTokenBudget is loaded from the config file but not read by the
	// analyses in pkg/mcomplete: speculative re-parse entry points run
	// unbounded, whatever its value.
	MaxTokenBudget int `toml:"max_token_budget"`
}

// FieldAccessConfig toggles the one analysis that depends on an external
// type engine.
type FieldAccessConfig struct {
	// Enabled, when false, makes FieldAccess return an empty, error-free
	// result unconditionally — useful for a host that has no type engine
	// wired up yet.
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration this core ships with when no TOML file
// is present: speculative re-parses are unbounded, field-access completion
// is enabled, and cancellation is polled at every component boundary.
func Default() Config {
	return Config{
		SpeculativeReparse: SpeculativeReparseConfig{MaxTokenBudget: 0},
		FieldAccess:        FieldAccessConfig{Enabled: true},
	}
}

// Load reads and parses a TOML config file at path, starting from
// Default() so a partially-specified file only overrides the fields it
// names.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("mlangconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Find searches for "mquery.toml" starting at dir and walking up to
// parent directories, stopping at a ".git" boundary, mirroring
// vito/dang's FindProjectConfig. Returns ("", Default(), nil) if none is
// found.
func Find(dir string) (string, Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", Config{}, err
	}
	for {
		path := filepath.Join(dir, "mquery.toml")
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			if err != nil {
				return "", Config{}, err
			}
			return path, cfg, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", Default(), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", Default(), nil
		}
		dir = parent
	}
}
