// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"modstack/internal/deploy"
	"modstack/internal/store"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoGameDir is returned by RequireGameDir when game_dir is not set.
	ErrNoGameDir = errors.New("game_dir is not configured")
)

type (
	// Config is the complete modstack configuration.
	Config struct {
		// GameDir is the game installation the mods deploy into. Empty
		// until the user sets it; deployment refuses to run without it.
		GameDir string `mapstructure:"game_dir" toml:"game_dir"`
		// StoreDir is where extracted mods and their records live.
		StoreDir string `mapstructure:"store_dir" toml:"store_dir"`
		// LinkMode is the deployment technique: auto, hardlink, symlink
		// or copy.
		LinkMode string `mapstructure:"link_mode" toml:"link_mode"`

		Store StoreConfig `mapstructure:"store" toml:"store"`
		UI    UIConfig    `mapstructure:"ui" toml:"ui"`
	}

	// StoreConfig tunes mod ingestion.
	StoreConfig struct {
		// OnDuplicate decides what a byte-identical archive does on
		// install: "warn-skip" or "error".
		OnDuplicate string `mapstructure:"on_duplicate" toml:"on_duplicate"`
	}

	// UIConfig tunes terminal output.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}

	// InvalidConfigError reports a config field with an unusable value.
	// It wraps ErrInvalidConfig.
	InvalidConfigError struct {
		Field  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the configuration used when no file exists.
// StoreDir stays empty here and is resolved lazily against the platform
// data directory, so the default file does not bake in one machine's paths.
func DefaultConfig() *Config {
	return &Config{
		LinkMode: string(deploy.TechniqueAuto),
		Store:    StoreConfig{OnDuplicate: string(store.DuplicateWarnSkip)},
	}
}

// Validate checks field values against their closed sets.
func (c *Config) Validate() error {
	if _, err := deploy.ParseTechnique(c.LinkMode); err != nil {
		return &InvalidConfigError{Field: "link_mode", Reason: err.Error()}
	}
	switch store.DuplicatePolicy(c.Store.OnDuplicate) {
	case store.DuplicateWarnSkip, store.DuplicateError:
	default:
		return &InvalidConfigError{
			Field:  "store.on_duplicate",
			Reason: fmt.Sprintf("unknown policy %q (warn-skip or error)", c.Store.OnDuplicate),
		}
	}
	return nil
}

// LinkTechnique returns the validated deployment technique.
func (c *Config) LinkTechnique() deploy.Technique {
	t, err := deploy.ParseTechnique(c.LinkMode)
	if err != nil {
		return deploy.TechniqueAuto
	}
	return t
}

// DuplicatePolicy returns the validated ingestion policy.
func (c *Config) DuplicatePolicy() store.DuplicatePolicy {
	if store.DuplicatePolicy(c.Store.OnDuplicate) == store.DuplicateError {
		return store.DuplicateError
	}
	return store.DuplicateWarnSkip
}

// RequireGameDir returns the configured game directory or ErrNoGameDir.
func (c *Config) RequireGameDir() (string, error) {
	if c.GameDir == "" {
		return "", ErrNoGameDir
	}
	return c.GameDir, nil
}
