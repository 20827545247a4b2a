// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where the configuration comes from. The zero value
// means the platform config directory.
type LoadOptions struct {
	// ConfigFilePath loads exactly this file (the --config flag); it must
	// exist.
	ConfigFilePath string
	// ConfigDirPath looks for config.toml under this directory instead of
	// the platform default.
	ConfigDirPath string
}

// Provider resolves the effective configuration in precedence order:
// defaults, then the config file, then MODSTACK_* environment overrides.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

// NewProvider returns the file-backed provider the CLI uses.
func NewProvider() Provider { return fileProvider{} }

type fileProvider struct{}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}
