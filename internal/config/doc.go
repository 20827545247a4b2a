// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the modstack configuration: where the
// game lives, where the mod store lives, and how deployment behaves. The
// config file is TOML under the platform config directory; every field has
// a default, so running without a config file works.
package config
