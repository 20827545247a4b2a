// SPDX-License-Identifier: MPL-2.0

// Package order keeps the ordered list of enabled mods. Position in the
// list is the mod's priority: when two mods provide the same file, the one
// later in the list wins. The list persists as a small TOML record in the
// store root and only ever references mods the store actually holds.
package order
