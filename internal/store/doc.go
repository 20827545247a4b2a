// SPDX-License-Identifier: MPL-2.0

// Package store owns the on-disk mod repository: one extracted, immutable
// file tree per installed mod plus a small TOML metadata record next to it.
//
// Layout under the store root:
//
//	<root>/<id>/        extracted mod tree (never mutated after ingest)
//	<root>/<id>.toml    metadata: declared name, version, source hash,
//	                    detected kind, file-selection plan, installer answers
//
// The metadata record is the one piece of persisted state this core owns
// directly; its schema must stay stable across runs.
package store
