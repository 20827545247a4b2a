// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-facing error context for modstack.
//
// Core packages return typed errors; the CLI layer wraps them in an
// ActionableError before rendering so the user sees what operation failed,
// which archive, mod, or path was involved, and what to try next.
package issue
