// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"errors"
	"fmt"
)

var (
	// ErrForeignFileConflict is the sentinel error wrapped by ForeignFileConflictError.
	ErrForeignFileConflict = errors.New("foreign file in the way")
	// ErrLinkUnsupported is the sentinel error wrapped by LinkUnsupportedError.
	ErrLinkUnsupported = errors.New("link technique unsupported on target")
	// ErrNoPlan is the sentinel error wrapped by NoPlanError.
	ErrNoPlan = errors.New("mod has no file selection plan")
	// ErrPartialDeploy is returned when some files could not be placed;
	// the per-file causes are in the report.
	ErrPartialDeploy = errors.New("deployment incomplete")
)

type (
	// ForeignFileConflictError reports a game file that deployment would
	// have to overwrite but does not own. It wraps ErrForeignFileConflict.
	ForeignFileConflictError struct {
		Destination string
	}

	// LinkUnsupportedError reports a configured link technique the game
	// directory's filesystem rejected. It wraps ErrLinkUnsupported.
	LinkUnsupportedError struct {
		Technique Technique
		Cause     error
	}

	// NoPlanError reports an enabled mod whose installer was never
	// evaluated, so there is nothing to deploy for it. It wraps ErrNoPlan.
	NoPlanError struct {
		Mod string
	}
)

// Error implements the error interface.
func (e *ForeignFileConflictError) Error() string {
	return fmt.Sprintf("%v: %s", ErrForeignFileConflict, e.Destination)
}

// Unwrap returns ErrForeignFileConflict for errors.Is() compatibility.
func (e *ForeignFileConflictError) Unwrap() error { return ErrForeignFileConflict }

// Error implements the error interface.
func (e *LinkUnsupportedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", ErrLinkUnsupported, e.Technique, e.Cause)
	}
	return fmt.Sprintf("%v: %s", ErrLinkUnsupported, e.Technique)
}

// Unwrap returns ErrLinkUnsupported for errors.Is() compatibility.
func (e *LinkUnsupportedError) Unwrap() error { return ErrLinkUnsupported }

// Error implements the error interface.
func (e *NoPlanError) Error() string {
	return fmt.Sprintf("%v: %s (run its installer first)", ErrNoPlan, e.Mod)
}

// Unwrap returns ErrNoPlan for errors.Is() compatibility.
func (e *NoPlanError) Unwrap() error { return ErrNoPlan }
