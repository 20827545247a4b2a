// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMod is returned when an identifier has no store entry.
	ErrUnknownMod = errors.New("unknown mod")
	// ErrDuplicateArchive is the sentinel error wrapped by DuplicateArchiveError.
	ErrDuplicateArchive = errors.New("archive already ingested")
	// ErrModStillDeployed is the sentinel error wrapped by ModStillDeployedError.
	ErrModStillDeployed = errors.New("mod is still deployed")
	// ErrInvalidDestination is the sentinel error wrapped by InvalidDestinationError.
	ErrInvalidDestination = errors.New("invalid destination path")
)

type (
	// UnknownModError is returned when an identifier resolves to no entry.
	// It wraps ErrUnknownMod for errors.Is() compatibility.
	UnknownModError struct {
		ID string
	}

	// DuplicateArchiveError is returned by Ingest when the store already
	// holds a byte-identical archive and the duplicate policy is
	// DuplicateError. It wraps ErrDuplicateArchive.
	DuplicateArchiveError struct {
		Archive string
		// ExistingID is the entry that was ingested from the same bytes.
		ExistingID string
	}

	// ModStillDeployedError is returned by Remove when the mod still has
	// deployed overlay entries. It wraps ErrModStillDeployed.
	ModStillDeployedError struct {
		ID string
	}

	// InvalidDestinationError is returned when a plan destination escapes
	// the game root. It wraps ErrInvalidDestination.
	InvalidDestinationError struct {
		Destination string
	}
)

// Error implements the error interface.
func (e *UnknownModError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownMod, e.ID)
}

// Unwrap returns ErrUnknownMod for errors.Is() compatibility.
func (e *UnknownModError) Unwrap() error { return ErrUnknownMod }

// Error implements the error interface.
func (e *DuplicateArchiveError) Error() string {
	return fmt.Sprintf("%v: %s (already installed as %s)", ErrDuplicateArchive, e.Archive, e.ExistingID)
}

// Unwrap returns ErrDuplicateArchive for errors.Is() compatibility.
func (e *DuplicateArchiveError) Unwrap() error { return ErrDuplicateArchive }

// Error implements the error interface.
func (e *ModStillDeployedError) Error() string {
	return fmt.Sprintf("%v: %s (undeploy before removing)", ErrModStillDeployed, e.ID)
}

// Unwrap returns ErrModStillDeployed for errors.Is() compatibility.
func (e *ModStillDeployedError) Unwrap() error { return ErrModStillDeployed }

// Error implements the error interface.
func (e *InvalidDestinationError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidDestination, e.Destination)
}

// Unwrap returns ErrInvalidDestination for errors.Is() compatibility.
func (e *InvalidDestinationError) Unwrap() error { return ErrInvalidDestination }
