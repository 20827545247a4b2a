// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when neither content signature nor
	// file extension yields a known codec.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrCorruptArchive is the sentinel error wrapped by CorruptArchiveError.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrPathTraversal is the sentinel error wrapped by PathTraversalError.
	ErrPathTraversal = errors.New("path traversal attempt")
)

type (
	// UnsupportedFormatError is returned when an archive cannot be matched
	// to a known codec. It wraps ErrUnsupportedFormat for errors.Is().
	UnsupportedFormatError struct {
		Archive string
	}

	// CorruptArchiveError is returned when an archive entry cannot be read
	// or decompressed. It wraps ErrCorruptArchive for errors.Is().
	CorruptArchiveError struct {
		Archive string
		// Entry is the offending entry when known, empty otherwise.
		Entry string
		Cause error
	}

	// PathTraversalError is returned when an archive entry names an absolute
	// path or a ".." segment. It wraps ErrPathTraversal for errors.Is().
	PathTraversalError struct {
		Archive string
		Entry   string
	}
)

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Archive, ErrUnsupportedFormat)
}

// Unwrap returns ErrUnsupportedFormat for errors.Is() compatibility.
func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// Error implements the error interface.
func (e *CorruptArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s: entry %q: %v: %v", e.Archive, e.Entry, ErrCorruptArchive, e.Cause)
	}
	return fmt.Sprintf("%s: %v: %v", e.Archive, ErrCorruptArchive, e.Cause)
}

// Unwrap returns ErrCorruptArchive for errors.Is() compatibility.
func (e *CorruptArchiveError) Unwrap() error { return ErrCorruptArchive }

// Error implements the error interface.
func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("%s: entry %q: %v", e.Archive, e.Entry, ErrPathTraversal)
}

// Unwrap returns ErrPathTraversal for errors.Is() compatibility.
func (e *PathTraversalError) Unwrap() error { return ErrPathTraversal }
