// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDescriptor is the sentinel error wrapped by MalformedDescriptorError.
	ErrMalformedDescriptor = errors.New("malformed installer descriptor")
	// ErrUnansweredGroup is the sentinel error wrapped by UnansweredGroupError.
	ErrUnansweredGroup = errors.New("installer group has no answer")
	// ErrInvalidAnswer is the sentinel error wrapped by InvalidAnswerError.
	ErrInvalidAnswer = errors.New("invalid installer answer")
	// ErrNoDescriptor is returned by Load when the tree has no descriptor.
	ErrNoDescriptor = errors.New("no installer descriptor")
)

type (
	// MalformedDescriptorError reports a structurally invalid descriptor:
	// unrecognized tags, unknown group types, or predicates referencing
	// groups or options that do not exist. It wraps ErrMalformedDescriptor.
	MalformedDescriptorError struct {
		Path   string
		Reason string
	}

	// UnansweredGroupError is returned by Plan when a visible group that
	// requires a selection has no recorded answer. It wraps ErrUnansweredGroup.
	UnansweredGroupError struct {
		Group string
	}

	// InvalidAnswerError is returned when an answer names an unknown option
	// or violates the group's selection arity. It wraps ErrInvalidAnswer.
	InvalidAnswerError struct {
		Group  string
		Reason string
	}
)

// Error implements the error interface.
func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrMalformedDescriptor, e.Path, e.Reason)
}

// Unwrap returns ErrMalformedDescriptor for errors.Is() compatibility.
func (e *MalformedDescriptorError) Unwrap() error { return ErrMalformedDescriptor }

// Error implements the error interface.
func (e *UnansweredGroupError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnansweredGroup, e.Group)
}

// Unwrap returns ErrUnansweredGroup for errors.Is() compatibility.
func (e *UnansweredGroupError) Unwrap() error { return ErrUnansweredGroup }

// Error implements the error interface.
func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("%v: group %q: %s", ErrInvalidAnswer, e.Group, e.Reason)
}

// Unwrap returns ErrInvalidAnswer for errors.Is() compatibility.
func (e *InvalidAnswerError) Unwrap() error { return ErrInvalidAnswer }
