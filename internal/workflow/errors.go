// internal/workflow/errors.go
//
// Error taxonomy for the allocation workflow. Every failure a user can see
// maps onto one of these sentinels so the TUI can classify with errors.Is
// without inspecting strings.

package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed covers source-document and service-catalog reads,
	// including client-side timeouts.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidSelection rejects a submit locally: service path without an
	// offering, rule-based path with an offering or without parcels.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrCreationFailed means the backend returned no usable shipment
	// result. Allocation state survives so the user can resubmit.
	ErrCreationFailed = errors.New("creation failed")

	// ErrCancelled marks a user abort before submit. No side effects.
	ErrCancelled = errors.New("cancelled")
)

// FetchFailed wraps a failed read of the named source.
func FetchFailed(source string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrFetchFailed, source)
	}
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, source, err)
}

// InvalidSelection describes a locally rejected submit.
func InvalidSelection(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, reason)
}

// CreationFailed wraps a backend creation failure.
func CreationFailed(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCreationFailed, reason)
	}
	return fmt.Errorf("%w: %s: %w", ErrCreationFailed, reason, err)
}
