package prover

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/pkg/errors"
)

var (
	// ErrMalformedHeader means a header's extra-data or numbering could not be interpreted.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrHeaderUnavailable means a required header could not be fetched. It is
	// the only retryable error of this package.
	ErrHeaderUnavailable = errors.New("header unavailable")
	// ErrAncestryTooLarge means the epoch ancestry does not fit in one update.
	ErrAncestryTooLarge = errors.New("epoch ancestry too large")
	// ErrCorruptValidatorEntry means an epoch header lists an undecodable vote key.
	ErrCorruptValidatorEntry = errors.New("corrupt validator entry")
)

// HeaderUnavailableError reports which header could not be fetched.
type HeaderUnavailableError struct {
	// Locator is the block number or hash that was requested.
	Locator string
	Err     error
}

func (e *HeaderUnavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrHeaderUnavailable, e.Locator, e.Err)
}

func (e *HeaderUnavailableError) Unwrap() error { return e.Err }

func (e *HeaderUnavailableError) Is(target error) bool { return target == ErrHeaderUnavailable }

// AncestryTooLargeError carries the context of an oversized ancestry.
type AncestryTooLargeError struct {
	Length         int
	Max            int
	EpochBoundary  idx.Block
	SourceNumber   idx.Block
	AttestedNumber idx.Block
}

func (e *AncestryTooLargeError) Error() string {
	return fmt.Sprintf("%v: %d headers (max %d) between epoch boundary %d and source %d, attested %d",
		ErrAncestryTooLarge, e.Length, e.Max, e.EpochBoundary, e.SourceNumber, e.AttestedNumber)
}

func (e *AncestryTooLargeError) Is(target error) bool { return target == ErrAncestryTooLarge }

// CorruptValidatorEntryError identifies the offending validator by position.
type CorruptValidatorEntryError struct {
	Index int
	Err   error
}

func (e *CorruptValidatorEntryError) Error() string {
	return fmt.Sprintf("%v: index %d: %v", ErrCorruptValidatorEntry, e.Index, e.Err)
}

func (e *CorruptValidatorEntryError) Unwrap() error { return e.Err }

func (e *CorruptValidatorEntryError) Is(target error) bool { return target == ErrCorruptValidatorEntry }
