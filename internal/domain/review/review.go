// Package review holds the validation applied to review text at the
// application boundaries (HTTP API and CLI) before it reaches the catalogue.
package review

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxLength is the longest review accepted, in characters.
const DefaultMaxLength = 100

// Sentinel errors for review validation.
var (
	ErrEmpty   = errors.New("no review provided")
	ErrTooLong = errors.New("review is too long")
)

// Validate checks that text is non-empty and at most maxLength characters.
// A non-positive maxLength selects DefaultMaxLength.
func Validate(text string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if text == "" {
		return ErrEmpty
	}
	if n := utf8.RuneCountInString(text); n > maxLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrTooLong, n, maxLength)
	}
	return nil
}

// Message returns the user-facing text for a validation error.
func Message(err error, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	switch {
	case errors.Is(err, ErrEmpty):
		return "No review provided"
	case errors.Is(err, ErrTooLong):
		return fmt.Sprintf("Review is too long, please keep it to %d characters or less", maxLength)
	case err != nil:
		return err.Error()
	}
	return ""
}

// FailureMessage is shown when the catalogue rejects or cannot take a review.
const FailureMessage = "Failed to submit review, please try again later"
