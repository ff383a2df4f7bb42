package service

import "errors"

var (
	// ErrNotFound covers missing rows and rows owned by another user. The two
	// cases are deliberately indistinguishable so that probing for foreign IDs
	// leaks nothing.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidFrequency is returned for an unrecognized recurrence frequency.
	ErrInvalidFrequency = errors.New("invalid recurrence frequency")

	// ErrInvalidDepreciationInput is returned when partial depreciation is
	// requested without years or a start date.
	ErrInvalidDepreciationInput = errors.New("invalid depreciation input")
)
