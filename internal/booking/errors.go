package booking

import "errors"

var (
	// ErrStepIncomplete is returned when advancing with invalid or
	// missing step-1 fields.
	ErrStepIncomplete = errors.New("current step is incomplete")

	// ErrScheduleIncomplete is returned when submitting without both a
	// date and a time selected.
	ErrScheduleIncomplete = errors.New("date and time are required")

	// ErrAlreadySubmitting is returned by a repeat submission attempt
	// while one is in flight.
	ErrAlreadySubmitting = errors.New("submission already in progress")

	// ErrLocked is returned when mutating a machine that has begun
	// submitting.
	ErrLocked = errors.New("booking is locked for submission")

	// ErrInvalidTransition is returned for transitions the current
	// state does not permit.
	ErrInvalidTransition = errors.New("invalid state transition")
)
