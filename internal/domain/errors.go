package domain

import "errors"

var (
	// ErrInvalidValue is returned for negative absolute values, unknown fields and bad dates.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidFormat is returned when imported data lacks a version or export date.
	ErrInvalidFormat = errors.New("invalid data format")
	// ErrAlreadyInProgress is returned when a workout is started while another is active.
	ErrAlreadyInProgress = errors.New("workout already in progress")
	// ErrNotFound is returned when a workout, achievement or session cannot be located.
	ErrNotFound = errors.New("not found")
)
