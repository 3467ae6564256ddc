package domain

import "errors"

var (
	// ErrValidation is returned when a request is missing a required field or carries a malformed one.
	ErrValidation = errors.New("validation failed")
	// ErrRoundNotFound indicates a round id does not resolve (or, on public reads, is inactive).
	ErrRoundNotFound = errors.New("round not found")
	// ErrParticipantNotFound indicates a participant id does not resolve.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrDuplicateEmail is returned when registering an email that is already on file.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStorageUnavailable wraps transient backend failures. Safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
