package uc

import "errors"

var (
	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound is returned when an assignee id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrMessageTooShort rejects inputs below the minimum-length gate
	// before parsing; it is distinct from a parse failure.
	ErrMessageTooShort = errors.New("message is too short to be a task")
	// ErrInvalidInput covers malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
)
