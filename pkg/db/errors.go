package db

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist or is outside the caller's church
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyAssigned is returned when an assignment already exists for the (position, profile) pair
	ErrAlreadyAssigned = errors.New("profile already assigned to position")
)

// ErrStatusChanged is returned when a conditional status update matched no row because the
// assignment's status changed since it was read
var ErrStatusChanged = errors.New("assignment status changed")
