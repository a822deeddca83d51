package repositories

import "errors"

var (
	// ErrNotFound is returned when no record matches the query.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (user email, post slug) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)
