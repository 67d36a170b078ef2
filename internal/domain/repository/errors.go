package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (e.g. email) already exists.
	ErrDuplicate = errors.New("duplicate")
	// ErrStateChanged is returned by conditional updates whose guard no longer holds.
	ErrStateChanged = errors.New("state changed concurrently")
)
