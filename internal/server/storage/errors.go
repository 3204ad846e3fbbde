package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a uniqueness violation on users.username
	ErrUsernameTaken = errors.New("username already exists")

	// ErrEmailTaken indicates a uniqueness violation on users.email
	ErrEmailTaken = errors.New("email already exists")

	// ErrUnavailable indicates that the database could not be reached
	// or a connection was not acquired before the deadline
	ErrUnavailable = errors.New("database unavailable")
)
