package model

import "errors"

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when the email unique constraint is violated.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAuthenticationFailed covers every credential verification failure.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
