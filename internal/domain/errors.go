package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not the owner of this resource")
	ErrConflict        = errors.New("concurrent modification")
	ErrUnavailable     = errors.New("upstream collaborator unavailable")

	// Login failures stay distinct for audit logging; handlers must surface
	// both as the same generic 401 to prevent account enumeration.
	ErrUnknownUser        = errors.New("no user with that email")
	ErrInvalidCredentials = errors.New("password does not match")
)
