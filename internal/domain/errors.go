package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	// ErrMissingCredential marks a call short-circuited before any request
	// was issued because the collaborator's API key is not configured.
	ErrMissingCredential = errors.New("missing credential")
)
