package auth

import "errors"

// Errors returned by Service. They cross the socket as gRPC status codes.
var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must have at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
