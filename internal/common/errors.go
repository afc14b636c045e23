// Package common defines shared constants and sentinel errors used across
// the server and client layers of TaskFlow. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized is returned for bad credentials. Unknown email and
	// wrong password share it so callers cannot enumerate users.
	ErrUnauthorized = errors.New("invalid email or password")

	// ErrForbidden means the resource exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUserNotFound = errors.New("user not found")
)
