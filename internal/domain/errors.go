// Package domain holds the sentinel errors shared between the repositories,
// services and HTTP handlers. Handlers translate them to status codes with
// errors.Is, so services must wrap them with %w.
package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("sweet not found")
	ErrOutOfStock         = errors.New("not enough stock")
)
