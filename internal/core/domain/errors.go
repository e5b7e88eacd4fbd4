package domain

import "errors"

// Sentinel errors the HTTP boundary maps to status codes. Repositories wrap
// ErrNotFound with the entity and id; services wrap ErrNotAuthorized with
// the reason.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
)
