// Package common defines the sentinel errors shared by the store, service,
// auth and HTTP layers. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// Account lifecycle errors.
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authorization errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// ErrOwnerImmutable is returned when a role change targets an owner.
	ErrOwnerImmutable = fmt.Errorf("%w: cannot change owner privileges", ErrForbidden)

	// ErrNotFound covers both absent resources and resources owned by
	// someone else.
	ErrNotFound = errors.New("not found")

	ErrRateLimited = errors.New("rate limited")
	ErrValidation  = errors.New("validation failed")

	// Upstream generation errors.
	ErrUpstream        = errors.New("upstream failure")
	ErrUpstreamTimeout = errors.New("upstream timeout")

	ErrInternal = errors.New("internal error")
)
