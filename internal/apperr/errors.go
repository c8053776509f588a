// Package apperr holds sentinel errors shared by the service and transport
// layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrMisconfigured = errors.New("server misconfigured")
)
