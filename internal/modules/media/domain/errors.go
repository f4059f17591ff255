package domain

import "errors"

var (
	ErrSecurity        = errors.New("SecurityError: media devices require a secure context")
	ErrNotSupported    = errors.New("NotSupportedError: media device acquisition is unavailable")
	ErrNotFound        = errors.New("NotFoundError: no device satisfies the constraints")
	ErrOverconstrained = errors.New("OverconstrainedError: constraint cannot be satisfied")
	ErrClosed          = errors.New("media controller is closed")
)
