package shared

import "errors"

var (
	// ErrNotFound is returned by stores when a lookup matches nothing.
	ErrNotFound = errors.New("shared: not found")
	// ErrInvalidCredentials covers unknown email, wrong password and inactive
	// accounts alike.
	ErrInvalidCredentials = errors.New("shared: invalid credentials")
	// ErrSessionMissing means the session middleware did not run.
	ErrSessionMissing = errors.New("shared: session missing")
	// ErrCSRFTokenMissing is returned when the form or session carries no token.
	ErrCSRFTokenMissing = errors.New("shared: csrf token missing")
	// ErrCSRFTokenMismatch is returned when the submitted token differs.
	ErrCSRFTokenMismatch = errors.New("shared: csrf token mismatch")
)
