package services

import "errors"

// Domain-rule sentinels. Handlers translate these to a single human-readable
// message; anything else is treated as an upstream failure and surfaced
// generically.
var (
	ErrAlreadyRegistered = errors.New("already registered for this workshop")
	ErrNotRegistered     = errors.New("not registered for this workshop")
	ErrWorkshopFull      = errors.New("workshop is at capacity")
	ErrEventFull         = errors.New("event is at capacity")
	ErrRsvpClosed        = errors.New("rsvp is closed")
	ErrNotFound          = errors.New("not found")
	ErrUserNotFound      = errors.New("no account registration found")
	ErrAccessDenied      = errors.New("access denied")
)
