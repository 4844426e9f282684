package notifications

import "errors"

var (
	ErrMalformedMessage = errors.New("notifications: malformed message")
	ErrNotStarted       = errors.New("notifications: channel not started")
	ErrEmptyUserID      = errors.New("notifications: empty user id")
	ErrEmptyID          = errors.New("notifications: empty notification id")
	ErrNoBackend        = errors.New("notifications: no backend configured")
)
