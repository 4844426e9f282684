package location

import "errors"

var (
	ErrPermissionDenied = errors.New("location: permission denied")
	ErrRoleConflict     = errors.New("location: another role is active")
	ErrEmptyRideID      = errors.New("location: empty ride id")
	ErrMalformedSample  = errors.New("location: malformed sample")
	ErrInvalidSample    = errors.New("location: invalid sample")
	ErrNoProvider       = errors.New("location: no provider configured")
	ErrEmptyRoute       = errors.New("location: route has no points")
)
