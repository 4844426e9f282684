package navigation

import "errors"

var (
	// ErrMissingRideID is returned by Resolve for ride match requests that do
	// not carry a ride id.
	ErrMissingRideID = errors.New("navigation: notification has no ride id")

	// ErrFallbackShown means navigation did not happen and the fallback
	// message was shown instead.
	ErrFallbackShown = errors.New("navigation: fallback message shown")

	// ErrHostNotReady means the host did not signal readiness in time.
	ErrHostNotReady = errors.New("navigation: host not ready")

	ErrNoReference  = errors.New("navigation: no reference to look the ride up")
	ErrRideNotFound = errors.New("navigation: ride not found")
)
