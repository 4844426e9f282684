package location

import (
	"context"
	"time"
)

// WatchOptions are passed to Provider.Watch.
type WatchOptions struct {
	HighAccuracy   bool
	Interval       time.Duration
	DistanceFilter float64
}

// DefaultWatchOptions asks for a high accuracy fix every 5s or every 10m of
// movement, whichever comes first.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		HighAccuracy:   true,
		Interval:       5 * time.Second,
		DistanceFilter: 10,
	}
}

// Provider is the device location source.
type Provider interface {
	// RequestPermission asks the user for location access.
	RequestPermission(ctx context.Context) (granted bool, err error)

	// Watch delivers samples to fn until stop is called. fn may be called from
	// any goroutine and must not block.
	Watch(ctx context.Context, opts WatchOptions, fn func(Sample)) (stop func(), err error)
}
