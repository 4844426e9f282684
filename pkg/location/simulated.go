package location

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SimulatedProvider replays a Route at a fixed interval. Speed and bearing
// are derived from consecutive waypoints.
type SimulatedProvider struct {
	route   Route
	granted bool
	now     func() time.Time

	watches atomic.Int32
	stops   atomic.Int32
}

// SimulatedOption configures a SimulatedProvider.
type SimulatedOption func(*SimulatedProvider)

// WithPermissionDenied makes RequestPermission refuse access.
func WithPermissionDenied() SimulatedOption {
	return func(p *SimulatedProvider) {
		p.granted = false
	}
}

// WithSimulatedClock overrides time.Now for sample timestamps.
func WithSimulatedClock(now func() time.Time) SimulatedOption {
	return func(p *SimulatedProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewSimulatedProvider creates a provider for route.
func NewSimulatedProvider(route Route, opts ...SimulatedOption) *SimulatedProvider {
	p := &SimulatedProvider{route: route, granted: true, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SimulatedProvider) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.granted, nil
}

// Watch emits the next waypoint every interval. The route interval wins over
// opts.Interval when set. Waypoints closer than opts.DistanceFilter to the
// last emitted sample are skipped.
func (p *SimulatedProvider) Watch(ctx context.Context, opts WatchOptions, fn func(Sample)) (func(), error) {
	if len(p.route.Points) == 0 {
		return nil, ErrEmptyRoute
	}
	interval := p.route.Interval
	if interval <= 0 {
		interval = opts.Interval
	}
	if interval <= 0 {
		interval = DefaultWatchOptions().Interval
	}

	p.watches.Add(1)
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var once sync.Once
	stop := func() {
		once.Do(func() {
			p.stops.Add(1)
			cancel()
		})
	}

	go p.run(watchCtx, interval, opts.DistanceFilter, fn)
	return stop, nil
}

// Watches returns how many watches were started.
func (p *SimulatedProvider) Watches() int { return int(p.watches.Load()) }

// Stops returns how many watches were stopped.
func (p *SimulatedProvider) Stops() int { return int(p.stops.Load()) }

func (p *SimulatedProvider) run(ctx context.Context, interval time.Duration, minDistance float64, fn func(Sample)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var (
		prev    Sample
		hasPrev bool
		i       int
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if i >= len(p.route.Points) {
			if !p.route.Loop {
				return
			}
			i = 0
		}
		wp := p.route.Points[i]
		i++

		s := Sample{
			Latitude:  wp.Latitude,
			Longitude: wp.Longitude,
			Accuracy:  wp.Accuracy,
			Timestamp: p.now(),
		}
		if hasPrev {
			d := Distance(prev, s)
			if d < minDistance {
				continue
			}
			if dt := s.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
				s.Speed = d / dt
			}
			s.Bearing = Bearing(prev, s)
		}
		prev, hasPrev = s, true
		fn(s)
	}
}
