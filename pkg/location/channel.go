package location

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/broadcast"
	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// Conn is the part of the connection manager the channel needs.
type Conn interface {
	Subscribe(topic string, handler stomp.Handler, opts ...stomp.SubscribeOption) (*stomp.Subscription, error)
	Publish(destination string, body []byte, headers ...string) error
	IsConnected() bool
}

// Channel shares or receives location for one ride at a time.
// All methods are safe for concurrent use.
type Channel struct {
	conn      Conn
	provider  Provider
	logger    *slog.Logger
	metrics   *metrics.Collectors
	events    *broadcast.MemoryBroadcaster[Sample]
	now       func() time.Time
	watchOpts WatchOptions
	buffer    int
	strict    bool

	// mu serializes role changes and guards the fields below.
	mu     sync.Mutex
	role   Role
	rideID string

	stopWatch func()
	pubCancel context.CancelFunc
	pubDone   chan struct{}

	sub *stomp.Subscription

	// gen invalidates callbacks that belong to a torn down role.
	gen atomic.Uint64

	lastMu  sync.RWMutex
	last    Sample
	hasLast bool
}

// NewChannel creates an idle channel. provider may be nil for rider-only use.
func NewChannel(conn Conn, provider Provider, opts ...Option) *Channel {
	c := &Channel{
		conn:      conn,
		provider:  provider,
		logger:    slog.Default(),
		now:       time.Now,
		watchOpts: DefaultWatchOptions(),
		buffer:    16,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("location"))
	c.events = broadcast.NewMemoryBroadcaster[Sample](c.buffer)
	return c
}

// StartDriverSharing requests location permission, then publishes every
// device sample to the ride destination. A denied permission returns
// ErrPermissionDenied and leaves the channel idle.
func (c *Channel) StartDriverSharing(ctx context.Context, rideID string) error {
	if rideID == "" {
		return ErrEmptyRideID
	}
	if c.provider == nil {
		return ErrNoProvider
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.role == RoleDriver && c.rideID == rideID {
		return nil
	}
	if err := c.prepareLocked(RoleDriver); err != nil {
		return err
	}

	granted, err := c.provider.RequestPermission(ctx)
	if err != nil {
		return errors.Join(ErrPermissionDenied, err)
	}
	if !granted {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "location permission denied", logger.RideID(rideID))
		return ErrPermissionDenied
	}

	gen := c.gen.Load()
	samples := make(chan Sample, c.buffer)
	pubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go c.publish(pubCtx, rideID, samples, done)

	stop, err := c.provider.Watch(ctx, c.watchOpts, func(s Sample) {
		if c.gen.Load() != gen {
			return
		}
		select {
		case samples <- s:
		default:
			c.metrics.IncLocationSample(metrics.SampleDropped)
		}
	})
	if err != nil {
		cancel()
		<-done
		return err
	}

	c.role, c.rideID = RoleDriver, rideID
	c.stopWatch, c.pubCancel, c.pubDone = stop, cancel, done

	c.logger.LogAttrs(ctx, slog.LevelInfo, "driver location sharing started",
		logger.RideID(rideID),
		slog.Bool("connected", c.conn.IsConnected()),
	)
	return nil
}

// StartRiderReceiving subscribes to the ride topic and passes every valid
// sample to fn. fn runs on the connection's read goroutine and must not
// block; it may be nil when only Subscribe streams are used.
func (c *Channel) StartRiderReceiving(ctx context.Context, rideID string, fn func(Sample)) error {
	if rideID == "" {
		return ErrEmptyRideID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.prepareLocked(RoleRider); err != nil {
		return err
	}

	gen := c.gen.Load()
	sub, err := c.conn.Subscribe(RideTopic(rideID), func(msg stomp.Message) {
		if c.gen.Load() != gen {
			return
		}
		c.receive(gen, rideID, msg, fn)
	}, stomp.WithID(SubscriptionID(rideID)))
	if err != nil {
		return err
	}

	c.role, c.rideID, c.sub = RoleRider, rideID, sub

	c.logger.LogAttrs(ctx, slog.LevelInfo, "rider location receiving started",
		logger.RideID(rideID),
		slog.Bool("connected", c.conn.IsConnected()),
	)
	return nil
}

// Stop tears down the active role. Calling it while idle is a no-op.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// Close stops the channel and closes every Subscribe stream.
func (c *Channel) Close() error {
	c.Stop()
	return c.events.Close()
}

// IsConnected reports whether a role is active and the connection is up.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	active := c.role != RoleNone
	c.mu.Unlock()
	return active && c.conn.IsConnected()
}

func (c *Channel) CurrentRideID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rideID
}

func (c *Channel) CurrentRole() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// LastSample returns the most recent valid sample received as a rider.
func (c *Channel) LastSample() (Sample, bool) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	return c.last, c.hasLast
}

// Subscribe streams samples received as a rider until ctx is done.
func (c *Channel) Subscribe(ctx context.Context) broadcast.Subscriber[Sample] {
	return c.events.Subscribe(ctx)
}

// prepareLocked enforces role exclusivity before next is activated.
func (c *Channel) prepareLocked(next Role) error {
	if c.strict && c.role != RoleNone && c.role != next {
		return ErrRoleConflict
	}
	c.teardownLocked()
	return nil
}

// teardownLocked stops the watch and drains the publisher, or removes the
// rider subscription. It returns only once the previous role is fully gone.
func (c *Channel) teardownLocked() {
	if c.role == RoleNone {
		return
	}
	c.gen.Add(1)

	switch c.role {
	case RoleDriver:
		if c.stopWatch != nil {
			c.stopWatch()
		}
		if c.pubCancel != nil {
			c.pubCancel()
			<-c.pubDone
		}
	case RoleRider:
		if c.sub != nil {
			c.sub.Unsubscribe()
		}
	}

	c.logger.LogAttrs(context.Background(), slog.LevelInfo, "location role stopped",
		logger.Role(c.role.String()),
		logger.RideID(c.rideID),
	)

	c.role, c.rideID = RoleNone, ""
	c.stopWatch, c.pubCancel, c.pubDone = nil, nil, nil
	c.sub = nil

	c.lastMu.Lock()
	c.last, c.hasLast = Sample{}, false
	c.lastMu.Unlock()
}

// publish forwards device samples until ctx is cancelled. Samples still
// buffered at that point are dropped.
func (c *Channel) publish(ctx context.Context, rideID string, samples <-chan Sample, done chan<- struct{}) {
	defer close(done)
	dest := RideDestination(rideID)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-samples:
			if ctx.Err() != nil {
				return
			}
			if err := s.Validate(); err != nil {
				c.metrics.IncLocationSample(metrics.SampleInvalid)
				c.logger.LogAttrs(ctx, slog.LevelDebug, "skipping invalid device sample",
					logger.RideID(rideID),
					logger.Error(err),
				)
				continue
			}
			body, err := json.Marshal(s)
			if err != nil {
				continue
			}
			if err := c.conn.Publish(dest, body); err != nil {
				c.metrics.IncLocationSample(metrics.SampleDropped)
				continue
			}
			c.metrics.IncLocationSample(metrics.SamplePublished)
		}
	}
}

// receive stores and forwards one sample. gen is checked again under lastMu
// because teardown may run between the subscription callback and the store.
func (c *Channel) receive(gen uint64, rideID string, msg stomp.Message, fn func(Sample)) {
	ctx := context.Background()

	s, salvaged, err := ParseSample(msg.Body, c.now())
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		c.metrics.IncLocationSample(metrics.SampleInvalid)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "ignoring malformed location sample",
			logger.RideID(rideID),
			logger.Raw(msg.Body),
			logger.Error(err),
		)
		return
	}
	if salvaged {
		c.metrics.IncSalvaged("location")
	}

	c.lastMu.Lock()
	if c.gen.Load() != gen {
		c.lastMu.Unlock()
		return
	}
	c.last, c.hasLast = s, true
	c.lastMu.Unlock()

	c.metrics.IncLocationSample(metrics.SampleReceived)
	if fn != nil {
		fn(s)
	}
	c.events.Publish(ctx, s)
}
