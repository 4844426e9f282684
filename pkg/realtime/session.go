package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/caronakit/pkg/api"
	"github.com/dmitrymomot/caronakit/pkg/async"
	"github.com/dmitrymomot/caronakit/pkg/location"
	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/navigation"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// Session owns every real-time component of one signed-in user.
type Session struct {
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Collectors
	transport stomp.Transport
	provider  location.Provider
	backend   notifications.Backend
	fetcher   navigation.RideFetcher
	host      navigation.Host
	presenter navigation.Presenter

	client        *api.Client
	notifyConn    *stomp.Manager
	locationConn  *stomp.Manager
	runner        *async.Runner
	notifications *notifications.Channel
	location      *location.Channel
	navigator     *navigation.Resolver

	closeOnce sync.Once
	closeErr  error
}

// New wires a session. Nothing connects until Connect or Start.
func New(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	log := s.logger

	if s.backend == nil || s.fetcher == nil {
		client, err := api.New(cfg.API, api.WithLogger(log), api.WithMetrics(s.metrics))
		if err != nil {
			return nil, fmt.Errorf("realtime: %w", err)
		}
		s.client = client
		if s.backend == nil {
			s.backend = client
		}
		if s.fetcher == nil {
			s.fetcher = client
		}
	}

	connOpts := []stomp.Option{
		stomp.WithConfig(cfg.Stomp),
		stomp.WithLogger(log),
		stomp.WithMetrics(s.metrics),
	}
	if cfg.API.Token != "" {
		connOpts = append(connOpts, stomp.WithConnectHeader("Authorization", "Bearer "+cfg.API.Token))
	}
	if s.transport != nil {
		connOpts = append(connOpts, stomp.WithTransport(s.transport))
	}
	s.notifyConn = stomp.NewManager(cfg.Stomp.Endpoint(cfg.NotificationsEndpoint), connOpts...)
	s.locationConn = stomp.NewManager(cfg.Stomp.Endpoint(cfg.LocationEndpoint), connOpts...)

	s.runner = async.NewRunner(async.WithRunnerLogger(log.With(logger.Component("session"))))
	s.notifications = notifications.NewChannel(s.notifyConn, s.backend,
		notifications.WithLogger(log),
		notifications.WithMetrics(s.metrics),
		notifications.WithRunner(s.runner),
		notifications.WithPageSize(cfg.PageSize),
	)

	locOpts := []location.Option{
		location.WithLogger(log),
		location.WithMetrics(s.metrics),
	}
	if cfg.StrictRoles {
		locOpts = append(locOpts, location.WithStrictRoles())
	}
	s.location = location.NewChannel(s.locationConn, s.provider, locOpts...)

	if s.host == nil {
		s.host = NewLogHost(log)
	}
	if s.presenter == nil {
		s.presenter = LogPresenter{Logger: log}
	}
	s.navigator = navigation.NewResolver(s.fetcher, s.host, s.presenter,
		navigation.WithLogger(log),
		navigation.WithMetrics(s.metrics),
		navigation.WithReadyTimeout(cfg.ReadyTimeout),
	)
	return s, nil
}

// Connect activates both connections. It returns immediately; progress is
// reported through state changes.
func (s *Session) Connect(ctx context.Context) error {
	return errors.Join(s.notifyConn.Connect(ctx), s.locationConn.Connect(ctx))
}

// Start connects, starts the notification channel for userID and loads the
// first page of history in the background.
func (s *Session) Start(ctx context.Context, userID string) error {
	ctx = ContextWithUser(ctx, userID)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	if err := s.notifications.Start(ctx, userID); err != nil {
		return err
	}
	s.runner.Go(context.WithoutCancel(ctx), "initial_load", func(ctx context.Context) error {
		return s.notifications.LoadPage(ctx, 0)
	})
	return nil
}

// OpenNotification marks id as read and navigates to its screen.
func (s *Session) OpenNotification(ctx context.Context, id string) (navigation.Target, error) {
	n, ok := s.notifications.Get(id)
	if !ok {
		return navigation.Target{}, fmt.Errorf("%w: %s", ErrUnknownNotification, id)
	}
	if err := s.notifications.MarkAsRead(ctx, id); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "mark as read failed",
			logger.NotificationID(id),
			logger.Error(err),
		)
	}
	return s.navigator.Open(ctx, n)
}

func (s *Session) Notifications() *notifications.Channel { return s.notifications }
func (s *Session) Location() *location.Channel           { return s.location }
func (s *Session) Navigator() *navigation.Resolver       { return s.navigator }

// Errors delivers failures of background backend calls.
func (s *Session) Errors() <-chan async.TaskError {
	return s.runner.Errors()
}

// OnStateChange observes both connections. The returned func removes the
// listener from both.
func (s *Session) OnStateChange(fn func(endpoint string, c stomp.StateChange)) (remove func()) {
	r1 := s.notifyConn.OnStateChange(func(c stomp.StateChange) { fn(s.notifyConn.URL(), c) })
	r2 := s.locationConn.OnStateChange(func(c stomp.StateChange) { fn(s.locationConn.URL(), c) })
	return func() {
		r1()
		r2()
	}
}

// Health is a point-in-time view of the session.
type Health struct {
	Notifications stomp.State `json:"notifications"`
	Location      stomp.State `json:"location"`
	Unread        int         `json:"unread"`
	Role          string      `json:"role"`
	RideID        string      `json:"rideId,omitempty"`
	Breaker       string      `json:"breaker,omitempty"`
}

// Healthy reports whether the notification connection is up.
func (h Health) Healthy() bool {
	return h.Notifications == stomp.StateConnected
}

func (s *Session) Health() Health {
	h := Health{
		Notifications: s.notifyConn.State(),
		Location:      s.locationConn.State(),
		Unread:        s.notifications.UnreadCount(),
		Role:          s.location.CurrentRole().String(),
		RideID:        s.location.CurrentRideID(),
	}
	if s.client != nil {
		h.Breaker = s.client.BreakerState().String()
	}
	return h
}

// Close stops both channels, disconnects and waits up to CloseTimeout for
// background tasks. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		errs := []error{
			s.location.Close(),
			s.notifications.Close(),
			s.notifyConn.Disconnect(),
			s.locationConn.Disconnect(),
		}
		if err := s.runner.WaitTimeout(s.cfg.CloseTimeout); err != nil {
			s.logger.LogAttrs(context.Background(), slog.LevelWarn, "background tasks still running after close",
				logger.Duration(s.cfg.CloseTimeout),
			)
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
