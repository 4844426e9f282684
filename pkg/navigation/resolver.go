package navigation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/caronakit/pkg/cache"
	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
)

// Resolver opens the screen a notification points to.
type Resolver struct {
	fetcher   RideFetcher
	host      Host
	presenter Presenter
	logger    *slog.Logger
	metrics   *metrics.Collectors
	now       func() time.Time

	readyTimeout    time.Duration
	fetchTimeout    time.Duration
	cacheSize       int
	cacheTTL        time.Duration
	fallbackTitle   string
	fallbackMessage string

	rides *cache.LRUCache[string, Ride]
	group singleflight.Group
}

// NewResolver creates a resolver. fetcher and presenter may be nil; without a
// fetcher every ride lookup falls back.
func NewResolver(fetcher RideFetcher, host Host, presenter Presenter, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:         fetcher,
		host:            host,
		presenter:       presenter,
		logger:          slog.Default(),
		now:             time.Now,
		readyTimeout:    DefaultReadyTimeout,
		fetchTimeout:    DefaultFetchTimeout,
		cacheSize:       DefaultCacheSize,
		cacheTTL:        DefaultCacheTTL,
		fallbackTitle:   DefaultFallbackTitle,
		fallbackMessage: "Não foi possível abrir a carona automaticamente. Abra a tela de caronas para continuar.",
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("navigation"))
	if r.cacheSize > 0 {
		r.rides = cache.NewLRUCache(r.cacheSize,
			cache.WithTTL[string, Ride](r.cacheTTL),
			cache.WithClock[string, Ride](r.now),
		)
	}
	return r
}

// Open resolves n and navigates the host there. A ride match request without
// a ride id is completed by looking the ride up first. If the lookup fails,
// the host is not ready within the ready timeout, or navigation itself
// fails, the fallback message is shown, no target is returned and the error
// wraps ErrFallbackShown together with the cause.
func (r *Resolver) Open(ctx context.Context, n notifications.Notification) (Target, error) {
	target, err := Resolve(n)
	if errors.Is(err, ErrMissingRideID) {
		ride, ferr := r.lookup(ctx, n)
		if ferr != nil {
			return Target{}, r.fallback(ctx, n, errors.Join(err, ferr))
		}
		target = rideTarget(ScreenRideManagement, ride.ID)
		r.metrics.IncNavigation(metrics.NavigationFetched)
	}

	if err := r.waitReady(ctx); err != nil {
		return Target{}, r.fallback(ctx, n, err)
	}
	if err := r.host.Navigate(ctx, target); err != nil {
		return Target{}, r.fallback(ctx, n, err)
	}

	r.metrics.IncNavigation(metrics.NavigationOpened)
	r.logger.LogAttrs(ctx, slog.LevelDebug, "navigated",
		logger.NotificationID(n.ID),
		slog.String("target", target.String()),
	)
	return target, nil
}

// Forget drops a cached ride, e.g. after the ride was cancelled.
func (r *Resolver) Forget(ref string) {
	if r.rides != nil {
		r.rides.Remove(ref)
	}
}

// reference returns the first usable lookup key: the payload request id,
// then the notification id.
func reference(n notifications.Notification) string {
	if n.Payload.RequestID != "" {
		return n.Payload.RequestID
	}
	return n.ID
}

func (r *Resolver) lookup(ctx context.Context, n notifications.Notification) (Ride, error) {
	ref := reference(n)
	if ref == "" {
		return Ride{}, ErrNoReference
	}
	if r.fetcher == nil {
		return Ride{}, ErrRideNotFound
	}
	if r.rides != nil {
		if ride, ok := r.rides.Get(ref); ok {
			return ride, nil
		}
	}

	ch := r.group.DoChan(ref, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
		defer cancel()

		ride, err := r.fetcher.FetchRide(fetchCtx, ref)
		if err != nil {
			return Ride{}, err
		}
		if ride.ID == "" {
			return Ride{}, ErrRideNotFound
		}
		if r.rides != nil {
			r.rides.Put(ref, ride)
		}
		return ride, nil
	})

	select {
	case <-ctx.Done():
		return Ride{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Ride{}, res.Err
		}
		return res.Val.(Ride), nil
	}
}

func (r *Resolver) waitReady(ctx context.Context) error {
	if r.host == nil {
		return ErrHostNotReady
	}
	ready := r.host.Ready()
	select {
	case <-ready:
		return nil
	default:
	}

	t := time.NewTimer(r.readyTimeout)
	defer t.Stop()
	select {
	case <-ready:
		return nil
	case <-t.C:
		return ErrHostNotReady
	case <-ctx.Done():
		return errors.Join(ErrHostNotReady, ctx.Err())
	}
}

func (r *Resolver) fallback(ctx context.Context, n notifications.Notification, cause error) error {
	r.metrics.IncNavigation(metrics.NavigationFallback)
	r.logger.LogAttrs(ctx, slog.LevelWarn, "navigation fell back to manual message",
		logger.NotificationID(n.ID),
		logger.EventType(string(n.Type)),
		logger.Error(cause),
	)
	if r.presenter != nil {
		r.presenter.ShowMessage(ctx, r.fallbackTitle, r.fallbackMessage)
	}
	return errors.Join(ErrFallbackShown, cause)
}
