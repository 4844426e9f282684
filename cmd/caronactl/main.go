// Command caronactl runs one caronakit session from the command line. It
// follows a user's notifications, optionally shares or receives location for
// a ride, and serves metrics and health over HTTP.
//
// Configuration comes from the environment (and ./.env when present):
//
//	CARONA_USER_ID     user whose notifications are followed (required)
//	CARONA_ROLE        driver, rider or none
//	CARONA_RIDE_ID     ride to share or receive location for
//	CARONA_ROUTE_FILE  YAML route replayed while sharing as driver
//	CARONA_METRICS_ADDR  address of /metrics and /healthz
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/caronakit/pkg/async"
	"github.com/dmitrymomot/caronakit/pkg/config"
	"github.com/dmitrymomot/caronakit/pkg/httpserver"
	"github.com/dmitrymomot/caronakit/pkg/location"
	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
	"github.com/dmitrymomot/caronakit/pkg/realtime"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

type appConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`
	UserID    string `env:"CARONA_USER_ID,required"`
	RideID    string `env:"CARONA_RIDE_ID"`
	Role      string `env:"CARONA_ROLE" envDefault:"none"`
	RouteFile string `env:"CARONA_ROUTE_FILE"`

	Admin   httpserver.Config
	Session realtime.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("caronactl stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "caronactl"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(realtime.UserAttr),
	)
	logger.SetAsDefault(log)

	role, err := location.ParseRole(cfg.Role)
	if err != nil {
		return err
	}
	if role != location.RoleNone && cfg.RideID == "" {
		return fmt.Errorf("CARONA_RIDE_ID is required for role %s", role)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	opts := []realtime.Option{
		realtime.WithLogger(log),
		realtime.WithMetrics(m),
	}
	if role == location.RoleDriver {
		route := location.DefaultRoute()
		if cfg.RouteFile != "" {
			if route, err = location.LoadRoute(cfg.RouteFile); err != nil {
				return err
			}
		}
		opts = append(opts, realtime.WithProvider(location.NewSimulatedProvider(route)))
	}

	session, err := realtime.New(cfg.Session, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.LogAttrs(context.Background(), slog.LevelWarn, "session close", logger.Error(err))
		}
	}()

	remove := session.OnStateChange(func(endpoint string, c stomp.StateChange) {
		attrs := []slog.Attr{logger.Endpoint(endpoint), logger.State(c.To.String())}
		if c.Err != nil {
			attrs = append(attrs, logger.Error(c.Err))
		}
		log.LogAttrs(ctx, slog.LevelInfo, "connection state", attrs...)
	})
	defer remove()

	go watchNotifications(ctx, log, session.Notifications())
	go watchErrors(ctx, log, session.Errors())

	if err := session.Start(ctx, cfg.UserID); err != nil {
		return err
	}

	switch role {
	case location.RoleDriver:
		if err := session.Location().StartDriverSharing(ctx, cfg.RideID); err != nil {
			return err
		}
	case location.RoleRider:
		err := session.Location().StartRiderReceiving(ctx, cfg.RideID, func(s location.Sample) {
			log.LogAttrs(ctx, slog.LevelInfo, "driver location",
				logger.RideID(cfg.RideID),
				slog.Float64("lat", s.Latitude),
				slog.Float64("lng", s.Longitude),
				slog.Float64("speed", s.Speed),
			)
		})
		if err != nil {
			return err
		}
	}

	srv := httpserver.NewFromConfig(cfg.Admin, httpserver.WithLogger(log))
	err = srv.Run(ctx, httpserver.NewRouter(reg, func(context.Context) (any, bool) {
		h := session.Health()
		return h, h.Healthy()
	}))
	log.LogAttrs(context.Background(), slog.LevelInfo, "shutting down")
	return err
}

func watchNotifications(ctx context.Context, log *slog.Logger, ch *notifications.Channel) {
	sub := ch.Subscribe(ctx)
	defer sub.Close()

	for msg := range sub.Receive(ctx) {
		ev := msg.Data
		switch ev.Kind {
		case notifications.EventReceived:
			n := ev.Notification
			log.LogAttrs(ctx, slog.LevelInfo, "notification",
				logger.NotificationID(n.ID),
				logger.EventType(string(n.Type)),
				slog.String("title", n.Payload.Title),
				slog.String("when", n.RelativeTime),
				slog.Int("unread", ev.Unread),
			)
		default:
			log.LogAttrs(ctx, slog.LevelDebug, "notifications changed",
				slog.String("kind", string(ev.Kind)),
				slog.Int("unread", ev.Unread),
			)
		}
	}
}

func watchErrors(ctx context.Context, log *slog.Logger, errs <-chan async.TaskError) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-errs:
			log.LogAttrs(ctx, slog.LevelWarn, "background task failed",
				slog.String("task", e.Task),
				logger.Error(e.Err),
			)
		}
	}
}
