// Package logger builds *slog.Logger instances for caronakit components and
// provides attribute helpers that keep key names consistent across the
// connection manager, the notification and location channels, and the
// navigation resolver.
//
// New assembles a text or JSON handler, attaches static attributes, and wraps
// the result with LogHandlerDecorator so that ContextExtractor callbacks can
// inject request- or session-scoped values on every record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "caronactl"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "dropping publish while disconnected",
//	    logger.Destination("/app/carona/42/location"),
//	    logger.State("reconnecting"),
//	)
//
// Helpers such as Error, UserID and RideID return an empty slog.Attr for nil
// or empty input, so they can be passed unconditionally.
package logger
