// Package httpserver runs the small operational HTTP endpoint of a caronakit
// process: Prometheus metrics, liveness and a JSON health report.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	handler := httpserver.NewRouter(prometheus.DefaultGatherer, func(ctx context.Context) (any, bool) {
//		h := session.Health()
//		return h, h.Healthy()
//	})
//	if err := srv.Run(ctx, handler); err != nil {
//		return err
//	}
//
// Run blocks until ctx is cancelled or Shutdown is called, then shuts the
// server down gracefully within the configured timeout. Listen failures wrap
// ErrStart and shutdown failures wrap ErrShutdown.
package httpserver
