// Package metrics defines the Prometheus collectors shared by caronakit
// components.
//
// Components accept a *Collectors through a WithMetrics option. Every method
// is safe to call on a nil receiver, so metrics stay optional:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	mgr := stomp.NewManager(cfg, stomp.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
