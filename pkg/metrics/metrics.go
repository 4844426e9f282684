package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carona"

// Collectors groups every caronakit metric.
type Collectors struct {
	connectionState  *prometheus.GaugeVec
	reconnects       *prometheus.CounterVec
	framesReceived   *prometheus.CounterVec
	published        *prometheus.CounterVec
	publishDropped   *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	discarded        *prometheus.CounterVec
	salvaged         *prometheus.CounterVec
	locationSamples  *prometheus.CounterVec
	taskFailures     *prometheus.CounterVec
	navigationResult *prometheus.CounterVec
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	circuitOpen      prometheus.Gauge
	unread           prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collectors{
		connectionState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "connection", Name: "state",
			Help: "1 for the current connection state of each endpoint, 0 otherwise",
		}, []string{"endpoint", "state"}),
		reconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "reconnects_total",
			Help: "Connection losses that triggered the reconnect loop",
		}, []string{"endpoint"}),
		framesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "frames_received_total",
			Help: "Inbound STOMP frames by command",
		}, []string{"endpoint", "command"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "published_total",
			Help: "SEND frames written to the socket",
		}, []string{"endpoint"}),
		publishDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "publish_dropped_total",
			Help: "Publish calls dropped because the connection was not established",
		}, []string{"endpoint"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "notifications", Name: "received_total",
			Help: "Notifications accepted from the live connection by type",
		}, []string{"type"}),
		discarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_discarded_total",
			Help: "Inbound messages discarded as unparsable",
		}, []string{"channel"}),
		salvaged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_salvaged_total",
			Help: "Inbound messages recovered by extracting the embedded JSON object",
		}, []string{"channel"}),
		locationSamples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "location", Name: "samples_total",
			Help: "Location samples by outcome",
		}, []string{"outcome"}),
		taskFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "background_task_failures_total",
			Help: "Failed fire-and-forget backend calls",
		}, []string{"task"}),
		navigationResult: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "navigation", Name: "results_total",
			Help: "Deep-link navigation attempts by result",
		}, []string{"result"}),
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "api", Name: "requests_total",
			Help: "REST calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		apiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
			Help:    "REST call latency including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		circuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "api", Name: "circuit_open",
			Help: "1 while the REST circuit breaker rejects calls",
		}),
		unread: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "notifications", Name: "unread",
			Help: "Current local unread notification count",
		}),
	}
}

// SetConnectionState marks state as the current one for endpoint.
func (c *Collectors) SetConnectionState(endpoint, state string, all []string) {
	if c == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		c.connectionState.WithLabelValues(endpoint, s).Set(v)
	}
}

func (c *Collectors) IncReconnect(endpoint string) {
	if c == nil {
		return
	}
	c.reconnects.WithLabelValues(endpoint).Inc()
}

func (c *Collectors) IncFrame(endpoint, command string) {
	if c == nil {
		return
	}
	c.framesReceived.WithLabelValues(endpoint, command).Inc()
}

func (c *Collectors) IncPublished(endpoint string) {
	if c == nil {
		return
	}
	c.published.WithLabelValues(endpoint).Inc()
}

func (c *Collectors) IncPublishDropped(endpoint string) {
	if c == nil {
		return
	}
	c.publishDropped.WithLabelValues(endpoint).Inc()
}

func (c *Collectors) IncNotification(kind string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(kind).Inc()
}

func (c *Collectors) IncDiscarded(channel string) {
	if c == nil {
		return
	}
	c.discarded.WithLabelValues(channel).Inc()
}

func (c *Collectors) IncSalvaged(channel string) {
	if c == nil {
		return
	}
	c.salvaged.WithLabelValues(channel).Inc()
}

// Location sample outcomes.
const (
	SamplePublished = "published"
	SampleReceived  = "received"
	SampleDropped   = "dropped"
	SampleInvalid   = "invalid"
)

func (c *Collectors) IncLocationSample(outcome string) {
	if c == nil {
		return
	}
	c.locationSamples.WithLabelValues(outcome).Inc()
}

func (c *Collectors) IncTaskFailure(task string) {
	if c == nil {
		return
	}
	c.taskFailures.WithLabelValues(task).Inc()
}

// Navigation results.
const (
	NavigationOpened   = "opened"
	NavigationFetched  = "fetched"
	NavigationFallback = "fallback"
)

func (c *Collectors) IncNavigation(result string) {
	if c == nil {
		return
	}
	c.navigationResult.WithLabelValues(result).Inc()
}

// API call outcomes.
const (
	APISuccess  = "success"
	APIFailure  = "failure"
	APIRejected = "rejected"
)

// ObserveAPI records one REST call.
func (c *Collectors) ObserveAPI(operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(operation, outcome).Inc()
	c.apiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collectors) SetCircuitOpen(open bool) {
	if c == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	c.circuitOpen.Set(v)
}

func (c *Collectors) SetUnread(n int) {
	if c == nil {
		return
	}
	c.unread.Set(float64(n))
}

// UnreadGauge exposes the unread gauge for assertions.
func (c *Collectors) UnreadGauge() prometheus.Gauge {
	return c.unread
}
