// Package caronakit is the real-time core of a ride-sharing client.
//
// It keeps STOMP-over-WebSocket connections to the ride backend alive, turns
// pushed messages into notifications with an unread counter, shares or
// receives live location for one ride at a time, and maps notifications to
// the screen they should open.
//
// The work lives in sub-packages:
//
//	pkg/stomp          connection manager with reconnect and resubscribe
//	pkg/notifications  notification list, unread counter and history paging
//	pkg/location       driver sharing and rider receiving of location samples
//	pkg/navigation     notification to screen resolution and ride lookup
//	pkg/api            REST client with retries and a circuit breaker
//	pkg/realtime       session wiring everything above together
//
// Shared infrastructure: pkg/logger, pkg/config, pkg/metrics, pkg/async,
// pkg/broadcast, pkg/cache, pkg/statemachine, pkg/wire and pkg/httpserver.
//
// cmd/caronactl runs a session from the command line.
package caronakit
