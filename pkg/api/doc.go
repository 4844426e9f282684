// Package api is the REST client for the carona backend. It serves the
// notification history, acknowledgements and unread count used by
// notifications.Channel, and the ride lookups used by navigation.Resolver.
//
//	client, err := api.New(cfg.API, api.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	count, err := client.UnreadCount(ctx, userID)
//
// Calls are idempotent and retried with exponential backoff on network
// errors, 5xx and 408/425/429 responses. A circuit breaker stops calling a
// backend that keeps failing and returns ErrCircuitOpen until the recovery
// timeout elapses.
package api
