// Package async provides generic helpers for running work in the background.
//
// Future represents the eventual result of a computation started with Async.
// Callers wait with Await or AwaitWithTimeout, poll with IsComplete, or select
// on Done.
//
//	f := async.Async(ctx, rideID, func(ctx context.Context, id string) (Ride, error) {
//	    return client.FetchRide(ctx, id)
//	})
//	ride, err := f.Await()
//
// Runner is used for fire-and-forget side effects such as acknowledging a
// notification on the backend from inside a message handler. The handler
// does not wait; failures are logged and published on Runner.Errors so tests
// and supervisors can observe them. Runner.Wait blocks until outstanding
// tasks finish.
//
//	runner := async.NewRunner(async.WithRunnerLogger(log))
//	runner.Go(ctx, "mark_read", func(ctx context.Context) error {
//	    return backend.MarkRead(ctx, userID, id)
//	})
package async
