// Package navigation decides which screen a notification opens.
//
// Resolve is a pure mapping from notification type to Target. Resolver.Open
// adds the side effects: when a ride match request arrives without a ride id
// it looks the ride up through a RideFetcher, waits for the host UI to signal
// readiness, and then navigates. Whenever navigation cannot happen the user
// gets an "open manually" message through the Presenter instead.
//
//	r := navigation.NewResolver(apiClient, host, presenter,
//		navigation.WithLogger(log),
//	)
//	target, err := r.Open(ctx, n)
//	if errors.Is(err, navigation.ErrFallbackShown) {
//		// the user was told to open the ride by hand
//	}
package navigation
