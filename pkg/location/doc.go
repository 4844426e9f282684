// Package location streams live GPS samples for a ride over the real-time
// connection.
//
// A Channel runs in exactly one role at a time. As a driver it watches the
// device Provider and publishes every sample to the ride's destination; as a
// rider it subscribes to the ride's topic and forwards each received sample:
//
//	ch := location.NewChannel(mgr, provider, location.WithLogger(log))
//	defer ch.Close()
//
//	if err := ch.StartDriverSharing(ctx, rideID); errors.Is(err, location.ErrPermissionDenied) {
//		// tell the user location sharing is unavailable
//	}
//
//	// later, on another screen
//	err := ch.StartRiderReceiving(ctx, rideID, func(s location.Sample) {
//		fmt.Println(s.Latitude, s.Longitude)
//	})
//
// Starting a role fully tears down the previous one first: the device watch is
// stopped and the publisher drained before the rider subscription is made, and
// vice versa. Samples are never queued while the connection is down.
package location
