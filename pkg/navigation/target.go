package navigation

import (
	"fmt"

	"github.com/dmitrymomot/caronakit/pkg/notifications"
)

// Screen names a destination in the host application.
type Screen string

const (
	ScreenRideManagement Screen = "ride_management"
	ScreenRides          Screen = "rides"
	ScreenNotifications  Screen = "notifications"
)

// ParamRideID is the Target parameter carrying the ride id.
const ParamRideID = "rideId"

// Target is a screen plus its parameters.
type Target struct {
	Screen Screen
	Params map[string]string
}

// RideID returns the ride parameter, or "".
func (t Target) RideID() string {
	return t.Params[ParamRideID]
}

func (t Target) String() string {
	if id := t.RideID(); id != "" {
		return fmt.Sprintf("%s(%s)", t.Screen, id)
	}
	return string(t.Screen)
}

func rideTarget(screen Screen, rideID string) Target {
	t := Target{Screen: screen}
	if rideID != "" {
		t.Params = map[string]string{ParamRideID: rideID}
	}
	return t
}

// Resolve maps n to the screen it should open. A ride match request without
// a ride id returns ErrMissingRideID together with the ride management
// screen, so callers can fill the id in after a lookup.
func Resolve(n notifications.Notification) (Target, error) {
	rideID := n.Payload.RideID

	switch n.Type {
	case notifications.TypeRideMatchRequest:
		if rideID == "" {
			return Target{Screen: ScreenRideManagement}, ErrMissingRideID
		}
		return rideTarget(ScreenRideManagement, rideID), nil
	case notifications.TypeRideRequestAccepted,
		notifications.TypeRideRequestRejected,
		notifications.TypeRideCancelled,
		notifications.TypeRideStarted,
		notifications.TypeRideReminder:
		return rideTarget(ScreenRides, rideID), nil
	case notifications.TypeSystem, notifications.TypeUnknown:
		return Target{Screen: ScreenNotifications}, nil
	default:
		return Target{Screen: ScreenNotifications}, nil
	}
}
