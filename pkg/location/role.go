package location

import (
	"fmt"
	"strings"
)

// Role is the mode a Channel currently runs in.
type Role int

const (
	RoleNone Role = iota
	RoleDriver
	RoleRider
)

func (r Role) String() string {
	switch r {
	case RoleDriver:
		return "driver"
	case RoleRider:
		return "rider"
	default:
		return "none"
	}
}

// ParseRole accepts "driver", "rider", "none" and their Portuguese names.
// The empty string is RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case "driver", "motorista":
		return RoleDriver, nil
	case "rider", "passenger", "passageiro":
		return RoleRider, nil
	}
	return RoleNone, fmt.Errorf("location: unknown role %q", s)
}

// RideTopic is the topic riders subscribe to.
func RideTopic(rideID string) string {
	return "/topic/carona/" + rideID + "/location"
}

// RideDestination is where drivers publish their samples.
func RideDestination(rideID string) string {
	return "/app/carona/" + rideID + "/location"
}

// SubscriptionID is the registry id of the rider subscription for a ride.
func SubscriptionID(rideID string) string {
	return "location-" + rideID
}
