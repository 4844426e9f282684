package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/caronakit/pkg/navigation"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	withRide := notifications.Payload{RideID: "r1"}

	tests := []struct {
		name    string
		typ     notifications.Type
		payload notifications.Payload
		screen  navigation.Screen
		rideID  string
		wantErr error
	}{
		{"match request", notifications.TypeRideMatchRequest, withRide, navigation.ScreenRideManagement, "r1", nil},
		{"match request without ride", notifications.TypeRideMatchRequest, notifications.Payload{}, navigation.ScreenRideManagement, "", navigation.ErrMissingRideID},
		{"accepted", notifications.TypeRideRequestAccepted, withRide, navigation.ScreenRides, "r1", nil},
		{"rejected without ride", notifications.TypeRideRequestRejected, notifications.Payload{}, navigation.ScreenRides, "", nil},
		{"cancelled", notifications.TypeRideCancelled, withRide, navigation.ScreenRides, "r1", nil},
		{"started", notifications.TypeRideStarted, withRide, navigation.ScreenRides, "r1", nil},
		{"reminder", notifications.TypeRideReminder, withRide, navigation.ScreenRides, "r1", nil},
		{"system", notifications.TypeSystem, withRide, navigation.ScreenNotifications, "", nil},
		{"unknown", notifications.TypeUnknown, notifications.Payload{}, navigation.ScreenNotifications, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			target, err := navigation.Resolve(notifications.Notification{ID: "n1", Type: tt.typ, Payload: tt.payload})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.screen, target.Screen)
			assert.Equal(t, tt.rideID, target.RideID())
		})
	}
}

func TestResolve_CoversEveryType(t *testing.T) {
	t.Parallel()

	for _, typ := range notifications.Types() {
		target, _ := navigation.Resolve(notifications.Notification{Type: typ, Payload: notifications.Payload{RideID: "r"}})
		assert.NotEmpty(t, target.Screen, typ)
	}
}

func TestTarget_String(t *testing.T) {
	t.Parallel()

	target, err := navigation.Resolve(notifications.Notification{Type: notifications.TypeRideStarted, Payload: notifications.Payload{RideID: "r1"}})
	require.NoError(t, err)
	assert.Equal(t, "rides(r1)", target.String())
	assert.Equal(t, "notifications", navigation.Target{Screen: navigation.ScreenNotifications}.String())
}
