package navigation

import (
	"context"
	"time"
)

// Ride is the part of a ride record navigation needs.
type Ride struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origem,omitempty"`
	Destination   string    `json:"destino,omitempty"`
	DepartureTime time.Time `json:"dataHoraSaida,omitzero"`
	DriverName    string    `json:"motoristaNome,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// RideFetcher looks a ride up by a reference: a ride id, a ride request id
// or a notification id. Implementations return ErrRideNotFound when nothing
// matches.
type RideFetcher interface {
	FetchRide(ctx context.Context, ref string) (Ride, error)
}

// Host is the UI that performs navigation.
type Host interface {
	// Ready is closed once the host can navigate.
	Ready() <-chan struct{}
	Navigate(ctx context.Context, t Target) error
}

// Presenter shows a message to the user.
type Presenter interface {
	ShowMessage(ctx context.Context, title, message string)
}
