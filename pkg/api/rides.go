package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/navigation"
	"github.com/dmitrymomot/caronakit/pkg/wire"
)

var _ navigation.RideFetcher = (*Client)(nil)

// FetchRide resolves ref to a ride. ref is tried as a ride id first and,
// on 404, as a ride request id whose ride is then returned.
func (c *Client) FetchRide(ctx context.Context, ref string) (navigation.Ride, error) {
	if ref == "" {
		return navigation.Ride{}, fmt.Errorf("%w: ride reference", ErrEmptyArgument)
	}

	body, err := c.do(ctx, "fetch_ride", http.MethodGet, "/carona/"+url.PathEscape(ref), nil)
	if err == nil {
		return decodeRide(body, "id", "caronaId")
	}
	if StatusCode(err) != http.StatusNotFound {
		return navigation.Ride{}, err
	}

	body, err = c.do(ctx, "fetch_ride_request", http.MethodGet, "/solicitacoes/"+url.PathEscape(ref), nil)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return navigation.Ride{}, errors.Join(navigation.ErrRideNotFound, err)
		}
		return navigation.Ride{}, err
	}
	return decodeRide(body, "caronaId", "carona.id", "rideId")
}

func decodeRide(body []byte, idPaths ...string) (navigation.Ride, error) {
	obj, _, err := wire.DecodeObject(body)
	if err != nil {
		return navigation.Ride{}, errors.Join(ErrDecode, err)
	}

	// request bodies nest the ride record under "carona"
	rec := obj
	if nested, ok := obj.Get("carona"); ok {
		if o, ok := wire.AsObject(nested); ok {
			rec = o
		}
	}

	id, ok := wire.Lookup(obj, idPaths...)
	if !ok {
		return navigation.Ride{}, navigation.ErrRideNotFound
	}
	ride := navigation.Ride{ID: id}
	ride.Origin, _ = wire.Lookup(rec, "origem", "origin", "pontoPartida")
	ride.Destination, _ = wire.Lookup(rec, "destino", "destination")
	ride.DriverName, _ = wire.Lookup(rec, "motorista.nome", "motoristaNome", "driverName")
	ride.Status, _ = wire.Lookup(rec, "status")
	ride.DepartureTime, _ = wire.TimeAt(rec, time.Local, "dataHoraSaida", "dataHoraPartida", "departureTime", "horario")
	return ride, nil
}
