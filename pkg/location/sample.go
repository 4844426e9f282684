package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/wire"
)

// Sample is one position fix. Accuracy is in meters, Speed in m/s and
// Bearing in degrees from north.
type Sample struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Speed     float64
	Bearing   float64
	Timestamp time.Time
}

type wireSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	Bearing   float64 `json:"bearing"`
	Timestamp int64   `json:"timestamp"`
}

// MarshalJSON encodes the wire schema with the timestamp in epoch milliseconds.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSample{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Accuracy:  s.Accuracy,
		Speed:     s.Speed,
		Bearing:   s.Bearing,
		Timestamp: s.Timestamp.UnixMilli(),
	})
}

// UnmarshalJSON accepts the same shapes as ParseSample, without salvage.
func (s *Sample) UnmarshalJSON(data []byte) error {
	obj, salvaged, err := wire.DecodeObject(data)
	if err != nil || salvaged {
		return errors.Join(ErrMalformedSample, err)
	}
	parsed, err := fromObject(obj, time.Now())
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Validate rejects non-finite values, out-of-range coordinates and negative
// accuracy.
func (s Sample) Validate() error {
	for name, v := range map[string]float64{
		"latitude": s.Latitude, "longitude": s.Longitude,
		"accuracy": s.Accuracy, "speed": s.Speed, "bearing": s.Bearing,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSample, name)
		}
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidSample, s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidSample, s.Longitude)
	}
	if s.Accuracy < 0 {
		return fmt.Errorf("%w: negative accuracy", ErrInvalidSample)
	}
	return nil
}

var (
	latPaths      = []string{"latitude", "lat", "coords.latitude", "location.latitude", "localizacao.latitude"}
	lngPaths      = []string{"longitude", "lng", "lon", "coords.longitude", "location.longitude", "localizacao.longitude"}
	accuracyPaths = []string{"accuracy", "precisao", "coords.accuracy"}
	speedPaths    = []string{"speed", "velocidade", "coords.speed"}
	bearingPaths  = []string{"bearing", "heading", "direcao", "coords.heading"}
	timePaths     = []string{"timestamp", "time", "dataHora"}
)

// ParseSample decodes one inbound message, tolerating noise around the JSON
// object. A missing timestamp is set to now.
func ParseSample(raw []byte, now time.Time) (s Sample, salvaged bool, err error) {
	obj, salvaged, err := wire.DecodeObject(raw)
	if err != nil {
		return Sample{}, false, errors.Join(ErrMalformedSample, err)
	}
	s, err = fromObject(obj, now)
	return s, salvaged, err
}

func fromObject(obj wire.Object, now time.Time) (Sample, error) {
	lat, okLat := wire.Float(obj, latPaths...)
	lng, okLng := wire.Float(obj, lngPaths...)
	if !okLat || !okLng {
		return Sample{}, fmt.Errorf("%w: missing coordinates", ErrMalformedSample)
	}
	s := Sample{Latitude: lat, Longitude: lng}
	s.Accuracy, _ = wire.Float(obj, accuracyPaths...)
	s.Speed, _ = wire.Float(obj, speedPaths...)
	s.Bearing, _ = wire.Float(obj, bearingPaths...)

	if ts, ok := wire.TimeAt(obj, now.Location(), timePaths...); ok {
		s.Timestamp = ts
	} else {
		s.Timestamp = now
	}
	return s, nil
}

const earthRadius = 6371000.0

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Sample) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := lat2 - lat1
	dLng := radians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Bearing returns the initial heading from a to b in degrees [0, 360).
func Bearing(a, b Sample) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLng := radians(b.Longitude - a.Longitude)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
