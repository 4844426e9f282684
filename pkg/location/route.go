package location

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Waypoint is one point of a simulated route.
type Waypoint struct {
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
	Accuracy  float64 `yaml:"accuracy,omitempty"`
}

// Route is a replayable sequence of waypoints.
//
//	name: campus-centro
//	interval: 2s
//	loop: true
//	points:
//	  - {lat: -22.0087, lng: -47.8909}
//	  - {lat: -22.0120, lng: -47.8895}
type Route struct {
	Name     string        `yaml:"name"`
	Interval time.Duration `yaml:"interval"`
	Loop     bool          `yaml:"loop"`
	Points   []Waypoint    `yaml:"points"`
}

// ReadRoute decodes a YAML route.
func ReadRoute(r io.Reader) (Route, error) {
	var route Route
	if err := yaml.NewDecoder(r).Decode(&route); err != nil {
		return Route{}, fmt.Errorf("decode route: %w", err)
	}
	if len(route.Points) == 0 {
		return Route{}, ErrEmptyRoute
	}
	return route, nil
}

// LoadRoute reads a YAML route file.
func LoadRoute(path string) (Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return Route{}, fmt.Errorf("open route: %w", err)
	}
	defer f.Close()
	return ReadRoute(f)
}

// DefaultRoute is a short loop used when no route file is configured.
func DefaultRoute() Route {
	return Route{
		Name:     "default",
		Interval: 2 * time.Second,
		Loop:     true,
		Points: []Waypoint{
			{Latitude: -22.00870, Longitude: -47.89090, Accuracy: 5},
			{Latitude: -22.00955, Longitude: -47.89040, Accuracy: 5},
			{Latitude: -22.01050, Longitude: -47.88990, Accuracy: 6},
			{Latitude: -22.01140, Longitude: -47.88950, Accuracy: 5},
			{Latitude: -22.01200, Longitude: -47.88895, Accuracy: 4},
		},
	}
}
