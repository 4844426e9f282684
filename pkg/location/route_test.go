package location_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/caronakit/pkg/location"
)

const routeYAML = `
name: campus
interval: 10ms
loop: false
points:
  - {lat: -22.0087, lng: -47.8909, accuracy: 5}
  - {lat: -22.0120, lng: -47.8895}
  - {lat: -22.0121, lng: -47.8895}
  - {lat: -22.0150, lng: -47.8880}
`

func TestReadRoute(t *testing.T) {
	t.Parallel()

	route, err := location.ReadRoute(strings.NewReader(routeYAML))
	require.NoError(t, err)
	assert.Equal(t, "campus", route.Name)
	assert.Equal(t, 10*time.Millisecond, route.Interval)
	assert.False(t, route.Loop)
	require.Len(t, route.Points, 4)
	assert.InDelta(t, 5, route.Points[0].Accuracy, 1e-9)

	_, err = location.ReadRoute(strings.NewReader("name: empty\n"))
	assert.ErrorIs(t, err, location.ErrEmptyRoute)

	_, err = location.ReadRoute(strings.NewReader("points: [oops"))
	assert.Error(t, err)
}

func TestLoadRoute(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "route.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routeYAML), 0o600))

	route, err := location.LoadRoute(path)
	require.NoError(t, err)
	assert.Len(t, route.Points, 4)

	_, err = location.LoadRoute(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultRoute(t *testing.T) {
	t.Parallel()

	route := location.DefaultRoute()
	assert.True(t, route.Loop)
	for _, wp := range route.Points {
		s := location.Sample{Latitude: wp.Latitude, Longitude: wp.Longitude, Accuracy: wp.Accuracy}
		assert.NoError(t, s.Validate())
	}
}

func TestSimulatedProvider(t *testing.T) {
	t.Parallel()

	route, err := location.ReadRoute(strings.NewReader(routeYAML))
	require.NoError(t, err)
	p := location.NewSimulatedProvider(route)

	granted, err := p.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	var (
		mu  sync.Mutex
		got []location.Sample
	)
	opts := location.WatchOptions{DistanceFilter: 50}
	stop, err := p.Watch(context.Background(), opts, func(s location.Sample) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	require.NoError(t, err)

	// the third point is ~11m from the second and is filtered out
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	stop()
	stop()
	assert.Equal(t, 1, p.Watches())
	assert.Equal(t, 1, p.Stops())

	mu.Lock()
	defer mu.Unlock()
	assert.InDelta(t, -22.0150, got[2].Latitude, 1e-9)
	assert.Greater(t, got[1].Bearing, 90.0)
	assert.Less(t, got[1].Bearing, 270.0)
	for _, s := range got {
		assert.NoError(t, s.Validate())
	}
}

func TestSimulatedProvider_PermissionDenied(t *testing.T) {
	t.Parallel()

	p := location.NewSimulatedProvider(location.DefaultRoute(), location.WithPermissionDenied())
	ch := location.NewChannel(newFakeConn(true), p)
	t.Cleanup(func() { _ = ch.Close() })

	err := ch.StartDriverSharing(context.Background(), "r1")
	require.ErrorIs(t, err, location.ErrPermissionDenied)
	assert.Zero(t, p.Watches())
}

func TestSimulatedProvider_DrivesChannel(t *testing.T) {
	t.Parallel()

	route := location.DefaultRoute()
	route.Interval = 5 * time.Millisecond
	p := location.NewSimulatedProvider(route)
	conn := newFakeConn(true)
	ch := location.NewChannel(conn, p, location.WithWatchOptions(location.WatchOptions{HighAccuracy: true}))

	require.NoError(t, ch.StartDriverSharing(context.Background(), "r7"))
	require.Eventually(t, func() bool { return conn.publishedCount() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Close())
	assert.Equal(t, 1, p.Stops())
}
