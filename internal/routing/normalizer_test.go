package routing

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripxl/service-booking/internal/domain/route"
)

func twoStops() RequestContext {
	return RequestContext{
		Stops:   []route.Waypoint{{Location: route.GeoPoint{Lat: 25.20, Lng: 55.27}}, {Location: route.GeoPoint{Lat: 25.21, Lng: 55.28}}},
		Options: route.Options{Mode: route.ModeDrive},
	}
}

func TestNormalize_SwapsLngLat(t *testing.T) {
	raw := &RawRoute{
		Provider:    "test",
		Coordinates: [][]float64{{55.27, 25.20}, {55.28, 25.21}},
		Order:       LngLat,
		Legs:        []RawLeg{{DistanceMeters: 10, TimeSeconds: 2}},
	}

	r, err := Normalize(raw, twoStops())
	require.NoError(t, err)
	assert.Equal(t, route.GeoPoint{Lat: 25.20, Lng: 55.27}, r.Path[0])
	assert.Equal(t, route.GeoPoint{Lat: 25.21, Lng: 55.28}, r.Path[1])
}

func TestNormalize_KeepsLatLng(t *testing.T) {
	raw := &RawRoute{
		Coordinates: [][]float64{{25.20, 55.27}, {25.21, 55.28}},
		Order:       LatLng,
		Legs:        []RawLeg{{DistanceMeters: 10, TimeSeconds: 2}},
	}

	r, err := Normalize(raw, twoStops())
	require.NoError(t, err)
	assert.Equal(t, route.GeoPoint{Lat: 25.20, Lng: 55.27}, r.Path[0])
}

func TestNormalize_RecomputesTotalsFromLegs(t *testing.T) {
	base := twoStops()
	rc := RequestContext{
		Stops:   []route.Waypoint{base.Stops[0], {Location: route.GeoPoint{Lat: 25.205, Lng: 55.275}}, base.Stops[1]},
		Options: base.Options,
	}

	raw := &RawRoute{
		Coordinates:    [][]float64{{55.27, 25.20}, {55.275, 25.205}, {55.28, 25.21}},
		Order:          LngLat,
		Legs:           []RawLeg{{DistanceMeters: 100, TimeSeconds: 10}, {DistanceMeters: 250, TimeSeconds: 30}},
		DistanceMeters: 999,
		TimeSeconds:    999,
	}

	r, err := Normalize(raw, rc)
	require.NoError(t, err)
	assert.Equal(t, 350.0, r.TotalDistanceMeters)
	assert.Equal(t, 40.0, r.TotalTimeSeconds)
	assert.Equal(t, rc.Stops[1].Location, r.Legs[0].EndPoint)
	assert.Equal(t, rc.Stops[1].Location, r.Legs[1].StartPoint)
	for _, leg := range r.Legs {
		assert.NotNil(t, leg.Steps)
	}
}

func TestNormalize_SingleLegFromAggregates(t *testing.T) {
	raw := &RawRoute{
		Coordinates:    [][]float64{{55.27, 25.20}, {55.28, 25.21}},
		Order:          LngLat,
		DistanceMeters: 1500,
		TimeSeconds:    120,
	}

	r, err := Normalize(raw, twoStops())
	require.NoError(t, err)
	require.Len(t, r.Legs, 1)
	assert.Equal(t, 1500.0, r.TotalDistanceMeters)
	assert.Equal(t, 120.0, r.TotalTimeSeconds)
}

func TestNormalize_Rejects(t *testing.T) {
	cases := map[string]*RawRoute{
		"too few coordinates": {Coordinates: [][]float64{{55.27, 25.20}}, Order: LngLat, Legs: []RawLeg{{}}},
		"short pair":          {Coordinates: [][]float64{{55.27}, {55.28, 25.21}}, Order: LngLat, Legs: []RawLeg{{}}},
		"latitude range":      {Coordinates: [][]float64{{25.20, 155.27}, {25.21, 55.28}}, Order: LngLat, Legs: []RawLeg{{}}},
		"leg count":           {Coordinates: [][]float64{{55.27, 25.20}, {55.28, 25.21}}, Order: LngLat, Legs: []RawLeg{{}, {}}},
		"negative distance":   {Coordinates: [][]float64{{55.27, 25.20}, {55.28, 25.21}}, Order: LngLat, Legs: []RawLeg{{DistanceMeters: -1}}},
		"NaN time":            {Coordinates: [][]float64{{55.27, 25.20}, {55.28, 25.21}}, Order: LngLat, Legs: []RawLeg{{TimeSeconds: math.NaN()}}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw, twoStops())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}

	_, err := Normalize("not a route", twoStops())
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	var nilRaw *RawRoute
	_, err = Normalize(nilRaw, twoStops())
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestNormalize_WaypointOrder(t *testing.T) {
	stops := []route.Waypoint{dubai, sharjah, ajman, abuDhabi}
	coords := [][]float64{{55.27, 25.20}, {54.37, 24.45}}
	legs := []RawLeg{{}, {}, {}}

	r, err := Normalize(&RawRoute{Coordinates: coords, Order: LngLat, Legs: legs, WaypointOrder: []int{0, 1}}, RequestContext{Stops: stops})
	require.NoError(t, err)
	assert.Nil(t, r.WaypointOrder, "identity order is not reported")
	assert.Equal(t, sharjah.Location, r.Legs[0].EndPoint)

	_, err = Normalize(&RawRoute{Coordinates: coords, Order: LngLat, Legs: legs, WaypointOrder: []int{1, 1}}, RequestContext{Stops: stops})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestNormalize_FallbackRoute(t *testing.T) {
	stops := []route.Waypoint{dubai, sharjah, abuDhabi}
	fb := Fallback(stops, route.ModeWalk)
	fb.TotalDistanceMeters = 1

	r, err := Normalize(fb, RequestContext{Stops: stops})
	require.NoError(t, err)

	assert.Equal(t, route.SourceFallback, r.Source)
	assert.InDelta(t, r.Legs[0].DistanceMeters+r.Legs[1].DistanceMeters, r.TotalDistanceMeters, 1e-9)
	assert.Equal(t, route.EstimateTime(r.Legs[0].DistanceMeters, route.ModeWalk), r.Legs[0].TimeSeconds)
	assert.NotSame(t, fb, r)

	_, err = Normalize(fb, RequestContext{Stops: stops[:2]})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestFallback_SameOriginAndDestination(t *testing.T) {
	r := Fallback([]route.Waypoint{dubai, dubai}, route.ModeDrive)

	require.Len(t, r.Legs, 1)
	assert.Len(t, r.Path, 2)
	assert.Equal(t, 0.0, r.TotalDistanceMeters)
	assert.Equal(t, 0.0, r.TotalTimeSeconds)
}

func TestCacheKey(t *testing.T) {
	rc := RequestContext{Stops: []route.Waypoint{dubai, abuDhabi}, Options: route.Options{Mode: route.ModeDrive}}
	named := rc
	named.Stops = []route.Waypoint{{Location: dubai.Location, Name: "Home"}, abuDhabi}

	assert.Equal(t, cacheKey("osrm", rc), cacheKey("osrm", named), "names do not affect the key")
	assert.NotEqual(t, cacheKey("osrm", rc), cacheKey("google", rc))

	traffic := rc
	traffic.Options.Traffic = true
	assert.NotEqual(t, cacheKey("osrm", rc), cacheKey("osrm", traffic))

	reversed := rc
	reversed.Stops = []route.Waypoint{abuDhabi, dubai}
	assert.NotEqual(t, cacheKey("osrm", rc), cacheKey("osrm", reversed))
}
