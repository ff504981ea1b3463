package route

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripxl/service-booking/internal/platform/domain"
)

func TestOptions_Normalized(t *testing.T) {
	opts, err := Options{Avoid: []Avoid{AvoidToll, AvoidFerry, AvoidToll}}.Normalized()
	require.NoError(t, err)
	assert.Equal(t, ModeDrive, opts.Mode)
	assert.Equal(t, []Avoid{AvoidFerry, AvoidToll}, opts.Avoid)
	assert.True(t, opts.Avoids(AvoidToll))
	assert.False(t, opts.Avoids(AvoidTunnel))

	_, err = Options{Mode: "rocket"}.Normalized()
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = Options{Avoid: []Avoid{"potholes"}}.Normalized()
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestParseTravelMode(t *testing.T) {
	m, err := ParseTravelMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDrive, m)

	m, err = ParseTravelMode("scooter")
	require.NoError(t, err)
	assert.Equal(t, ModeScooter, m)

	_, err = ParseTravelMode("teleport")
	assert.Error(t, err)
}

func TestGeoPoint_Validate(t *testing.T) {
	valid := []GeoPoint{{0, 0}, {90, 180}, {-90, -180}, dubai}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), "%s", p)
	}

	invalid := []GeoPoint{
		{Lat: 90.0001, Lng: 0},
		{Lat: 0, Lng: -180.5},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
	}
	for _, p := range invalid {
		err := p.Validate()
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v", p)
	}
}

func TestRoute_RecomputeAndCheck(t *testing.T) {
	r := &Route{
		Path: []GeoPoint{dubai, sharjah, abuDhabi},
		Legs: []Leg{
			{DistanceMeters: 10, TimeSeconds: 2},
			{DistanceMeters: 5, TimeSeconds: 1},
		},
		TotalDistanceMeters: 999,
	}
	r.Recompute()
	assert.Equal(t, 15.0, r.TotalDistanceMeters)
	assert.Equal(t, 3.0, r.TotalTimeSeconds)
	assert.NoError(t, r.Check(3))
	assert.Error(t, r.Check(4))

	r.Path = r.Path[:1]
	assert.Error(t, r.Check(3))
}
