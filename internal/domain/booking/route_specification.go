package booking

import (
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/tripxl/service-booking/internal/domain/route"
)

// RouteSpecification is a value object representing the calculated route of a trip.
type RouteSpecification struct {
	PickupLat            float64      `json:"pickup_lat"`
	PickupLng            float64      `json:"pickup_lng"`
	DropoffLat           float64      `json:"dropoff_lat"`
	DropoffLng           float64      `json:"dropoff_lng"`
	DistanceMeters       float64      `json:"distance_meters"`
	DistanceKm           float64      `json:"distance_km"`
	DurationSeconds      float64      `json:"duration_seconds"`
	EstimatedDurationMin int          `json:"estimated_duration_min"`
	DistanceText         string       `json:"distance_text"`
	DurationText         string       `json:"duration_text"`
	Polyline             string       `json:"polyline"`
	Source               route.Source `json:"source"`
	Provider             string       `json:"provider,omitempty"`
	LegCount             int          `json:"leg_count"`
	WaypointOrder        []int        `json:"waypoint_order,omitempty"`
}

// NewRouteSpecification summarizes r. The path is stored as a Google encoded polyline.
func NewRouteSpecification(r *route.Route) *RouteSpecification {
	coords := make([][]float64, len(r.Path))
	for i, p := range r.Path {
		coords[i] = []float64{p.Lat, p.Lng}
	}

	spec := &RouteSpecification{
		DistanceMeters:       r.TotalDistanceMeters,
		DistanceKm:           math.Round(r.TotalDistanceMeters/10) / 100,
		DurationSeconds:      r.TotalTimeSeconds,
		EstimatedDurationMin: int(math.Round(r.TotalTimeSeconds / 60)),
		DistanceText:         r.DistanceText(),
		DurationText:         r.TimeText(),
		Polyline:             string(polyline.EncodeCoords(coords)),
		Source:               r.Source,
		Provider:             r.Provider,
		LegCount:             len(r.Legs),
		WaypointOrder:        r.WaypointOrder,
	}
	if len(r.Path) > 0 {
		first, last := r.Path[0], r.Path[len(r.Path)-1]
		spec.PickupLat, spec.PickupLng = first.Lat, first.Lng
		spec.DropoffLat, spec.DropoffLng = last.Lat, last.Lng
	}
	return spec
}

// IsApproximate reports whether the route came from the straight-line fallback.
func (s *RouteSpecification) IsApproximate() bool {
	return s.Source == route.SourceFallback
}

// Path decodes the stored polyline.
func (s *RouteSpecification) Path() ([]route.GeoPoint, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s.Polyline))
	if err != nil {
		return nil, err
	}
	out := make([]route.GeoPoint, len(coords))
	for i, c := range coords {
		out[i] = route.GeoPoint{Lat: c[0], Lng: c[1]}
	}
	return out, nil
}
