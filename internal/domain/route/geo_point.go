package route

import (
	"fmt"
	"math"

	"github.com/tripxl/service-booking/internal/platform/domain"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects non-finite and out-of-range coordinates.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return domain.NewValidationError(fmt.Sprintf("coordinate %s is not finite", p))
	}
	if p.Lat < -90 || p.Lat > 90 {
		return domain.NewValidationError(fmt.Sprintf("latitude %v out of range [-90, 90]", p.Lat))
	}
	if p.Lng < -180 || p.Lng > 180 {
		return domain.NewValidationError(fmt.Sprintf("longitude %v out of range [-180, 180]", p.Lng))
	}
	return nil
}

// IsValid reports whether Validate would succeed.
func (p GeoPoint) IsValid() bool {
	return p.Validate() == nil
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// Waypoint is a stop on a route, optionally labelled.
type Waypoint struct {
	Location GeoPoint `json:"location"`
	Name     string   `json:"name,omitempty"`
}

// Stops returns origin, waypoints and destination as one ordered slice.
func Stops(origin, destination Waypoint, waypoints []Waypoint) []Waypoint {
	stops := make([]Waypoint, 0, len(waypoints)+2)
	stops = append(stops, origin)
	stops = append(stops, waypoints...)
	return append(stops, destination)
}
