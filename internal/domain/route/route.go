package route

import "fmt"

// Source records where a route's geometry and timings came from.
type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

// Step is one turn instruction within a leg.
type Step struct {
	Instruction    string  `json:"instruction"`
	DistanceMeters float64 `json:"distance_meters"`
	TimeSeconds    float64 `json:"time_seconds"`
}

// Leg is the part of a route between two consecutive stops.
type Leg struct {
	DistanceMeters float64  `json:"distance_meters"`
	TimeSeconds    float64  `json:"time_seconds"`
	StartPoint     GeoPoint `json:"start_point"`
	EndPoint       GeoPoint `json:"end_point"`
	Steps          []Step   `json:"steps"`
}

// Route is the canonical result of a route calculation.
//
// TotalDistanceMeters and TotalTimeSeconds are always the sums over Legs.
// A fallback route's Path is the stop coordinates joined by straight lines and
// must not be treated as drivable geometry.
type Route struct {
	Path                []GeoPoint `json:"path"`
	Legs                []Leg      `json:"legs"`
	TotalDistanceMeters float64    `json:"total_distance_meters"`
	TotalTimeSeconds    float64    `json:"total_time_seconds"`
	Source              Source     `json:"source"`
	Provider            string     `json:"provider,omitempty"`
	// WaypointOrder is the visiting order of the caller's waypoints when the
	// provider reordered them, as indexes into the original slice.
	WaypointOrder []int `json:"waypoint_order,omitempty"`
}

// IsFallback reports whether r is a straight-line approximation.
func (r *Route) IsFallback() bool {
	return r.Source == SourceFallback
}

// Recompute resets the totals to the sums over the legs.
func (r *Route) Recompute() {
	var distance, duration float64
	for _, leg := range r.Legs {
		distance += leg.DistanceMeters
		duration += leg.TimeSeconds
	}
	r.TotalDistanceMeters = distance
	r.TotalTimeSeconds = duration
}

// Check verifies the structural invariants of r for the given number of stops.
func (r *Route) Check(stops int) error {
	if len(r.Path) < 2 {
		return fmt.Errorf("route path has %d points, need at least 2", len(r.Path))
	}
	if len(r.Legs) != stops-1 {
		return fmt.Errorf("route has %d legs for %d stops", len(r.Legs), stops)
	}
	for i, leg := range r.Legs {
		if leg.DistanceMeters < 0 || leg.TimeSeconds < 0 {
			return fmt.Errorf("leg %d has negative distance or time", i)
		}
	}
	return nil
}

// DistanceText is the formatted total distance.
func (r *Route) DistanceText() string {
	return FormatDistance(r.TotalDistanceMeters)
}

// TimeText is the formatted total duration.
func (r *Route) TimeText() string {
	return FormatTime(r.TotalTimeSeconds)
}
