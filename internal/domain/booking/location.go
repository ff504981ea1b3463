package booking

import (
	"fmt"

	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// Location is a named point a trip starts at, passes through or ends at.
type Location struct {
	Name  string         `json:"name"`
	Point route.GeoPoint `json:"point"`
}

// Validate checks that the location has a name and a valid coordinate.
func (l Location) Validate(role string) error {
	if l.Name == "" {
		return domain.NewValidationError(fmt.Sprintf("%s name is required", role))
	}
	if err := l.Point.Validate(); err != nil {
		return domain.NewValidationError(fmt.Sprintf("%s: %s", role, err.Error()))
	}
	return nil
}

// Waypoint converts the location to a routing stop.
func (l Location) Waypoint() route.Waypoint {
	return route.Waypoint{Location: l.Point, Name: l.Name}
}

// Waypoints converts locations to routing stops.
func Waypoints(locs []Location) []route.Waypoint {
	out := make([]route.Waypoint, len(locs))
	for i, l := range locs {
		out[i] = l.Waypoint()
	}
	return out
}
