package routing

import "github.com/tripxl/service-booking/internal/domain/route"

// Fallback builds a straight-line route through stops in the given order,
// timing each leg with the average speed of mode. It never reorders stops.
func Fallback(stops []route.Waypoint, mode route.TravelMode) *route.Route {
	path := make([]route.GeoPoint, len(stops))
	for i, s := range stops {
		path[i] = s.Location
	}

	legs := make([]route.Leg, 0, len(stops))
	for i := 1; i < len(stops); i++ {
		from, to := path[i-1], path[i]
		distance := route.CalculateDistance(from, to)
		legs = append(legs, route.Leg{
			DistanceMeters: distance,
			TimeSeconds:    route.EstimateTime(distance, mode),
			StartPoint:     from,
			EndPoint:       to,
			Steps:          []route.Step{},
		})
	}

	r := &route.Route{Path: path, Legs: legs, Source: route.SourceFallback}
	r.Recompute()
	return r
}
