package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// RouteCalculator calculates canonical routes. *routing.Composer implements it.
type RouteCalculator interface {
	CalculateRoute(ctx context.Context, origin, destination route.Waypoint, waypoints []route.Waypoint, opts route.Options) (*route.Route, error)
}

// WaypointDTO is a stop in a route request. Coordinates are pointers so a
// missing lat or lng is told apart from 0.
type WaypointDTO struct {
	Lat  *float64 `json:"lat" binding:"required"`
	Lng  *float64 `json:"lng" binding:"required"`
	Name string   `json:"name,omitempty"`
}

func (w WaypointDTO) toWaypoint(field string) (route.Waypoint, error) {
	p, err := requiredPoint(w.Lat, w.Lng, field)
	if err != nil {
		return route.Waypoint{}, err
	}
	return route.Waypoint{Location: p, Name: w.Name}, nil
}

// requiredPoint builds a GeoPoint, failing when either coordinate is missing.
func requiredPoint(lat, lng *float64, field string) (route.GeoPoint, error) {
	if lat == nil || lng == nil {
		return route.GeoPoint{}, domain.NewValidationError(field + ": lat and lng are required")
	}
	return route.GeoPoint{Lat: *lat, Lng: *lng}, nil
}

// RouteOptionsDTO tunes a route request.
type RouteOptionsDTO struct {
	Mode          string   `json:"mode" binding:"omitempty,travel_mode"`
	Traffic       bool     `json:"traffic"`
	Avoid         []string `json:"avoid" binding:"omitempty,dive,avoid"`
	OptimizeOrder bool     `json:"optimize_order"`
}

func (o RouteOptionsDTO) toOptions() route.Options {
	avoid := make([]route.Avoid, len(o.Avoid))
	for i, a := range o.Avoid {
		avoid[i] = route.Avoid(a)
	}
	return route.Options{
		Mode:          route.TravelMode(o.Mode),
		Traffic:       o.Traffic,
		Avoid:         avoid,
		OptimizeOrder: o.OptimizeOrder,
	}
}

// CalculateRouteRequest holds the data needed to calculate a route.
type CalculateRouteRequest struct {
	Origin      WaypointDTO     `json:"origin"`
	Destination WaypointDTO     `json:"destination"`
	Waypoints   []WaypointDTO   `json:"waypoints" binding:"max=25,dive"`
	Options     RouteOptionsDTO `json:"options"`
}

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	*route.Route
	DistanceText string `json:"distance_text"`
	TimeText     string `json:"time_text"`
	Approximate  bool   `json:"approximate"`
}

// ToRouteDTO adds display fields to r.
func ToRouteDTO(r *route.Route) RouteDTO {
	return RouteDTO{
		Route:        r,
		DistanceText: r.DistanceText(),
		TimeText:     r.TimeText(),
		Approximate:  r.IsFallback(),
	}
}

// RouteService answers ad-hoc route calculations.
type RouteService struct {
	calculator RouteCalculator
	logger     *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(calculator RouteCalculator, logger *zap.Logger) *RouteService {
	return &RouteService{calculator: calculator, logger: logger}
}

// CalculateRoute returns a route for req. Only invalid input fails.
func (s *RouteService) CalculateRoute(ctx context.Context, req CalculateRouteRequest) (*RouteDTO, error) {
	origin, err := req.Origin.toWaypoint("origin")
	if err != nil {
		return nil, err
	}
	destination, err := req.Destination.toWaypoint("destination")
	if err != nil {
		return nil, err
	}
	waypoints := make([]route.Waypoint, len(req.Waypoints))
	for i, w := range req.Waypoints {
		if waypoints[i], err = w.toWaypoint(fmt.Sprintf("waypoints[%d]", i)); err != nil {
			return nil, err
		}
	}

	r, err := s.calculator.CalculateRoute(ctx, origin, destination, waypoints, req.Options.toOptions())
	if err != nil {
		return nil, err
	}

	result := ToRouteDTO(r)
	return &result, nil
}
