package routing

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tripxl/service-booking/internal/domain/route"
)

// RequestContext is what the normalizer needs to know about the request a
// response answers.
type RequestContext struct {
	Stops   []route.Waypoint
	Options route.Options
}

// Normalize turns a provider *RawRoute or a fallback *route.Route into a
// canonical route. Totals are always recomputed from the legs. Errors wrap
// ErrMalformedResponse.
func Normalize(raw any, rc RequestContext) (*route.Route, error) {
	if len(rc.Stops) < 2 {
		return nil, errors.Wrapf(ErrMalformedResponse, "request has %d stops", len(rc.Stops))
	}

	switch v := raw.(type) {
	case *RawRoute:
		if v == nil {
			return nil, errors.Wrap(ErrMalformedResponse, "nil provider route")
		}
		return normalizeProvider(v, rc)
	case *route.Route:
		if v == nil {
			return nil, errors.Wrap(ErrMalformedResponse, "nil route")
		}
		return normalizeRoute(v, rc)
	default:
		return nil, errors.Wrapf(ErrMalformedResponse, "unsupported response type %T", raw)
	}
}

func normalizeProvider(raw *RawRoute, rc RequestContext) (*route.Route, error) {
	if len(raw.Coordinates) < 2 {
		return nil, errors.Wrapf(ErrMalformedResponse, "%s: geometry has %d coordinates", raw.Provider, len(raw.Coordinates))
	}

	path := make([]route.GeoPoint, len(raw.Coordinates))
	for i, pair := range raw.Coordinates {
		if len(pair) < 2 {
			return nil, errors.Wrapf(ErrMalformedResponse, "%s: coordinate %d is not a pair", raw.Provider, i)
		}
		p := toGeoPoint(pair, raw.Order)
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(ErrMalformedResponse, "%s: coordinate %d: %v", raw.Provider, i, err)
		}
		path[i] = p
	}

	visiting, err := visitingOrder(rc.Stops, raw.WaypointOrder)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "%s: %v", raw.Provider, err)
	}

	rawLegs := raw.Legs
	expected := len(rc.Stops) - 1
	switch {
	case len(rawLegs) == expected:
	case len(rawLegs) == 0 && expected == 1:
		rawLegs = []RawLeg{{DistanceMeters: raw.DistanceMeters, TimeSeconds: raw.TimeSeconds}}
	default:
		return nil, errors.Wrapf(ErrMalformedResponse, "%s: %d legs for %d stops", raw.Provider, len(rawLegs), len(rc.Stops))
	}

	legs := make([]route.Leg, expected)
	for i, l := range rawLegs {
		if !finiteNonNegative(l.DistanceMeters) || !finiteNonNegative(l.TimeSeconds) {
			return nil, errors.Wrapf(ErrMalformedResponse, "%s: leg %d has invalid distance or time", raw.Provider, i)
		}
		steps := l.Steps
		if steps == nil {
			steps = []route.Step{}
		}
		legs[i] = route.Leg{
			DistanceMeters: l.DistanceMeters,
			TimeSeconds:    l.TimeSeconds,
			StartPoint:     visiting[i].Location,
			EndPoint:       visiting[i+1].Location,
			Steps:          steps,
		}
	}

	r := &route.Route{
		Path:          path,
		Legs:          legs,
		Source:        route.SourceProvider,
		Provider:      raw.Provider,
		WaypointOrder: reorderedOnly(raw.WaypointOrder),
	}
	r.Recompute()
	return r, nil
}

func normalizeRoute(in *route.Route, rc RequestContext) (*route.Route, error) {
	out := *in
	out.Path = append([]route.GeoPoint(nil), in.Path...)
	out.Legs = make([]route.Leg, len(in.Legs))
	for i, leg := range in.Legs {
		if leg.Steps == nil {
			leg.Steps = []route.Step{}
		}
		out.Legs[i] = leg
	}
	if out.Source == "" {
		out.Source = route.SourceFallback
	}
	out.Recompute()

	if err := out.Check(len(rc.Stops)); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	return &out, nil
}

func toGeoPoint(pair []float64, order AxisOrder) route.GeoPoint {
	if order == LatLng {
		return route.GeoPoint{Lat: pair[0], Lng: pair[1]}
	}
	return route.GeoPoint{Lat: pair[1], Lng: pair[0]}
}

// visitingOrder returns the stops in the order the provider visits them.
// order must be a permutation of the intermediate waypoint indexes.
func visitingOrder(stops []route.Waypoint, order []int) ([]route.Waypoint, error) {
	n := len(stops) - 2
	if len(order) == 0 || n <= 0 {
		return stops, nil
	}
	if len(order) != n {
		return nil, errors.Errorf("waypoint order has %d entries for %d waypoints", len(order), n)
	}

	seen := make([]bool, n)
	out := make([]route.Waypoint, 0, len(stops))
	out = append(out, stops[0])
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return nil, errors.Errorf("waypoint order %v is not a permutation", order)
		}
		seen[idx] = true
		out = append(out, stops[idx+1])
	}
	return append(out, stops[len(stops)-1]), nil
}

// reorderedOnly drops identity orders so callers only see WaypointOrder when
// the provider actually changed it.
func reorderedOnly(order []int) []int {
	for i, idx := range order {
		if idx != i {
			return append([]int(nil), order...)
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
