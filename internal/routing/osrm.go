package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/tripxl/service-booking/internal/domain/route"
)

const (
	osrmName           = "osrm"
	osrmDefaultBaseURL = "https://router.project-osrm.org"
)

var osrmFormat = CoordinateFormat{Order: LngLat, PairSeparator: ";", CoordinateSeparator: ","}

// OSRM servers expose one profile per road network; transit and scooter have
// no profile of their own and are routed on the car network.
var osrmProfiles = map[route.TravelMode]string{
	route.ModeDrive:   "driving",
	route.ModeWalk:    "walking",
	route.ModeBicycle: "cycling",
	route.ModeScooter: "driving",
	route.ModeTransit: "driving",
}

var osrmExcludes = map[route.Avoid]string{
	route.AvoidToll:     "toll",
	route.AvoidMotorway: "motorway",
	route.AvoidFerry:    "ferry",
}

// OSRMProvider calls an OSRM server. Optimized requests go to the trip
// service with fixed first and last stops.
type OSRMProvider struct {
	baseURL string
	format  CoordinateFormat
}

// NewOSRMProvider creates an OSRM adapter. OSRM takes no API key.
func NewOSRMProvider(cfg ProviderConfig) *OSRMProvider {
	base := cfg.BaseURL
	if base == "" {
		base = osrmDefaultBaseURL
	}
	return &OSRMProvider{
		baseURL: strings.TrimRight(base, "/"),
		format:  cfg.Format.Or(osrmFormat),
	}
}

func (p *OSRMProvider) Name() string { return osrmName }

func (p *OSRMProvider) BuildRequest(ctx context.Context, stops []route.Waypoint, opts route.Options) (*http.Request, error) {
	service := "route"
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "true")
	if opts.OptimizeOrder && len(stops) > 3 {
		service = "trip"
		q.Set("source", "first")
		q.Set("destination", "last")
		q.Set("roundtrip", "false")
	}
	if exclude := mapAvoids(opts.Avoid, osrmExcludes); len(exclude) > 0 {
		q.Set("exclude", strings.Join(exclude, ","))
	}

	profile := osrmProfiles[opts.Mode]
	rawURL := fmt.Sprintf("%s/%s/v1/%s/%s?%s", p.baseURL, service, profile, p.format.Join(stops), q.Encode())
	return newGetRequest(ctx, rawURL)
}

type osrmRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry *geojson.Geometry `json:"geometry"`
	Legs     []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Steps    []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Name     string  `json:"name"`
			Maneuver struct {
				Type     string `json:"type"`
				Modifier string `json:"modifier"`
			} `json:"maneuver"`
		} `json:"steps"`
	} `json:"legs"`
}

type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Routes    []osrmRoute    `json:"routes"`
	Trips     []osrmRoute    `json:"trips"`
	Waypoints []osrmWaypoint `json:"waypoints"`
}

type osrmWaypoint struct {
	WaypointIndex *int `json:"waypoint_index"`
}

func (p *OSRMProvider) Decode(body []byte) (*RawRoute, error) {
	var resp osrmResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode osrm response")
	}
	if resp.Code != "Ok" {
		return nil, errors.Errorf("osrm code %s: %s", resp.Code, resp.Message)
	}

	routes := resp.Routes
	trip := len(resp.Trips) > 0
	if trip {
		routes = resp.Trips
	}
	if len(routes) == 0 {
		return nil, errors.New("osrm response has no routes")
	}
	r := routes[0]
	if r.Geometry == nil {
		return nil, errors.New("osrm route has no geometry")
	}

	coords, err := lineCoordinates(r.Geometry.Geometry())
	if err != nil {
		return nil, errors.Wrap(err, "osrm geometry")
	}

	legs := make([]RawLeg, len(r.Legs))
	for i, l := range r.Legs {
		steps := make([]route.Step, 0, len(l.Steps))
		for _, s := range l.Steps {
			steps = append(steps, route.Step{
				Instruction:    osrmInstruction(s.Maneuver.Type, s.Maneuver.Modifier, s.Name),
				DistanceMeters: s.Distance,
				TimeSeconds:    s.Duration,
			})
		}
		legs[i] = RawLeg{DistanceMeters: l.Distance, TimeSeconds: l.Duration, Steps: steps}
	}

	raw := &RawRoute{
		Provider:       osrmName,
		Coordinates:    coords,
		Order:          LngLat,
		Legs:           legs,
		DistanceMeters: r.Distance,
		TimeSeconds:    r.Duration,
	}

	if trip {
		order, err := osrmWaypointOrder(resp.Waypoints)
		if err != nil {
			return nil, err
		}
		raw.WaypointOrder = order
	}
	return raw, nil
}

// osrmWaypointOrder converts the trip service's per-input positions into the
// visiting order of the intermediate waypoints.
func osrmWaypointOrder(waypoints []osrmWaypoint) ([]int, error) {
	if len(waypoints) < 3 {
		return nil, nil
	}
	n := len(waypoints) - 2
	order := make([]int, n)
	filled := make([]bool, n)
	for i := 1; i <= n; i++ {
		idx := waypoints[i].WaypointIndex
		if idx == nil || *idx < 1 || *idx > n || filled[*idx-1] {
			return nil, errors.Errorf("osrm trip waypoint %d has invalid position", i)
		}
		order[*idx-1] = i - 1
		filled[*idx-1] = true
	}
	return order, nil
}

func osrmInstruction(maneuver, modifier, name string) string {
	parts := make([]string, 0, 4)
	if maneuver != "" {
		parts = append(parts, maneuver)
	}
	if modifier != "" {
		parts = append(parts, modifier)
	}
	if name != "" {
		parts = append(parts, "onto", name)
	}
	return strings.Join(parts, " ")
}
