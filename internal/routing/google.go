package routing

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/twpayne/go-polyline"

	"github.com/tripxl/service-booking/internal/domain/route"
)

const (
	googleName           = "google"
	googleDefaultBaseURL = "https://maps.googleapis.com"
)

var googleFormat = CoordinateFormat{Order: LatLng, PairSeparator: "|", CoordinateSeparator: ","}

// Directions has no scooter profile; scooters share the road network with cars.
var googleModes = map[route.TravelMode]string{
	route.ModeDrive:   "driving",
	route.ModeWalk:    "walking",
	route.ModeBicycle: "bicycling",
	route.ModeScooter: "driving",
	route.ModeTransit: "transit",
}

var googleAvoids = map[route.Avoid]string{
	route.AvoidToll:     "tolls",
	route.AvoidMotorway: "highways",
	route.AvoidFerry:    "ferries",
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// GoogleProvider calls the Google Directions API.
type GoogleProvider struct {
	baseURL string
	apiKey  string
	format  CoordinateFormat
}

// NewGoogleProvider creates a Google Directions adapter.
func NewGoogleProvider(cfg ProviderConfig) *GoogleProvider {
	base := cfg.BaseURL
	if base == "" {
		base = googleDefaultBaseURL
	}
	return &GoogleProvider{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  cfg.APIKey,
		format:  cfg.Format.Or(googleFormat),
	}
}

func (p *GoogleProvider) Name() string { return googleName }

func (p *GoogleProvider) BuildRequest(ctx context.Context, stops []route.Waypoint, opts route.Options) (*http.Request, error) {
	if len(stops) < 2 {
		return nil, errors.Errorf("need at least 2 stops, got %d", len(stops))
	}

	q := url.Values{}
	q.Set("origin", p.format.Point(stops[0].Location))
	q.Set("destination", p.format.Point(stops[len(stops)-1].Location))
	if mid := stops[1 : len(stops)-1]; len(mid) > 0 {
		waypoints := p.format.Join(mid)
		if opts.OptimizeOrder {
			waypoints = "optimize:true" + p.format.PairSeparator + waypoints
		}
		q.Set("waypoints", waypoints)
	}
	q.Set("mode", googleModes[opts.Mode])
	if avoid := mapAvoids(opts.Avoid, googleAvoids); len(avoid) > 0 {
		q.Set("avoid", strings.Join(avoid, "|"))
	}
	if opts.Traffic && opts.Mode == route.ModeDrive {
		q.Set("departure_time", "now")
		q.Set("traffic_model", "best_guess")
	}
	q.Set("units", "metric")
	q.Set("key", p.apiKey)

	return newGetRequest(ctx, p.baseURL+"/maps/api/directions/json?"+q.Encode())
}

type googleValue struct {
	Value float64 `json:"value"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance          googleValue  `json:"distance"`
			Duration          googleValue  `json:"duration"`
			DurationInTraffic *googleValue `json:"duration_in_traffic"`
			Steps             []struct {
				HTMLInstructions string      `json:"html_instructions"`
				Distance         googleValue `json:"distance"`
				Duration         googleValue `json:"duration"`
			} `json:"steps"`
		} `json:"legs"`
		WaypointOrder []int `json:"waypoint_order"`
	} `json:"routes"`
}

func (p *GoogleProvider) Decode(body []byte) (*RawRoute, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode google directions response")
	}
	if resp.Status != "OK" {
		return nil, errors.Errorf("google directions status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Routes) == 0 {
		return nil, errors.New("google directions response has no routes")
	}
	r := resp.Routes[0]

	if r.OverviewPolyline.Points == "" {
		return nil, errors.New("google directions route has no overview polyline")
	}
	coords, _, err := polyline.DecodeCoords([]byte(r.OverviewPolyline.Points))
	if err != nil {
		return nil, errors.Wrap(err, "decode overview polyline")
	}

	legs := make([]RawLeg, len(r.Legs))
	var distance, duration float64
	for i, l := range r.Legs {
		legTime := l.Duration.Value
		if l.DurationInTraffic != nil {
			legTime = l.DurationInTraffic.Value
		}
		steps := make([]route.Step, len(l.Steps))
		for j, s := range l.Steps {
			steps[j] = route.Step{
				Instruction:    stripHTML(s.HTMLInstructions),
				DistanceMeters: s.Distance.Value,
				TimeSeconds:    s.Duration.Value,
			}
		}
		legs[i] = RawLeg{DistanceMeters: l.Distance.Value, TimeSeconds: legTime, Steps: steps}
		distance += l.Distance.Value
		duration += legTime
	}

	return &RawRoute{
		Provider:       googleName,
		Coordinates:    coords,
		Order:          LatLng,
		Legs:           legs,
		DistanceMeters: distance,
		TimeSeconds:    duration,
		WaypointOrder:  r.WaypointOrder,
	}, nil
}

func stripHTML(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(htmlTag.ReplaceAllString(s, " "))), " ")
}
