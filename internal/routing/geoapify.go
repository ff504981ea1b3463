package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/tripxl/service-booking/internal/domain/route"
)

const (
	geoapifyName           = "geoapify"
	geoapifyDefaultBaseURL = "https://api.geoapify.com"
)

var geoapifyFormat = CoordinateFormat{Order: LatLng, PairSeparator: "|", CoordinateSeparator: ","}

var geoapifyModes = map[route.TravelMode]string{
	route.ModeDrive:   "drive",
	route.ModeWalk:    "walk",
	route.ModeBicycle: "bicycle",
	route.ModeScooter: "scooter",
	route.ModeTransit: "approximated_transit",
}

var geoapifyAvoids = map[route.Avoid]string{
	route.AvoidToll:     "tolls",
	route.AvoidMotorway: "highways",
	route.AvoidFerry:    "ferries",
}

// GeoapifyProvider calls the Geoapify Routing API, which answers with a
// GeoJSON FeatureCollection holding one MultiLineString feature.
type GeoapifyProvider struct {
	baseURL string
	apiKey  string
	format  CoordinateFormat
}

// NewGeoapifyProvider creates a Geoapify adapter.
func NewGeoapifyProvider(cfg ProviderConfig) *GeoapifyProvider {
	base := cfg.BaseURL
	if base == "" {
		base = geoapifyDefaultBaseURL
	}
	return &GeoapifyProvider{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  cfg.APIKey,
		format:  cfg.Format.Or(geoapifyFormat),
	}
}

func (p *GeoapifyProvider) Name() string { return geoapifyName }

// BuildRequest ignores OptimizeOrder: the routing endpoint visits waypoints in
// the order given. Avoid features Geoapify has no equivalent for are dropped.
func (p *GeoapifyProvider) BuildRequest(ctx context.Context, stops []route.Waypoint, opts route.Options) (*http.Request, error) {
	q := url.Values{}
	q.Set("waypoints", p.format.Join(stops))
	q.Set("mode", geoapifyModes[opts.Mode])
	q.Set("details", "instruction_details")
	if opts.Traffic {
		q.Set("traffic", "approximated")
	} else {
		q.Set("traffic", "free_flow")
	}
	if avoid := mapAvoids(opts.Avoid, geoapifyAvoids); len(avoid) > 0 {
		q.Set("avoid", strings.Join(avoid, "|"))
	}
	q.Set("apiKey", p.apiKey)

	return newGetRequest(ctx, p.baseURL+"/v1/routing?"+q.Encode())
}

type geoapifyProperties struct {
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	Legs     []struct {
		Distance float64 `json:"distance"`
		Time     float64 `json:"time"`
		Steps    []struct {
			Distance    float64 `json:"distance"`
			Time        float64 `json:"time"`
			Instruction struct {
				Text string `json:"text"`
			} `json:"instruction"`
		} `json:"steps"`
	} `json:"legs"`
}

func (p *GeoapifyProvider) Decode(body []byte) (*RawRoute, error) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode geoapify feature collection")
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("geoapify response has no features")
	}
	feature := fc.Features[0]

	coords, err := lineCoordinates(feature.Geometry)
	if err != nil {
		return nil, errors.Wrap(err, "geoapify geometry")
	}

	var props geoapifyProperties
	if feature.Properties != nil {
		raw, err := json.Marshal(feature.Properties)
		if err != nil {
			return nil, errors.Wrap(err, "encode geoapify properties")
		}
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, errors.Wrap(err, "decode geoapify properties")
		}
	}

	legs := make([]RawLeg, len(props.Legs))
	for i, l := range props.Legs {
		steps := make([]route.Step, len(l.Steps))
		for j, s := range l.Steps {
			steps[j] = route.Step{
				Instruction:    s.Instruction.Text,
				DistanceMeters: s.Distance,
				TimeSeconds:    s.Time,
			}
		}
		legs[i] = RawLeg{DistanceMeters: l.Distance, TimeSeconds: l.Time, Steps: steps}
	}

	return &RawRoute{
		Provider:       geoapifyName,
		Coordinates:    coords,
		Order:          LngLat,
		Legs:           legs,
		DistanceMeters: props.Distance,
		TimeSeconds:    props.Time,
	}, nil
}

// lineCoordinates flattens a GeoJSON line geometry into [lng, lat] pairs,
// dropping the repeated point where consecutive lines meet.
func lineCoordinates(g orb.Geometry) ([][]float64, error) {
	var lines []orb.LineString
	switch geom := g.(type) {
	case orb.LineString:
		lines = []orb.LineString{geom}
	case orb.MultiLineString:
		lines = geom
	case nil:
		return nil, errors.New("missing geometry")
	default:
		return nil, errors.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}

	var coords [][]float64
	for _, line := range lines {
		for i, pt := range line {
			if i == 0 && len(coords) > 0 {
				last := coords[len(coords)-1]
				if last[0] == pt[0] && last[1] == pt[1] {
					continue
				}
			}
			coords = append(coords, []float64{pt[0], pt[1]})
		}
	}
	return coords, nil
}

func mapAvoids(avoid []route.Avoid, names map[route.Avoid]string) []string {
	var out []string
	for _, a := range avoid {
		if name, ok := names[a]; ok {
			out = append(out, name)
		}
	}
	return out
}
