package routing

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tripxl/service-booking/internal/domain/route"
)

var (
	// ErrProviderUnavailable covers network failures, timeouts, non-2xx
	// statuses and rate-limit refusals.
	ErrProviderUnavailable = errors.New("routing provider unavailable")

	// ErrMalformedResponse covers provider payloads that cannot be turned
	// into a canonical route.
	ErrMalformedResponse = errors.New("malformed routing provider response")
)

// Provider adapts one routing API. Implementations only build requests and
// decode bodies; transport, timeouts and fallback belong to the Composer.
type Provider interface {
	// Name identifies the provider in logs, metrics and cache keys.
	Name() string

	// BuildRequest returns a single request covering all stops in order.
	BuildRequest(ctx context.Context, stops []route.Waypoint, opts route.Options) (*http.Request, error)

	// Decode parses a 2xx response body.
	Decode(body []byte) (*RawRoute, error)
}

// AxisOrder is the order of the two numbers in a serialized coordinate.
type AxisOrder string

const (
	LngLat AxisOrder = "lnglat"
	LatLng AxisOrder = "latlng"
)

// CoordinateFormat describes how a provider expects stops serialized.
type CoordinateFormat struct {
	Order AxisOrder
	// PairSeparator goes between stops, CoordinateSeparator within one.
	PairSeparator       string
	CoordinateSeparator string
}

// Or fills empty fields of f from def.
func (f CoordinateFormat) Or(def CoordinateFormat) CoordinateFormat {
	if f.Order == "" {
		f.Order = def.Order
	}
	if f.PairSeparator == "" {
		f.PairSeparator = def.PairSeparator
	}
	if f.CoordinateSeparator == "" {
		f.CoordinateSeparator = def.CoordinateSeparator
	}
	return f
}

// Point serializes one coordinate with six decimals (about 10 cm).
func (f CoordinateFormat) Point(p route.GeoPoint) string {
	lat := strconv.FormatFloat(p.Lat, 'f', 6, 64)
	lng := strconv.FormatFloat(p.Lng, 'f', 6, 64)
	if f.Order == LatLng {
		return lat + f.CoordinateSeparator + lng
	}
	return lng + f.CoordinateSeparator + lat
}

// Join serializes stops in order.
func (f CoordinateFormat) Join(stops []route.Waypoint) string {
	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = f.Point(s.Location)
	}
	return strings.Join(parts, f.PairSeparator)
}

// RawLeg is a provider's per-leg breakdown before normalization.
type RawLeg struct {
	DistanceMeters float64
	TimeSeconds    float64
	Steps          []route.Step
}

// RawRoute is a provider response reduced to what normalization needs,
// still in the provider's axis order.
type RawRoute struct {
	Provider    string
	Coordinates [][]float64
	Order       AxisOrder
	Legs        []RawLeg

	// Aggregates as reported by the provider. Only used when the provider
	// returns no leg breakdown for a single-leg request.
	DistanceMeters float64
	TimeSeconds    float64

	// WaypointOrder is the provider's visiting order of intermediate
	// waypoints, when it reordered them.
	WaypointOrder []int
}

// ProviderConfig configures one of the built-in adapters.
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Format  CoordinateFormat
}

// NewProvider builds the adapter named by cfg.Name. "none" and "" return a
// nil Provider, which makes the Composer always use the fallback.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "none":
		return nil, nil
	case geoapifyName:
		return NewGeoapifyProvider(cfg), nil
	case googleName:
		return NewGoogleProvider(cfg), nil
	case osrmName:
		return NewOSRMProvider(cfg), nil
	default:
		return nil, errors.Errorf("unknown routing provider %q", cfg.Name)
	}
}

func newGetRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build routing request")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
