package route

import (
	"fmt"
	"sort"

	"github.com/tripxl/service-booking/internal/platform/domain"
)

// TravelMode selects the vehicle profile for routing and time estimates.
type TravelMode string

const (
	ModeDrive   TravelMode = "drive"
	ModeWalk    TravelMode = "walk"
	ModeBicycle TravelMode = "bicycle"
	ModeScooter TravelMode = "scooter"
	ModeTransit TravelMode = "transit"
)

// Average speeds in meters per second.
var modeSpeeds = map[TravelMode]float64{
	ModeDrive:   13.9,
	ModeWalk:    1.4,
	ModeBicycle: 4.2,
	ModeScooter: 5.6,
	ModeTransit: 8.3,
}

// IsValid reports whether m is a known mode.
func (m TravelMode) IsValid() bool {
	_, ok := modeSpeeds[m]
	return ok
}

// Speed returns the average speed for m in meters per second.
// Unknown modes use the drive speed.
func (m TravelMode) Speed() float64 {
	if s, ok := modeSpeeds[m]; ok {
		return s
	}
	return modeSpeeds[ModeDrive]
}

// ParseTravelMode converts s to a TravelMode. The empty string means drive.
func ParseTravelMode(s string) (TravelMode, error) {
	if s == "" {
		return ModeDrive, nil
	}
	m := TravelMode(s)
	if !m.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid travel mode: %s", s))
	}
	return m, nil
}

// Avoid is a road feature the route should avoid.
type Avoid string

const (
	AvoidToll          Avoid = "toll"
	AvoidMotorway      Avoid = "motorway"
	AvoidFerry         Avoid = "ferry"
	AvoidTunnel        Avoid = "tunnel"
	AvoidUnpaved       Avoid = "unpaved"
	AvoidCashOnlyTolls Avoid = "cash_only_tolls"
)

var knownAvoids = map[Avoid]bool{
	AvoidToll:          true,
	AvoidMotorway:      true,
	AvoidFerry:         true,
	AvoidTunnel:        true,
	AvoidUnpaved:       true,
	AvoidCashOnlyTolls: true,
}

// IsValid reports whether a is a known avoid feature.
func (a Avoid) IsValid() bool {
	return knownAvoids[a]
}

// Options tunes a route calculation.
type Options struct {
	Mode          TravelMode `json:"mode"`
	Traffic       bool       `json:"traffic"`
	Avoid         []Avoid    `json:"avoid,omitempty"`
	OptimizeOrder bool       `json:"optimize_order"`
}

// Normalized returns a copy with the default mode applied and the avoid set
// deduplicated and sorted, or a validation error for unknown values.
func (o Options) Normalized() (Options, error) {
	out := o
	if out.Mode == "" {
		out.Mode = ModeDrive
	}
	if !out.Mode.IsValid() {
		return Options{}, domain.NewValidationError(fmt.Sprintf("invalid travel mode: %s", o.Mode))
	}

	seen := make(map[Avoid]bool, len(o.Avoid))
	avoid := make([]Avoid, 0, len(o.Avoid))
	for _, a := range o.Avoid {
		if !a.IsValid() {
			return Options{}, domain.NewValidationError(fmt.Sprintf("invalid avoid feature: %s", a))
		}
		if !seen[a] {
			seen[a] = true
			avoid = append(avoid, a)
		}
	}
	sort.Slice(avoid, func(i, j int) bool { return avoid[i] < avoid[j] })
	out.Avoid = avoid
	return out, nil
}

// Avoids reports whether a is in the avoid set.
func (o Options) Avoids(a Avoid) bool {
	for _, x := range o.Avoid {
		if x == a {
			return true
		}
	}
	return false
}
