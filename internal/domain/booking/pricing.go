package booking

import (
	"fmt"
	"math"
)

// CostStrategy defines the interface for estimating a trip's cost.
type CostStrategy interface {
	// Calculate returns the estimated cost in fils (1/100 AED).
	Calculate(params CostParams) (int64, error)
}

// CostParams holds the inputs for trip cost estimation.
type CostParams struct {
	DistanceKm float64
	// ConsumptionLPer100Km is the vehicle's fuel consumption.
	ConsumptionLPer100Km float64
	// PricePerLitre is in AED.
	PricePerLitre float64
}

// FuelCostStrategy prices a trip by the fuel it burns.
type FuelCostStrategy struct{}

// NewFuelCostStrategy creates a new FuelCostStrategy.
func NewFuelCostStrategy() *FuelCostStrategy {
	return &FuelCostStrategy{}
}

// Calculate computes distance × consumption / 100 × price, in fils.
func (s *FuelCostStrategy) Calculate(params CostParams) (int64, error) {
	if params.DistanceKm < 0 {
		return 0, fmt.Errorf("distance cannot be negative")
	}
	if params.ConsumptionLPer100Km < 0 || params.PricePerLitre < 0 {
		return 0, fmt.Errorf("consumption and price cannot be negative")
	}

	litres := params.DistanceKm * params.ConsumptionLPer100Km / 100
	return int64(math.Round(litres * params.PricePerLitre * 100)), nil
}
