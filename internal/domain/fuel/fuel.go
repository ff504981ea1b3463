package fuel

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tripxl/service-booking/internal/platform/domain"
)

// Type identifies a retail fuel grade.
type Type string

const (
	TypePetrol Type = "PETROL"
	TypeSuper  Type = "SUPER"
	TypeEPlus  Type = "EPLUS"
	TypeDiesel Type = "DIESEL"
)

var typeLabels = map[Type]string{
	TypePetrol: "Special 95",
	TypeSuper:  "Super 98",
	TypeEPlus:  "E-Plus 91",
	TypeDiesel: "Diesel",
}

// IsValid returns true if the fuel type is recognized.
func (t Type) IsValid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label returns the retail name of the grade.
func (t Type) Label() string {
	return typeLabels[t]
}

// ParseType converts s to a Type, returning a validation error if unknown.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", s))
	}
	return t, nil
}

// AllTypes returns every known fuel type in a stable order.
func AllTypes() []Type {
	out := make([]Type, 0, len(typeLabels))
	for t := range typeLabels {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Price is the current per-litre price of one fuel type.
type Price struct {
	fuelType      Type
	pricePerLitre float64
	currency      string
	effectiveDate time.Time
	source        string
	updatedAt     time.Time
}

// NewPrice creates a validated fuel price.
func NewPrice(fuelType Type, pricePerLitre float64, effectiveDate time.Time, source string) (*Price, error) {
	if !fuelType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", fuelType))
	}
	if math.IsNaN(pricePerLitre) || math.IsInf(pricePerLitre, 0) || pricePerLitre <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("price for %s must be positive", fuelType))
	}
	if effectiveDate.IsZero() {
		effectiveDate = time.Now()
	}
	return &Price{
		fuelType:      fuelType,
		pricePerLitre: pricePerLitre,
		currency:      domain.CurrencyAED,
		effectiveDate: effectiveDate.UTC(),
		source:        source,
		updatedAt:     time.Now().UTC(),
	}, nil
}

// ReconstructPrice rebuilds a Price from persistence data (no validation).
func ReconstructPrice(fuelType Type, pricePerLitre float64, currency string, effectiveDate time.Time, source string, updatedAt time.Time) *Price {
	return &Price{
		fuelType:      fuelType,
		pricePerLitre: pricePerLitre,
		currency:      currency,
		effectiveDate: effectiveDate,
		source:        source,
		updatedAt:     updatedAt,
	}
}

func (p *Price) FuelType() Type { return p.fuelType }
func (p *Price) PricePerLitre() float64 { return p.pricePerLitre }
func (p *Price) Currency() string { return p.currency }
func (p *Price) EffectiveDate() time.Time { return p.effectiveDate }
func (p *Price) Source() string { return p.source }
func (p *Price) UpdatedAt() time.Time { return p.updatedAt }
