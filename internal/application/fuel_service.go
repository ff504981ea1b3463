package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// UpdateFuelPricesRequest is the payload the fuel price scraper posts.
type UpdateFuelPricesRequest struct {
	Prices map[string]float64 `json:"prices" binding:"required,min=1"`
	Date   string             `json:"date"`
	Source string             `json:"source" binding:"max=200"`
}

// FuelPriceDTO is the API response representation of a fuel price.
type FuelPriceDTO struct {
	FuelType      string    `json:"fuel_type"`
	Label         string    `json:"label"`
	PricePerLitre float64   `json:"price_per_litre"`
	Currency      string    `json:"currency"`
	EffectiveDate time.Time `json:"effective_date"`
	Source        string    `json:"source,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FuelService manages the current price of each fuel type.
type FuelService struct {
	repo   fuel.PriceRepository
	logger *zap.Logger
}

// NewFuelService creates a new FuelService.
func NewFuelService(repo fuel.PriceRepository, logger *zap.Logger) *FuelService {
	return &FuelService{repo: repo, logger: logger}
}

// UpdatePrices validates and stores a (possibly partial) set of prices. Any
// invalid entry rejects the whole update.
func (s *FuelService) UpdatePrices(ctx context.Context, req UpdateFuelPricesRequest) ([]FuelPriceDTO, error) {
	if len(req.Prices) == 0 {
		return nil, domain.NewValidationError("at least one fuel price is required")
	}

	var effective time.Time
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339Nano, req.Date)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid date %q: expected RFC 3339", req.Date))
		}
		effective = t
	}

	prices := make([]*fuel.Price, 0, len(req.Prices))
	for name, value := range req.Prices {
		t, err := fuel.ParseType(name)
		if err != nil {
			return nil, err
		}
		p, err := fuel.NewPrice(t, value, effective, req.Source)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].FuelType() < prices[j].FuelType() })

	if err := s.repo.Upsert(ctx, prices); err != nil {
		return nil, fmt.Errorf("failed to store fuel prices: %w", err)
	}

	s.logger.Info("fuel prices updated",
		zap.Int("count", len(prices)),
		zap.String("source", req.Source),
		zap.Time("effective_date", prices[0].EffectiveDate()),
	)
	return toFuelPriceDTOs(prices), nil
}

// ListPrices returns the current price of every fuel type that has one.
func (s *FuelService) ListPrices(ctx context.Context) ([]FuelPriceDTO, error) {
	prices, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel prices: %w", err)
	}
	return toFuelPriceDTOs(prices), nil
}

func toFuelPriceDTOs(prices []*fuel.Price) []FuelPriceDTO {
	dtos := make([]FuelPriceDTO, len(prices))
	for i, p := range prices {
		dtos[i] = FuelPriceDTO{
			FuelType:      string(p.FuelType()),
			Label:         p.FuelType().Label(),
			PricePerLitre: p.PricePerLitre(),
			Currency:      p.Currency(),
			EffectiveDate: p.EffectiveDate(),
			Source:        p.Source(),
			UpdatedAt:     p.UpdatedAt(),
		}
	}
	return dtos
}
