package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// FuelPriceModel is the GORM model for the fuel_prices table.
type FuelPriceModel struct {
	FuelType      string    `gorm:"type:varchar(10);primaryKey"`
	PricePerLitre float64   `gorm:"type:decimal(6,3);not null"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'AED'"`
	EffectiveDate time.Time `gorm:"type:timestamptz;not null"`
	Source        string    `gorm:"type:varchar(200)"`
	UpdatedAt     time.Time `gorm:"type:timestamptz;not null"`
}

func (FuelPriceModel) TableName() string { return "fuel_prices" }

// GormFuelPriceRepository implements fuel.PriceRepository using GORM.
type GormFuelPriceRepository struct {
	db *gorm.DB
}

func NewGormFuelPriceRepository(db *gorm.DB) *GormFuelPriceRepository {
	return &GormFuelPriceRepository{db: db}
}

func (r *GormFuelPriceRepository) FindByType(ctx context.Context, t fuel.Type) (*fuel.Price, error) {
	var model FuelPriceModel
	if err := r.db.WithContext(ctx).Where("fuel_type = ?", string(t)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("FuelPrice", string(t))
		}
		return nil, fmt.Errorf("failed to find fuel price: %w", err)
	}
	return toFuelPriceDomain(&model), nil
}

func (r *GormFuelPriceRepository) ListAll(ctx context.Context) ([]*fuel.Price, error) {
	var models []FuelPriceModel
	if err := r.db.WithContext(ctx).Order("fuel_type ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list fuel prices: %w", err)
	}
	prices := make([]*fuel.Price, len(models))
	for i := range models {
		prices[i] = toFuelPriceDomain(&models[i])
	}
	return prices, nil
}

// Upsert writes all prices in one transaction, replacing existing rows.
func (r *GormFuelPriceRepository) Upsert(ctx context.Context, prices []*fuel.Price) error {
	if len(prices) == 0 {
		return nil
	}
	models := make([]FuelPriceModel, len(prices))
	for i, p := range prices {
		models[i] = FuelPriceModel{
			FuelType:      string(p.FuelType()),
			PricePerLitre: p.PricePerLitre(),
			Currency:      p.Currency(),
			EffectiveDate: p.EffectiveDate(),
			Source:        p.Source(),
			UpdatedAt:     p.UpdatedAt(),
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fuel_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"price_per_litre", "currency", "effective_date", "source", "updated_at"}),
		}).Create(&models).Error
		if err != nil {
			return fmt.Errorf("failed to upsert fuel prices: %w", err)
		}
		return nil
	})
}

func toFuelPriceDomain(m *FuelPriceModel) *fuel.Price {
	return fuel.ReconstructPrice(
		fuel.Type(m.FuelType),
		m.PricePerLitre,
		m.Currency,
		m.EffectiveDate,
		m.Source,
		m.UpdatedAt,
	)
}
