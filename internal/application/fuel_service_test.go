package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

func TestUpdatePrices(t *testing.T) {
	repo := newMemPriceRepo(map[fuel.Type]float64{fuel.TypeDiesel: 2.67})
	svc := NewFuelService(repo, zap.NewNop())

	updated, err := svc.UpdatePrices(context.Background(), UpdateFuelPricesRequest{
		Prices: map[string]float64{"SUPER": 2.69, "PETROL": 2.58},
		Date:   "2025-08-01T04:00:00+04:00",
		Source: "WAM (Emirates News Agency)",
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, "PETROL", updated[0].FuelType)
	assert.Equal(t, "Special 95", updated[0].Label)
	assert.Equal(t, "SUPER", updated[1].FuelType)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), updated[0].EffectiveDate)
	assert.Equal(t, domain.CurrencyAED, updated[0].Currency)

	all, err := svc.ListPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3, "a partial update keeps the other prices")
	assert.Equal(t, "DIESEL", all[0].FuelType)
	assert.Equal(t, 2.67, all[0].PricePerLitre)
}

func TestUpdatePricesRejectsInvalidEntries(t *testing.T) {
	repo := newMemPriceRepo(nil)
	svc := NewFuelService(repo, zap.NewNop())

	tests := []struct {
		name string
		req  UpdateFuelPricesRequest
	}{
		{"empty", UpdateFuelPricesRequest{}},
		{"unknown type", UpdateFuelPricesRequest{Prices: map[string]float64{"PETROL": 2.5, "LPG": 1.2}}},
		{"zero price", UpdateFuelPricesRequest{Prices: map[string]float64{"DIESEL": 0}}},
		{"bad date", UpdateFuelPricesRequest{Prices: map[string]float64{"DIESEL": 2.6}, Date: "01/08/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePrices(context.Background(), tt.req)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
		})
	}

	all, err := svc.ListPrices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "rejected updates store nothing")
}

func TestUpdatePricesStorageError(t *testing.T) {
	repo := newMemPriceRepo(nil)
	repo.err = errors.New("connection reset")
	svc := NewFuelService(repo, zap.NewNop())

	_, err := svc.UpdatePrices(context.Background(), UpdateFuelPricesRequest{Prices: map[string]float64{"DIESEL": 2.6}})
	require.Error(t, err)
	assert.False(t, domain.IsKind(err, domain.KindValidation))
}
