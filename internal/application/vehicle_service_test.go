package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/platform/domain"
)

func validVehicleRequest() CreateVehicleRequest {
	return CreateVehicleRequest{
		PlateNumber: "dxb  a 12345",
		Make:        "Toyota",
		Model:       "Hiace",
		GroupName:   "vans",
		Seats:       12,
		FuelType:    "DIESEL",
		Consumption: 11.5,
	}
}

func TestVehicleService(t *testing.T) {
	repo := newMemVehicleRepo()
	svc := NewVehicleService(repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateVehicle(ctx, validVehicleRequest())
	require.NoError(t, err)
	assert.Equal(t, "DXB A 12345", created.PlateNumber)
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, int64(1), created.Version)

	_, err = svc.CreateVehicle(ctx, validVehicleRequest())
	assert.True(t, domain.IsKind(err, domain.KindConflict), "plate numbers are unique")

	updated, err := svc.UpdateVehicle(ctx, created.ID, UpdateVehicleRequest{Seats: 14, FuelType: "PETROL"})
	require.NoError(t, err)
	assert.Equal(t, 14, updated.Seats)
	assert.Equal(t, "PETROL", updated.FuelType)
	assert.Equal(t, "Hiace", updated.Model)
	assert.Equal(t, int64(2), updated.Version)

	_, err = svc.UpdateVehicle(ctx, created.ID, UpdateVehicleRequest{FuelType: "LPG"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	page, err := svc.ListVehicles(ctx, "vans", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	require.NoError(t, svc.ArchiveVehicle(ctx, created.ID))
	got, err := svc.GetVehicle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "archived", got.Status)
	require.NoError(t, svc.ArchiveVehicle(ctx, created.ID), "archiving twice is a no-op")

	page, err = svc.ListVehicles(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.NotNil(t, page.Items)

	_, err = svc.GetVehicle(ctx, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestCreateVehicleValidation(t *testing.T) {
	svc := NewVehicleService(newMemVehicleRepo(), zap.NewNop())

	req := validVehicleRequest()
	req.FuelType = "KEROSENE"
	_, err := svc.CreateVehicle(context.Background(), req)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	req = validVehicleRequest()
	req.Consumption = -1
	_, err = svc.CreateVehicle(context.Background(), req)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
