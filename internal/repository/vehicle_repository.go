package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/domain/vehicle"
	"github.com/tripxl/service-booking/internal/platform/database"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlateNumber          string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Make                 string    `gorm:"type:varchar(50);not null"`
	Model                string    `gorm:"type:varchar(50);not null"`
	GroupName            string    `gorm:"type:varchar(50);index"`
	Seats                int       `gorm:"type:int;not null"`
	FuelType             string    `gorm:"type:varchar(10);not null"`
	ConsumptionLPer100Km float64   `gorm:"column:consumption_l_per_100km;type:decimal(5,2);not null"`
	Status               string    `gorm:"type:varchar(20);not null;default:'active'"`
	Version              int64     `gorm:"not null;default:1"`
	CreatedAt            time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt            time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements VehicleRepository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return toVehicleDomain(&model), nil
}

func (r *GormVehicleRepository) List(ctx context.Context, group string, page, limit int) ([]*vehicle.Vehicle, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", string(vehicle.StatusActive))
		if group != "" {
			db = db.Where("group_name = ?", group)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&VehicleModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	var models []VehicleModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("plate_number ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	vehicles := make([]*vehicle.Vehicle, len(models))
	for i := range models {
		vehicles[i] = toVehicleDomain(&models[i])
	}
	return vehicles, total, nil
}

func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicle.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(toVehicleModel(v)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.NewConflictError(fmt.Sprintf("vehicle %s already exists", v.PlateNumber()))
		}
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	model := toVehicleModel(v)
	previousVersion := v.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(model)

	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toVehicleModel(v *vehicle.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:                   v.ID(),
		PlateNumber:          v.PlateNumber(),
		Make:                 v.Make(),
		Model:                v.Model(),
		GroupName:            v.GroupName(),
		Seats:                v.Seats(),
		FuelType:             string(v.FuelType()),
		ConsumptionLPer100Km: v.Consumption(),
		Status:               string(v.Status()),
		Version:              v.Version(),
		CreatedAt:            v.CreatedAt(),
		UpdatedAt:            v.UpdatedAt(),
	}
}

func toVehicleDomain(m *VehicleModel) *vehicle.Vehicle {
	return vehicle.Reconstruct(
		m.ID,
		m.PlateNumber, m.Make, m.Model, m.GroupName,
		m.Seats,
		fuel.Type(m.FuelType),
		m.ConsumptionLPer100Km,
		vehicle.Status(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
