package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/domain/vehicle"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// CreateVehicleRequest is the request DTO for registering a fleet vehicle.
type CreateVehicleRequest struct {
	PlateNumber string  `json:"plate_number" binding:"required,max=20"`
	Make        string  `json:"make" binding:"required,max=50"`
	Model       string  `json:"model" binding:"required,max=50"`
	GroupName   string  `json:"group_name" binding:"max=50"`
	Seats       int     `json:"seats" binding:"required,min=1,max=60"`
	FuelType    string  `json:"fuel_type" binding:"required"`
	Consumption float64 `json:"consumption_l_per_100km" binding:"required,gt=0"`
}

// UpdateVehicleRequest is the request DTO for updating a vehicle. Empty fields
// are left unchanged.
type UpdateVehicleRequest struct {
	Make        string  `json:"make" binding:"max=50"`
	Model       string  `json:"model" binding:"max=50"`
	GroupName   string  `json:"group_name" binding:"max=50"`
	Seats       int     `json:"seats" binding:"omitempty,min=1,max=60"`
	FuelType    string  `json:"fuel_type"`
	Consumption float64 `json:"consumption_l_per_100km" binding:"omitempty,gt=0"`
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID          uuid.UUID `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	GroupName   string    `json:"group_name,omitempty"`
	Seats       int       `json:"seats"`
	FuelType    string    `json:"fuel_type"`
	Consumption float64   `json:"consumption_l_per_100km"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VehicleService implements use cases for fleet vehicle management.
type VehicleService struct {
	repo   vehicle.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicle.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// CreateVehicle registers a new vehicle.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	fuelType, err := fuel.ParseType(req.FuelType)
	if err != nil {
		return nil, err
	}
	v, err := vehicle.NewVehicle(req.PlateNumber, req.Make, req.Model, req.GroupName, req.Seats, fuelType, req.Consumption)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("plate_number", v.PlateNumber()),
	)
	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle returns a single vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles returns active vehicles, optionally within one vehicle group.
func (s *VehicleService) ListVehicles(ctx context.Context, group string, page, limit int) (*domain.PaginatedResult[VehicleDTO], error) {
	vehicles, total, err := s.repo.List(ctx, group, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateVehicle applies a partial update to a vehicle.
func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fuelType fuel.Type
	if req.FuelType != "" {
		if fuelType, err = fuel.ParseType(req.FuelType); err != nil {
			return nil, err
		}
	}
	if err := v.Update(req.Make, req.Model, req.GroupName, req.Seats, fuelType, req.Consumption); err != nil {
		return nil, err
	}

	v.IncrementVersion()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle updated", zap.String("vehicle_id", id.String()))
	result := toVehicleDTO(v)
	return &result, nil
}

// ArchiveVehicle takes a vehicle out of service. Archived vehicles can no
// longer be assigned to trips.
func (s *VehicleService) ArchiveVehicle(ctx context.Context, id uuid.UUID) error {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !v.IsActive() {
		return nil
	}

	v.Archive()
	v.IncrementVersion()
	if err := s.repo.Update(ctx, v); err != nil {
		return err
	}

	s.logger.Info("vehicle archived", zap.String("vehicle_id", id.String()))
	return nil
}

func toVehicleDTO(v *vehicle.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:          v.ID(),
		PlateNumber: v.PlateNumber(),
		Make:        v.Make(),
		Model:       v.Model(),
		GroupName:   v.GroupName(),
		Seats:       v.Seats(),
		FuelType:    string(v.FuelType()),
		Consumption: v.Consumption(),
		Status:      string(v.Status()),
		Version:     v.Version(),
		CreatedAt:   v.CreatedAt(),
		UpdatedAt:   v.UpdatedAt(),
	}
}
