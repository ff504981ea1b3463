package vehicle

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// Status represents the lifecycle state of a fleet vehicle.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Vehicle is the aggregate root for a fleet vehicle.
type Vehicle struct {
	id          uuid.UUID
	plateNumber string
	make        string
	model       string
	groupName   string
	seats       int
	fuelType    fuel.Type
	consumption float64
	status      Status
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewVehicle creates a new active vehicle with validated fields.
// consumption is in litres per 100 km.
func NewVehicle(
	plateNumber, manufacturer, model, groupName string,
	seats int,
	fuelType fuel.Type,
	consumption float64,
) (*Vehicle, error) {
	plateNumber = normalizePlate(plateNumber)
	if plateNumber == "" {
		return nil, domain.NewValidationError("plate number is required")
	}
	if manufacturer == "" || model == "" {
		return nil, domain.NewValidationError("make and model are required")
	}
	if seats < 1 {
		return nil, domain.NewValidationError("vehicle must have at least one seat")
	}
	if !fuelType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", fuelType))
	}
	if !validConsumption(consumption) {
		return nil, domain.NewValidationError("fuel consumption must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:          uuid.New(),
		plateNumber: plateNumber,
		make:        manufacturer,
		model:       model,
		groupName:   groupName,
		seats:       seats,
		fuelType:    fuelType,
		consumption: consumption,
		status:      StatusActive,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	plateNumber, manufacturer, model, groupName string,
	seats int,
	fuelType fuel.Type,
	consumption float64,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:          id,
		plateNumber: plateNumber,
		make:        manufacturer,
		model:       model,
		groupName:   groupName,
		seats:       seats,
		fuelType:    fuelType,
		consumption: consumption,
		status:      status,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID { return v.id }
func (v *Vehicle) PlateNumber() string { return v.plateNumber }
func (v *Vehicle) Make() string { return v.make }
func (v *Vehicle) Model() string { return v.model }
func (v *Vehicle) GroupName() string { return v.groupName }
func (v *Vehicle) Seats() int { return v.seats }
func (v *Vehicle) FuelType() fuel.Type { return v.fuelType }
func (v *Vehicle) Consumption() float64 { return v.consumption }
func (v *Vehicle) Status() Status { return v.status }
func (v *Vehicle) Version() int64 { return v.version }
func (v *Vehicle) CreatedAt() time.Time { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time { return v.updatedAt }

// --- Behavior ---

// Update applies partial updates. Zero values leave a field unchanged.
func (v *Vehicle) Update(manufacturer, model, groupName string, seats int, fuelType fuel.Type, consumption float64) error {
	if fuelType != "" && !fuelType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", fuelType))
	}
	if consumption != 0 && !validConsumption(consumption) {
		return domain.NewValidationError("fuel consumption must be positive")
	}
	if seats < 0 {
		return domain.NewValidationError("seats cannot be negative")
	}

	if manufacturer != "" {
		v.make = manufacturer
	}
	if model != "" {
		v.model = model
	}
	if groupName != "" {
		v.groupName = groupName
	}
	if seats > 0 {
		v.seats = seats
	}
	if fuelType != "" {
		v.fuelType = fuelType
	}
	if consumption != 0 {
		v.consumption = consumption
	}
	v.updatedAt = time.Now().UTC()
	return nil
}

// Archive takes the vehicle out of service.
func (v *Vehicle) Archive() {
	v.status = StatusArchived
	v.updatedAt = time.Now().UTC()
}

// IsActive returns true if the vehicle can be assigned to trips.
func (v *Vehicle) IsActive() bool {
	return v.status == StatusActive
}

// CanCarry reports whether the vehicle seats the given number of passengers
// in addition to its driver.
func (v *Vehicle) CanCarry(passengers int) bool {
	return passengers <= v.seats-1
}

// IncrementVersion bumps the version for optimistic locking.
func (v *Vehicle) IncrementVersion() {
	v.version++
	v.updatedAt = time.Now().UTC()
}

func normalizePlate(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func validConsumption(c float64) bool {
	return !math.IsNaN(c) && !math.IsInf(c, 0) && c > 0
}
