package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/tripxl/service-booking/internal/domain/booking"
	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/database"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber     string          `gorm:"uniqueIndex;not null;size:20"`
	RequesterID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleID         *uuid.UUID      `gorm:"type:uuid;index"`
	DriverID          *uuid.UUID      `gorm:"type:uuid;index"`
	Status            string          `gorm:"not null;size:30;index"`
	Pickup            json.RawMessage `gorm:"type:jsonb;not null"`
	Dropoff           json.RawMessage `gorm:"type:jsonb;not null"`
	Waypoints         json.RawMessage `gorm:"type:jsonb;not null"`
	TravelMode        string          `gorm:"not null;size:20"`
	RouteSpec         json.RawMessage `gorm:"type:jsonb"`
	EstimatedCostFils int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3;default:'AED'"`
	Passengers        int             `gorm:"not null"`
	Purpose           string          `gorm:"not null;size:500"`
	ScheduledAt       *time.Time      `gorm:""`
	ApprovedBy        *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt        *time.Time      `gorm:""`
	StartedAt         *time.Time      `gorm:""`
	CompletedAt       *time.Time      `gorm:""`
	CancelledAt       *time.Time      `gorm:""`
	CancelNote        string          `gorm:"size:500"`
	RejectionNote     string          `gorm:"size:500"`
	Notes             string          `gorm:"size:2000"`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRequesterID retrieves bookings made by an employee with pagination.
func (r *GormBookingRepository) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("requester_id = ?", requesterID)
	}, page, limit)
}

// FindByDriverID retrieves bookings assigned to a driver with pagination.
func (r *GormBookingRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("driver_id = ?", driverID)
	}, page, limit)
}

// ListAll retrieves all bookings with pagination, optionally by status.
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			return db.Where("status = ?", string(filter.Status))
		}
		return db
	}, page, limit)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.NewConflictError("booking number already exists")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion has already been called on the aggregate.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"vehicle_id":          model.VehicleID,
			"driver_id":           model.DriverID,
			"status":              model.Status,
			"route_spec":          model.RouteSpec,
			"estimated_cost_fils": model.EstimatedCostFils,
			"approved_by":         model.ApprovedBy,
			"approved_at":         model.ApprovedAt,
			"started_at":          model.StartedAt,
			"completed_at":        model.CompletedAt,
			"cancelled_at":        model.CancelledAt,
			"cancel_note":         model.CancelNote,
			"rejection_note":      model.RejectionNote,
			"notes":               model.Notes,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

func (r *GormBookingRepository) findPage(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	pickupJSON, err := json.Marshal(bk.Pickup())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup: %w", err)
	}

	dropoffJSON, err := json.Marshal(bk.Dropoff())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dropoff: %w", err)
	}

	waypoints := bk.Waypoints()
	if waypoints == nil {
		waypoints = []bookingDomain.Location{}
	}
	waypointsJSON, err := json.Marshal(waypoints)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal waypoints: %w", err)
	}

	var routeSpecJSON json.RawMessage
	if bk.RouteSpec() != nil {
		data, err := json.Marshal(bk.RouteSpec())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal route spec: %w", err)
		}
		routeSpecJSON = data
	}

	return &BookingModel{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		RequesterID:       bk.RequesterID(),
		VehicleID:         bk.VehicleID(),
		DriverID:          bk.DriverID(),
		Status:            string(bk.Status()),
		Pickup:            pickupJSON,
		Dropoff:           dropoffJSON,
		Waypoints:         waypointsJSON,
		TravelMode:        string(bk.TravelMode()),
		RouteSpec:         routeSpecJSON,
		EstimatedCostFils: bk.EstimatedCostFils(),
		Currency:          bk.Currency(),
		Passengers:        bk.Passengers(),
		Purpose:           bk.Purpose(),
		ScheduledAt:       bk.ScheduledAt(),
		ApprovedBy:        bk.ApprovedBy(),
		ApprovedAt:        bk.ApprovedAt(),
		StartedAt:         bk.StartedAt(),
		CompletedAt:       bk.CompletedAt(),
		CancelledAt:       bk.CancelledAt(),
		CancelNote:        bk.CancelNote(),
		RejectionNote:     bk.RejectionNote(),
		Notes:             bk.Notes(),
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var pickup, dropoff bookingDomain.Location
	if err := json.Unmarshal(m.Pickup, &pickup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pickup: %w", err)
	}
	if err := json.Unmarshal(m.Dropoff, &dropoff); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dropoff: %w", err)
	}

	var waypoints []bookingDomain.Location
	if len(m.Waypoints) > 0 {
		if err := json.Unmarshal(m.Waypoints, &waypoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal waypoints: %w", err)
		}
	}

	var routeSpec *bookingDomain.RouteSpecification
	if len(m.RouteSpec) > 0 && string(m.RouteSpec) != "null" {
		var rs bookingDomain.RouteSpecification
		if err := json.Unmarshal(m.RouteSpec, &rs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route spec: %w", err)
		}
		routeSpec = &rs
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:                m.ID,
		BookingNumber:     m.BookingNumber,
		RequesterID:       m.RequesterID,
		VehicleID:         m.VehicleID,
		DriverID:          m.DriverID,
		Status:            status,
		Pickup:            pickup,
		Dropoff:           dropoff,
		Waypoints:         waypoints,
		TravelMode:        route.TravelMode(m.TravelMode),
		RouteSpec:         routeSpec,
		EstimatedCostFils: m.EstimatedCostFils,
		Currency:          m.Currency,
		Passengers:        m.Passengers,
		Purpose:           m.Purpose,
		ScheduledAt:       m.ScheduledAt,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
		CancelNote:        m.CancelNote,
		RejectionNote:     m.RejectionNote,
		Notes:             m.Notes,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}), nil
}
