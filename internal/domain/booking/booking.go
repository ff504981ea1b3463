package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

const (
	bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// MaxWaypoints bounds the intermediate stops of one trip.
	MaxWaypoints = 10
	// MaxPassengers bounds the passengers of one trip.
	MaxPassengers = 50
)

// Booking is the aggregate root for the trip booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	requesterID   uuid.UUID
	vehicleID     *uuid.UUID
	driverID      *uuid.UUID
	status        BookingStatus
	pickup        Location
	dropoff       Location
	waypoints     []Location
	travelMode    route.TravelMode
	routeSpec     *RouteSpecification

	estimatedCostFils int64
	currency          string

	passengers  int
	purpose     string
	scheduledAt *time.Time

	approvedBy    *uuid.UUID
	approvedAt    *time.Time
	startedAt     *time.Time
	completedAt   *time.Time
	cancelledAt   *time.Time
	cancelNote    string
	rejectionNote string
	notes         string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=requested.
func NewBooking(
	requesterID uuid.UUID,
	pickup Location,
	dropoff Location,
	waypoints []Location,
	travelMode route.TravelMode,
	passengers int,
	purpose string,
	scheduledAt *time.Time,
	notes string,
) (*Booking, error) {
	if requesterID == uuid.Nil {
		return nil, domain.NewValidationError("requester ID is required")
	}
	if err := pickup.Validate("pickup"); err != nil {
		return nil, err
	}
	if err := dropoff.Validate("dropoff"); err != nil {
		return nil, err
	}
	if len(waypoints) > MaxWaypoints {
		return nil, domain.NewValidationError(fmt.Sprintf("at most %d waypoints are allowed", MaxWaypoints))
	}
	for i, w := range waypoints {
		if err := w.Validate(fmt.Sprintf("waypoint %d", i+1)); err != nil {
			return nil, err
		}
	}
	mode, err := route.ParseTravelMode(string(travelMode))
	if err != nil {
		return nil, err
	}
	if passengers < 1 || passengers > MaxPassengers {
		return nil, domain.NewValidationError(fmt.Sprintf("passengers must be between 1 and %d", MaxPassengers))
	}
	if strings.TrimSpace(purpose) == "" {
		return nil, domain.NewValidationError("trip purpose is required")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		requesterID:   requesterID,
		status:        StatusRequested,
		pickup:        pickup,
		dropoff:       dropoff,
		waypoints:     append([]Location(nil), waypoints...),
		travelMode:    mode,
		currency:      domain.CurrencyAED,
		passengers:    passengers,
		purpose:       purpose,
		scheduledAt:   scheduledAt,
		notes:         notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Snapshot carries persisted booking state into ReconstructBooking.
type Snapshot struct {
	ID                uuid.UUID
	BookingNumber     string
	RequesterID       uuid.UUID
	VehicleID         *uuid.UUID
	DriverID          *uuid.UUID
	Status            BookingStatus
	Pickup            Location
	Dropoff           Location
	Waypoints         []Location
	TravelMode        route.TravelMode
	RouteSpec         *RouteSpecification
	EstimatedCostFils int64
	Currency          string
	Passengers        int
	Purpose           string
	ScheduledAt       *time.Time
	ApprovedBy        *uuid.UUID
	ApprovedAt        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelNote        string
	RejectionNote     string
	Notes             string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:                s.ID,
		bookingNumber:     s.BookingNumber,
		requesterID:       s.RequesterID,
		vehicleID:         s.VehicleID,
		driverID:          s.DriverID,
		status:            s.Status,
		pickup:            s.Pickup,
		dropoff:           s.Dropoff,
		waypoints:         s.Waypoints,
		travelMode:        s.TravelMode,
		routeSpec:         s.RouteSpec,
		estimatedCostFils: s.EstimatedCostFils,
		currency:          s.Currency,
		passengers:        s.Passengers,
		purpose:           s.Purpose,
		scheduledAt:       s.ScheduledAt,
		approvedBy:        s.ApprovedBy,
		approvedAt:        s.ApprovedAt,
		startedAt:         s.StartedAt,
		completedAt:       s.CompletedAt,
		cancelledAt:       s.CancelledAt,
		cancelNote:        s.CancelNote,
		rejectionNote:     s.RejectionNote,
		notes:             s.Notes,
		version:           s.Version,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RequesterID returns the ID of the employee who requested the trip.
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }

// VehicleID returns the assigned vehicle, or nil if unassigned.
func (b *Booking) VehicleID() *uuid.UUID { return b.vehicleID }

// DriverID returns the assigned driver, or nil if unassigned.
func (b *Booking) DriverID() *uuid.UUID { return b.driverID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Pickup returns where the trip starts.
func (b *Booking) Pickup() Location { return b.pickup }

// Dropoff returns where the trip ends.
func (b *Booking) Dropoff() Location { return b.dropoff }

// Waypoints returns the intermediate stops in visiting order.
func (b *Booking) Waypoints() []Location { return b.waypoints }

// TravelMode returns the mode the trip is routed for.
func (b *Booking) TravelMode() route.TravelMode { return b.travelMode }

// RouteSpec returns the route specification, or nil if not yet calculated.
func (b *Booking) RouteSpec() *RouteSpecification { return b.routeSpec }

// EstimatedCostFils returns the estimated fuel cost in fils.
func (b *Booking) EstimatedCostFils() int64 { return b.estimatedCostFils }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// Passengers returns the number of travellers.
func (b *Booking) Passengers() int { return b.passengers }

// Purpose returns the business purpose of the trip.
func (b *Booking) Purpose() string { return b.purpose }

// ScheduledAt returns the scheduled departure, or nil if immediate.
func (b *Booking) ScheduledAt() *time.Time { return b.scheduledAt }

// ApprovedBy returns the approver's user ID.
func (b *Booking) ApprovedBy() *uuid.UUID { return b.approvedBy }

// ApprovedAt returns the time the booking was approved or rejected.
func (b *Booking) ApprovedAt() *time.Time { return b.approvedAt }

// StartedAt returns the time the trip started.
func (b *Booking) StartedAt() *time.Time { return b.startedAt }

// CompletedAt returns the time the trip was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// RejectionNote returns the approver's reason for rejecting.
func (b *Booking) RejectionNote() string { return b.rejectionNote }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Stops returns pickup, waypoints and dropoff as routing stops.
func (b *Booking) Stops() (origin, destination route.Waypoint, waypoints []route.Waypoint) {
	return b.pickup.Waypoint(), b.dropoff.Waypoint(), Waypoints(b.waypoints)
}

// IsRequestedBy reports whether userID made the booking.
func (b *Booking) IsRequestedBy(userID uuid.UUID) bool {
	return b.requesterID == userID
}

// IsAssignedTo reports whether driverID drives the trip.
func (b *Booking) IsAssignedTo(driverID uuid.UUID) bool {
	return b.driverID != nil && *b.driverID == driverID
}

// --- Behavior ---

// Approve transitions the booking from requested to approved, optionally
// assigning a vehicle and a driver.
func (b *Booking) Approve(approverID uuid.UUID, vehicleID, driverID *uuid.UUID) error {
	if !b.status.CanTransitionTo(StatusApproved) {
		return domain.NewInvalidStateError(string(b.status), string(StatusApproved))
	}
	if approverID == uuid.Nil {
		return domain.NewValidationError("approver ID is required")
	}
	if approverID == b.requesterID {
		return domain.NewForbiddenError("requesters cannot approve their own bookings")
	}
	now := time.Now().UTC()
	b.status = StatusApproved
	b.approvedBy = &approverID
	b.approvedAt = &now
	if vehicleID != nil {
		b.vehicleID = vehicleID
	}
	if driverID != nil {
		b.driverID = driverID
	}
	b.updatedAt = now
	return nil
}

// Reject transitions the booking from requested to rejected.
func (b *Booking) Reject(approverID uuid.UUID, reason string) error {
	if !b.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(b.status), string(StatusRejected))
	}
	if approverID == uuid.Nil {
		return domain.NewValidationError("approver ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return domain.NewValidationError("rejection reason is required")
	}
	now := time.Now().UTC()
	b.status = StatusRejected
	b.approvedBy = &approverID
	b.approvedAt = &now
	b.rejectionNote = reason
	b.updatedAt = now
	return nil
}

// Start transitions the booking from approved to in_progress. An unassigned
// booking is assigned to the driver who starts it.
func (b *Booking) Start(driverID uuid.UUID) error {
	if !b.status.CanTransitionTo(StatusInProgress) {
		return domain.NewInvalidStateError(string(b.status), string(StatusInProgress))
	}
	if driverID == uuid.Nil {
		return domain.NewValidationError("driver ID is required")
	}
	if b.driverID != nil && *b.driverID != driverID {
		return domain.NewForbiddenError("booking is assigned to another driver")
	}
	now := time.Now().UTC()
	b.driverID = &driverID
	b.status = StatusInProgress
	b.startedAt = &now
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from in_progress to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if the trip has not started.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// SetRoute stores a calculated route and the cost estimated from it.
func (b *Booking) SetRoute(spec *RouteSpecification, estimatedCostFils int64) error {
	if spec == nil {
		return domain.NewValidationError("route specification is required")
	}
	if b.routeSpec != nil && !b.status.CanBeRerouted() {
		return domain.NewInvalidStateError(string(b.status), "rerouted")
	}
	if estimatedCostFils < 0 {
		return domain.NewValidationError("estimated cost cannot be negative")
	}
	b.routeSpec = spec
	b.estimatedCostFils = estimatedCostFils
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
