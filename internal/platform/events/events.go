// Package events holds the topics, event types and payloads shared between
// the booking service and the services it talks to over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicApprovalEvents = "approval.events"
)

// Booking event types, published on TopicBookingEvents.
const (
	BookingRequested = "booking.requested"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingStarted   = "booking.started"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	BookingRerouted  = "booking.rerouted"
)

// Approval event types, consumed from TopicApprovalEvents.
const (
	ApprovalGranted  = "approval.granted"
	ApprovalRejected = "approval.rejected"
)

// BookingRequestedEvent is published when an employee requests a trip.
type BookingRequestedEvent struct {
	BookingID         uuid.UUID  `json:"booking_id"`
	BookingNumber     string     `json:"booking_number"`
	RequesterID       uuid.UUID  `json:"requester_id"`
	PickupLat         float64    `json:"pickup_lat"`
	PickupLng         float64    `json:"pickup_lng"`
	DropoffLat        float64    `json:"dropoff_lat"`
	DropoffLng        float64    `json:"dropoff_lng"`
	WaypointCount     int        `json:"waypoint_count"`
	TravelMode        string     `json:"travel_mode"`
	Passengers        int        `json:"passengers"`
	DistanceMeters    float64    `json:"distance_meters"`
	RouteSource       string     `json:"route_source"`
	EstimatedCostFils int64      `json:"estimated_cost_fils"`
	Currency          string     `json:"currency"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// BookingApprovedEvent is published when an approver approves a trip.
type BookingApprovedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	RequesterID   uuid.UUID  `json:"requester_id"`
	ApprovedBy    uuid.UUID  `json:"approved_by"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// BookingRejectedEvent is published when an approver rejects a trip.
type BookingRejectedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	RequesterID   uuid.UUID `json:"requester_id"`
	RejectedBy    uuid.UUID `json:"rejected_by"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStartedEvent is published when the driver starts the trip.
type BookingStartedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	RequesterID   uuid.UUID `json:"requester_id"`
	DriverID      uuid.UUID `json:"driver_id"`
	StartedAt     time.Time `json:"started_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when the driver completes the trip.
type BookingCompletedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	BookingNumber     string    `json:"booking_number"`
	RequesterID       uuid.UUID `json:"requester_id"`
	DriverID          uuid.UUID `json:"driver_id"`
	DistanceMeters    float64   `json:"distance_meters"`
	EstimatedCostFils int64     `json:"estimated_cost_fils"`
	Currency          string    `json:"currency"`
	CompletedAt       time.Time `json:"completed_at"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingReroutedEvent is published when a booking's route is recalculated.
type BookingReroutedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	BookingNumber     string    `json:"booking_number"`
	DistanceMeters    float64   `json:"distance_meters"`
	DurationSeconds   float64   `json:"duration_seconds"`
	RouteSource       string    `json:"route_source"`
	Provider          string    `json:"provider,omitempty"`
	EstimatedCostFils int64     `json:"estimated_cost_fils"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// ApprovalGrantedEvent is produced by the approval workflow.
type ApprovalGrantedEvent struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	ApproverID uuid.UUID  `json:"approver_id"`
	VehicleID  *uuid.UUID `json:"vehicle_id,omitempty"`
	DriverID   *uuid.UUID `json:"driver_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ApprovalRejectedEvent is produced by the approval workflow.
type ApprovalRejectedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ApproverID uuid.UUID `json:"approver_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
