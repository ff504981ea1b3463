package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/tripxl/service-booking/internal/domain/booking"
	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/domain/vehicle"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/events"
	"github.com/tripxl/service-booking/internal/platform/kafka"
)

const eventSource = "service-booking"

// DefaultFuelType prices trips that have no vehicle assigned yet.
const DefaultFuelType = fuel.TypePetrol

// LocationDTO is a named point in booking requests and responses.
type LocationDTO struct {
	Name string   `json:"name" binding:"required,max=200"`
	Lat  *float64 `json:"lat" binding:"required"`
	Lng  *float64 `json:"lng" binding:"required"`
}

func (l LocationDTO) toLocation(field string) (bookingDomain.Location, error) {
	p, err := requiredPoint(l.Lat, l.Lng, field)
	if err != nil {
		return bookingDomain.Location{}, err
	}
	return bookingDomain.Location{Name: l.Name, Point: p}, nil
}

func toLocationDTO(l bookingDomain.Location) LocationDTO {
	lat, lng := l.Point.Lat, l.Point.Lng
	return LocationDTO{Name: l.Name, Lat: &lat, Lng: &lng}
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	Pickup      LocationDTO     `json:"pickup" binding:"required"`
	Dropoff     LocationDTO     `json:"dropoff" binding:"required"`
	Waypoints   []LocationDTO   `json:"waypoints" binding:"omitempty,dive"`
	Options     RouteOptionsDTO `json:"options"`
	Passengers  int             `json:"passengers" binding:"required,min=1"`
	Purpose     string          `json:"purpose" binding:"required,max=500"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// ApproveBookingRequest optionally assigns a vehicle and a driver on approval.
type ApproveBookingRequest struct {
	VehicleID *uuid.UUID `json:"vehicle_id"`
	DriverID  *uuid.UUID `json:"driver_id"`
}

// RerouteBookingRequest recalculates a booking's route with new options.
type RerouteBookingRequest struct {
	Options RouteOptionsDTO `json:"options"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                uuid.UUID                         `json:"id"`
	BookingNumber     string                            `json:"booking_number"`
	RequesterID       uuid.UUID                         `json:"requester_id"`
	VehicleID         *uuid.UUID                        `json:"vehicle_id,omitempty"`
	DriverID          *uuid.UUID                        `json:"driver_id,omitempty"`
	Status            string                            `json:"status"`
	Pickup            LocationDTO                       `json:"pickup"`
	Dropoff           LocationDTO                       `json:"dropoff"`
	Waypoints         []LocationDTO                     `json:"waypoints"`
	TravelMode        string                            `json:"travel_mode"`
	RouteSpec         *bookingDomain.RouteSpecification `json:"route_spec,omitempty"`
	EstimatedCostFils int64                             `json:"estimated_cost_fils"`
	Currency          string                            `json:"currency"`
	Passengers        int                               `json:"passengers"`
	Purpose           string                            `json:"purpose"`
	ScheduledAt       *time.Time                        `json:"scheduled_at,omitempty"`
	ApprovedBy        *uuid.UUID                        `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time                        `json:"approved_at,omitempty"`
	StartedAt         *time.Time                        `json:"started_at,omitempty"`
	CompletedAt       *time.Time                        `json:"completed_at,omitempty"`
	CancelledAt       *time.Time                        `json:"cancelled_at,omitempty"`
	CancelNote        string                            `json:"cancel_note,omitempty"`
	RejectionNote     string                            `json:"rejection_note,omitempty"`
	Notes             string                            `json:"notes,omitempty"`
	Version           int64                             `json:"version"`
	CreatedAt         time.Time                         `json:"created_at"`
	UpdatedAt         time.Time                         `json:"updated_at"`
}

// BookingService is the application service orchestrating trip booking use cases.
type BookingService struct {
	repo               bookingDomain.BookingRepository
	vehicles           vehicle.VehicleRepository
	prices             fuel.PriceRepository
	routes             RouteCalculator
	cost               bookingDomain.CostStrategy
	publisher          kafka.Publisher
	defaultConsumption float64
	logger             *zap.Logger
}

// NewBookingService creates a new BookingService. defaultConsumption (L/100 km)
// prices trips that have no vehicle assigned yet.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	vehicles vehicle.VehicleRepository,
	prices fuel.PriceRepository,
	routes RouteCalculator,
	cost bookingDomain.CostStrategy,
	publisher kafka.Publisher,
	defaultConsumption float64,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:               repo,
		vehicles:           vehicles,
		prices:             prices,
		routes:             routes,
		cost:               cost,
		publisher:          publisher,
		defaultConsumption: defaultConsumption,
		logger:             logger,
	}
}

// CreateBooking creates a new booking for the given employee, routes the trip
// and estimates its fuel cost.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	pickup, err := req.Pickup.toLocation("pickup")
	if err != nil {
		return nil, err
	}
	dropoff, err := req.Dropoff.toLocation("dropoff")
	if err != nil {
		return nil, err
	}
	waypoints := make([]bookingDomain.Location, len(req.Waypoints))
	for i, w := range req.Waypoints {
		if waypoints[i], err = w.toLocation(fmt.Sprintf("waypoints[%d]", i)); err != nil {
			return nil, err
		}
	}

	opts := req.Options.toOptions()
	bk, err := bookingDomain.NewBooking(
		requesterID,
		pickup,
		dropoff,
		waypoints,
		opts.Mode,
		req.Passengers,
		req.Purpose,
		req.ScheduledAt,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	opts.Mode = bk.TravelMode()
	if err := s.routeBooking(ctx, bk, opts, nil); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publishBookingRequested(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// ApproveBooking approves a requested booking, optionally assigning a vehicle
// and a driver. Assigning a vehicle re-estimates the cost with its consumption.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, approverID uuid.UUID, req ApproveBookingRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var v *vehicle.Vehicle
	if req.VehicleID != nil {
		v, err = s.vehicles.FindByID(ctx, *req.VehicleID)
		if err != nil {
			return nil, err
		}
		if !v.IsActive() {
			return nil, domain.NewValidationError(fmt.Sprintf("vehicle %s is not in service", v.PlateNumber()))
		}
		if !v.CanCarry(bk.Passengers()) {
			return nil, domain.NewValidationError(fmt.Sprintf("vehicle %s cannot carry %d passengers", v.PlateNumber(), bk.Passengers()))
		}
	}

	if err := bk.Approve(approverID, req.VehicleID, req.DriverID); err != nil {
		return nil, err
	}

	if v != nil && bk.RouteSpec() != nil {
		cost := s.estimateCost(ctx, bk.RouteSpec().DistanceMeters, v)
		if err := bk.SetRoute(bk.RouteSpec(), cost); err != nil {
			return nil, err
		}
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingApprovedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		ApprovedBy:    approverID,
		VehicleID:     bk.VehicleID(),
		DriverID:      bk.DriverID(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingApproved, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// RejectBooking rejects a requested booking.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, approverID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Reject(approverID, reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingRejectedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		RejectedBy:    approverID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRejected, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// StartTrip marks an approved trip as in progress.
func (s *BookingService) StartTrip(ctx context.Context, bookingID, driverID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Start(driverID); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingStartedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		DriverID:      driverID,
		StartedAt:     *bk.StartedAt(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStarted, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteTrip marks a trip in progress as completed. Only the assigned
// driver may complete it.
func (s *BookingService) CompleteTrip(ctx context.Context, bookingID, driverID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsAssignedTo(driverID) {
		return nil, domain.NewForbiddenError("booking is assigned to another driver")
	}
	if err := bk.Complete(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	var distance float64
	if bk.RouteSpec() != nil {
		distance = bk.RouteSpec().DistanceMeters
	}
	evt := events.BookingCompletedEvent{
		BookingID:         bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		RequesterID:       bk.RequesterID(),
		DriverID:          driverID,
		DistanceMeters:    distance,
		EstimatedCostFils: bk.EstimatedCostFils(),
		Currency:          bk.Currency(),
		CompletedAt:       *bk.CompletedAt(),
		OccurredAt:        time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking that has not started. Requesters may cancel
// their own bookings; approvers and admins may cancel any.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, role, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsRequestedBy(userID) && role != auth.RoleApprover && role != auth.RoleAdmin {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CancelledBy:   userID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// RerouteBooking recalculates the route of a booking that has not started,
// typically after the first calculation fell back to a straight line.
func (s *BookingService) RerouteBooking(ctx context.Context, bookingID, userID uuid.UUID, role string, req RerouteBookingRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsRequestedBy(userID) && role != auth.RoleAdmin {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	if !bk.Status().CanBeRerouted() {
		return nil, domain.NewInvalidStateError(string(bk.Status()), "rerouted")
	}

	opts := req.Options.toOptions()
	if opts.Mode == "" {
		opts.Mode = bk.TravelMode()
	}
	if opts.Mode != bk.TravelMode() {
		return nil, domain.NewValidationError("travel mode cannot change on reroute")
	}

	var v *vehicle.Vehicle
	if bk.VehicleID() != nil {
		v, err = s.vehicles.FindByID(ctx, *bk.VehicleID())
		if err != nil && !domain.IsKind(err, domain.KindNotFound) {
			return nil, err
		}
	}
	if err := s.routeBooking(ctx, bk, opts, v); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	spec := bk.RouteSpec()
	evt := events.BookingReroutedEvent{
		BookingID:         bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		DistanceMeters:    spec.DistanceMeters,
		DurationSeconds:   spec.DurationSeconds,
		RouteSource:       string(spec.Source),
		Provider:          spec.Provider,
		EstimatedCostFils: bk.EstimatedCostFils(),
		OccurredAt:        time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRerouted, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID. Employees see their own
// bookings and drivers the ones assigned to them.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID, role string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canView(bk, userID, role) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves the bookings relevant to the caller: assigned trips
// for drivers, all bookings for approvers (optionally by status), and own
// bookings for everyone else.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID, role string, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)
	switch role {
	case auth.RoleDriver:
		bookings, total, err = s.repo.FindByDriverID(ctx, userID, page, limit)
	case auth.RoleApprover:
		filter, ferr := parseListFilter(status)
		if ferr != nil {
			return nil, ferr
		}
		bookings, total, err = s.repo.ListAll(ctx, filter, page, limit)
	default:
		bookings, total, err = s.repo.FindByRequesterID(ctx, userID, page, limit)
	}
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	filter, err := parseListFilter(status)
	if err != nil {
		return nil, 0, err
	}
	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := make(map[string]int64, len(counts))
	for _, st := range bookingDomain.AllStatuses() {
		byStatus[string(st)] = 0
	}
	var total int64
	for st, c := range counts {
		byStatus[st] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// --- Helpers ---

// routeBooking calculates the trip's route and stores it with the cost
// estimated for v, or for the default consumption when v is nil.
func (s *BookingService) routeBooking(ctx context.Context, bk *bookingDomain.Booking, opts route.Options, v *vehicle.Vehicle) error {
	origin, destination, waypoints := bk.Stops()
	r, err := s.routes.CalculateRoute(ctx, origin, destination, waypoints, opts)
	if err != nil {
		return err
	}
	if r.IsFallback() {
		s.logger.Warn("booking routed with straight-line fallback",
			zap.String("booking_number", bk.BookingNumber()),
		)
	}

	spec := bookingDomain.NewRouteSpecification(r)
	return bk.SetRoute(spec, s.estimateCost(ctx, spec.DistanceMeters, v))
}

// estimateCost prices distanceMeters in fils. Missing fuel prices yield zero
// rather than failing the booking.
func (s *BookingService) estimateCost(ctx context.Context, distanceMeters float64, v *vehicle.Vehicle) int64 {
	fuelType, consumption := DefaultFuelType, s.defaultConsumption
	if v != nil {
		fuelType, consumption = v.FuelType(), v.Consumption()
	}

	price, err := s.prices.FindByType(ctx, fuelType)
	if err != nil {
		s.logger.Warn("no fuel price available, trip cost left at zero",
			zap.String("fuel_type", string(fuelType)),
			zap.Error(err),
		)
		return 0
	}

	cost, err := s.cost.Calculate(bookingDomain.CostParams{
		DistanceKm:           distanceMeters / 1000,
		ConsumptionLPer100Km: consumption,
		PricePerLitre:        price.PricePerLitre(),
	})
	if err != nil {
		s.logger.Warn("trip cost estimation failed", zap.Error(err))
		return 0
	}
	return cost
}

func canView(bk *bookingDomain.Booking, userID uuid.UUID, role string) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleApprover:
		return true
	case auth.RoleDriver:
		return bk.IsAssignedTo(userID)
	default:
		return bk.IsRequestedBy(userID)
	}
}

func parseListFilter(status string) (bookingDomain.ListFilter, error) {
	if status == "" {
		return bookingDomain.ListFilter{}, nil
	}
	st, err := bookingDomain.ParseBookingStatus(status)
	if err != nil {
		return bookingDomain.ListFilter{}, err
	}
	return bookingDomain.ListFilter{Status: st}, nil
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	waypoints := make([]LocationDTO, len(bk.Waypoints()))
	for i, w := range bk.Waypoints() {
		waypoints[i] = toLocationDTO(w)
	}
	return BookingDTO{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		RequesterID:       bk.RequesterID(),
		VehicleID:         bk.VehicleID(),
		DriverID:          bk.DriverID(),
		Status:            string(bk.Status()),
		Pickup:            toLocationDTO(bk.Pickup()),
		Dropoff:           toLocationDTO(bk.Dropoff()),
		Waypoints:         waypoints,
		TravelMode:        string(bk.TravelMode()),
		RouteSpec:         bk.RouteSpec(),
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
	}
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingRequestedEvent{
		BookingID:         bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		RequesterID:       bk.RequesterID(),
		PickupLat:         bk.Pickup().Point.Lat,
		PickupLng:         bk.Pickup().Point.Lng,
		DropoffLat:        bk.Dropoff().Point.Lat,
		DropoffLng:        bk.Dropoff().Point.Lng,
		WaypointCount:     len(bk.Waypoints()),
		TravelMode:        string(bk.TravelMode()),
		Passengers:        bk.Passengers(),
		EstimatedCostFils: bk.EstimatedCostFils(),
		Currency:          bk.Currency(),
		ScheduledAt:       bk.ScheduledAt(),
		OccurredAt:        time.Now().UTC(),
	}
	if spec := bk.RouteSpec(); spec != nil {
		evt.DistanceMeters = spec.DistanceMeters
		evt.RouteSource = string(spec.Source)
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishKeyed(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
