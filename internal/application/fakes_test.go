package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/tripxl/service-booking/internal/domain/booking"
	"github.com/tripxl/service-booking/internal/domain/fuel"
	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/domain/vehicle"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/kafka"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
	}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

func (r *memBookingRepo) FindByRequesterID(_ context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool { return bk.IsRequestedBy(requesterID) }, page, limit)
}

func (r *memBookingRepo) FindByDriverID(_ context.Context, driverID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool { return bk.IsAssignedTo(driverID) }, page, limit)
}

func (r *memBookingRepo) ListAll(_ context.Context, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool { return f.Status == "" || bk.Status() == f.Status }, page, limit)
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	r.versions[bk.ID()] = bk.Version()
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versions[bk.ID()] != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = bk
	r.versions[bk.ID()] = bk.Version()
	return nil
}

func (r *memBookingRepo) filter(keep func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if keep(bk) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type memVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicle.Vehicle
}

func newMemVehicleRepo(vs ...*vehicle.Vehicle) *memVehicleRepo {
	r := &memVehicleRepo{vehicles: make(map[uuid.UUID]*vehicle.Vehicle)}
	for _, v := range vs {
		r.vehicles[v.ID()] = v
	}
	return r
}

func (r *memVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}
	return v, nil
}

func (r *memVehicleRepo) List(_ context.Context, group string, page, limit int) ([]*vehicle.Vehicle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*vehicle.Vehicle
	for _, v := range r.vehicles {
		if v.IsActive() && (group == "" || v.GroupName() == group) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlateNumber() < out[j].PlateNumber() })
	return out, int64(len(out)), nil
}

func (r *memVehicleRepo) Save(_ context.Context, v *vehicle.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vehicles {
		if existing.PlateNumber() == v.PlateNumber() {
			return domain.NewConflictError("vehicle with this plate number already exists")
		}
	}
	r.vehicles[v.ID()] = v
	return nil
}

func (r *memVehicleRepo) Update(_ context.Context, v *vehicle.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

type memPriceRepo struct {
	mu     sync.Mutex
	prices map[fuel.Type]*fuel.Price
	err    error
}

func newMemPriceRepo(prices map[fuel.Type]float64) *memPriceRepo {
	r := &memPriceRepo{prices: make(map[fuel.Type]*fuel.Price)}
	for t, v := range prices {
		p, err := fuel.NewPrice(t, v, time.Time{}, "test")
		if err != nil {
			panic(err)
		}
		r.prices[t] = p
	}
	return r
}

func (r *memPriceRepo) FindByType(_ context.Context, t fuel.Type) (*fuel.Price, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prices[t]
	if !ok {
		return nil, domain.NewNotFoundError("fuel price", string(t))
	}
	return p, nil
}

func (r *memPriceRepo) ListAll(_ context.Context) ([]*fuel.Price, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*fuel.Price, 0, len(r.prices))
	for _, p := range r.prices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FuelType() < out[j].FuelType() })
	return out, nil
}

func (r *memPriceRepo) Upsert(_ context.Context, prices []*fuel.Price) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, p := range prices {
		r.prices[p.FuelType()] = p
	}
	return nil
}

// stubRoutes returns a provider route of fixed length between the stops, or
// a fallback route when fallback is set.
type stubRoutes struct {
	mu       sync.Mutex
	distance float64
	duration float64
	fallback bool
	calls    []route.Options
}

func (s *stubRoutes) CalculateRoute(_ context.Context, origin, destination route.Waypoint, waypoints []route.Waypoint, opts route.Options) (*route.Route, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opts)
	s.mu.Unlock()

	if _, err := opts.Normalized(); err != nil {
		return nil, err
	}

	stops := route.Stops(origin, destination, waypoints)
	r := &route.Route{Source: route.SourceProvider, Provider: "stub"}
	if s.fallback {
		r.Source, r.Provider = route.SourceFallback, ""
	}
	n := float64(len(stops) - 1)
	for i := 0; i+1 < len(stops); i++ {
		r.Path = append(r.Path, stops[i].Location)
		r.Legs = append(r.Legs, route.Leg{
			DistanceMeters: s.distance / n,
			TimeSeconds:    s.duration / n,
			StartPoint:     stops[i].Location,
			EndPoint:       stops[i+1].Location,
			Steps:          []route.Step{},
		})
	}
	r.Path = append(r.Path, destination.Location)
	r.Recompute()
	return r, nil
}

func (s *stubRoutes) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
	keys   []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error {
	return p.PublishKeyed(ctx, topic, event.ID, event)
}

func (p *recordingPublisher) PublishKeyed(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) last() kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func coord(v float64) *float64 { return &v }

func loc(name string, lat, lng float64) LocationDTO {
	return LocationDTO{Name: name, Lat: coord(lat), Lng: coord(lng)}
}

func wp(lat, lng float64) WaypointDTO {
	return WaypointDTO{Lat: coord(lat), Lng: coord(lng)}
}
