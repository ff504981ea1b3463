//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/events"
)

// TestBookingLifecycle_ApprovalEvents covers the event flow end to end: a
// booking is created against Postgres, its requested event lands on
// booking.events, and approval decisions published to approval.events move
// it to approved or rejected.
func TestBookingLifecycle_ApprovalEvents(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := stack.Fuel.UpdatePrices(ctx, application.UpdateFuelPricesRequest{
		Prices: map[string]float64{"PETROL": 2.58, "DIESEL": 2.67},
		Source: "integration test",
	})
	require.NoError(t, err)

	requesterID := uuid.New()
	approved := createRequestedBooking(t, stack.Service, requesterID)
	rejected := createRequestedBooking(t, stack.Service, requesterID)

	require.NotNil(t, approved.RouteSpec)
	assert.Equal(t, route.SourceFallback, approved.RouteSpec.Source)
	assert.Greater(t, approved.RouteSpec.DistanceMeters, 100000.0)
	assert.Positive(t, approved.EstimatedCostFils)

	ce := consumeEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingRequested, approved.ID, 15*time.Second)
	var requested events.BookingRequestedEvent
	require.NoError(t, ce.ParseData(&requested))
	assert.Equal(t, requesterID, requested.RequesterID)
	assert.Equal(t, string(route.SourceFallback), requested.RouteSource)

	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	approverID := uuid.New()
	publishTestEvent(t, infra.KafkaBrokers, events.TopicApprovalEvents,
		"service-approval", events.ApprovalGranted, events.ApprovalGrantedEvent{
			BookingID:  approved.ID,
			ApproverID: approverID,
			OccurredAt: time.Now().UTC(),
		})
	publishTestEvent(t, infra.KafkaBrokers, events.TopicApprovalEvents,
		"service-approval", events.ApprovalRejected, events.ApprovalRejectedEvent{
			BookingID:  rejected.ID,
			ApproverID: approverID,
			Reason:     "outside travel policy",
			OccurredAt: time.Now().UTC(),
		})

	model := waitForBookingStatus(t, infra.DB, approved.ID, "approved", 15*time.Second)
	require.NotNil(t, model.ApprovedBy)
	assert.Equal(t, approverID, *model.ApprovedBy)
	assert.Equal(t, int64(2), model.Version)

	model = waitForBookingStatus(t, infra.DB, rejected.ID, "rejected", 15*time.Second)
	assert.Equal(t, "outside travel policy", model.RejectionNote)

	ce = consumeEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingApproved, approved.ID, 15*time.Second)
	var approvedEvt events.BookingApprovedEvent
	require.NoError(t, ce.ParseData(&approvedEvt))
	assert.Equal(t, approverID, approvedEvt.ApprovedBy)
	assert.Equal(t, requesterID, approvedEvt.RequesterID)
}

// TestApprovalForUnknownBooking_IsSkipped verifies that a decision for a
// booking this service does not know is logged and committed instead of
// blocking the partition.
func TestApprovalForUnknownBooking_IsSkipped(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	publishTestEvent(t, infra.KafkaBrokers, events.TopicApprovalEvents,
		"service-approval", events.ApprovalGranted, events.ApprovalGrantedEvent{
			BookingID:  uuid.New(),
			ApproverID: uuid.New(),
			OccurredAt: time.Now().UTC(),
		})

	// A later decision on the same partition still gets applied.
	booking := createRequestedBooking(t, stack.Service, uuid.New())
	publishTestEvent(t, infra.KafkaBrokers, events.TopicApprovalEvents,
		"service-approval", events.ApprovalGranted, events.ApprovalGrantedEvent{
			BookingID:  booking.ID,
			ApproverID: uuid.New(),
			OccurredAt: time.Now().UTC(),
		})

	waitForBookingStatus(t, infra.DB, booking.ID, "approved", 20*time.Second)
}
