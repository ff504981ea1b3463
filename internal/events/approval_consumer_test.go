package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/events"
	"github.com/tripxl/service-booking/internal/platform/kafka"
)

type approvalCall struct {
	action     string
	bookingID  uuid.UUID
	approverID uuid.UUID
	req        application.ApproveBookingRequest
	reason     string
}

type fakeApprover struct {
	calls []approvalCall
	// errs are returned by the first calls, in order; err by every later one.
	errs []error
	err  error
}

func (f *fakeApprover) nextErr() error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return f.err
}

func (f *fakeApprover) ApproveBooking(_ context.Context, bookingID, approverID uuid.UUID, req application.ApproveBookingRequest) (*application.BookingDTO, error) {
	f.calls = append(f.calls, approvalCall{action: "approve", bookingID: bookingID, approverID: approverID, req: req})
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return &application.BookingDTO{ID: bookingID}, nil
}

func (f *fakeApprover) RejectBooking(_ context.Context, bookingID, approverID uuid.UUID, reason string) (*application.BookingDTO, error) {
	f.calls = append(f.calls, approvalCall{action: "reject", bookingID: bookingID, approverID: approverID, reason: reason})
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return &application.BookingDTO{ID: bookingID}, nil
}

func newTestConsumer(approver BookingApprover) *ApprovalEventConsumer {
	return &ApprovalEventConsumer{service: approver, logger: zap.NewNop()}
}

func message(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("approval-workflow", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicApprovalEvents, Value: raw}
}

func TestHandleApprovalGranted(t *testing.T) {
	approver := &fakeApprover{}
	c := newTestConsumer(approver)
	bookingID, approverID, vehicleID := uuid.New(), uuid.New(), uuid.New()

	err := c.handleMessage(context.Background(), message(t, events.ApprovalGranted, events.ApprovalGrantedEvent{
		BookingID:  bookingID,
		ApproverID: approverID,
		VehicleID:  &vehicleID,
		OccurredAt: time.Now().UTC(),
	}))
	require.NoError(t, err)

	require.Len(t, approver.calls, 1)
	call := approver.calls[0]
	assert.Equal(t, "approve", call.action)
	assert.Equal(t, bookingID, call.bookingID)
	assert.Equal(t, approverID, call.approverID)
	require.NotNil(t, call.req.VehicleID)
	assert.Equal(t, vehicleID, *call.req.VehicleID)
	assert.Nil(t, call.req.DriverID)
}

func TestHandleApprovalRejected(t *testing.T) {
	approver := &fakeApprover{}
	c := newTestConsumer(approver)
	bookingID := uuid.New()

	err := c.handleMessage(context.Background(), message(t, events.ApprovalRejected, events.ApprovalRejectedEvent{
		BookingID:  bookingID,
		ApproverID: uuid.New(),
		Reason:     "outside travel policy",
	}))
	require.NoError(t, err)

	require.Len(t, approver.calls, 1)
	assert.Equal(t, "reject", approver.calls[0].action)
	assert.Equal(t, "outside travel policy", approver.calls[0].reason)
}

func TestHandleMessageSkipsMalformedAndUnknown(t *testing.T) {
	approver := &fakeApprover{}
	c := newTestConsumer(approver)

	tests := []struct {
		name string
		msg  kafkago.Message
	}{
		{"not json", kafkago.Message{Value: []byte("{not json")}},
		{"no type", kafkago.Message{Value: []byte(`{"id":"1","data":{}}`)}},
		{"bad payload", kafkago.Message{Value: []byte(`{"id":"1","type":"approval.granted","data":"oops"}`)}},
		{"unknown type", message(t, "approval.escalated", map[string]string{"booking_id": uuid.NewString()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, c.handleMessage(context.Background(), tt.msg))
		})
	}
	assert.Empty(t, approver.calls)
}

func TestHandleMessageErrors(t *testing.T) {
	msg := message(t, events.ApprovalGranted, events.ApprovalGrantedEvent{BookingID: uuid.New(), ApproverID: uuid.New()})

	t.Run("application error is final", func(t *testing.T) {
		c := newTestConsumer(&fakeApprover{err: domain.NewInvalidStateError("cancelled", "approved")})
		assert.NoError(t, c.handleMessage(context.Background(), msg))
	})

	t.Run("optimistic lock conflict is retried", func(t *testing.T) {
		c := newTestConsumer(&fakeApprover{err: domain.NewConflictError("booking was modified by another transaction")})
		assert.True(t, domain.IsKind(c.handleMessage(context.Background(), msg), domain.KindConflict))
	})

	t.Run("infrastructure error is retried", func(t *testing.T) {
		c := newTestConsumer(&fakeApprover{err: errors.New("connection refused")})
		assert.Error(t, c.handleMessage(context.Background(), msg))
	})
}

type queuedReader struct {
	mu        sync.Mutex
	pending   []kafkago.Message
	committed []int64
}

func (r *queuedReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *queuedReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queuedReader) Close() error { return nil }

func (r *queuedReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConflictingApprovalIsAppliedOnRetry(t *testing.T) {
	bookingID := uuid.New()
	granted := message(t, events.ApprovalGranted, events.ApprovalGrantedEvent{BookingID: bookingID, ApproverID: uuid.New()})
	granted.Offset = 5
	rejected := message(t, events.ApprovalRejected, events.ApprovalRejectedEvent{BookingID: uuid.New(), ApproverID: uuid.New(), Reason: "duplicate"})
	rejected.Offset = 6

	reader := &queuedReader{pending: []kafkago.Message{granted, rejected}}
	approver := &fakeApprover{errs: []error{domain.NewConflictError("booking was modified by another transaction")}}
	c := &ApprovalEventConsumer{
		consumer: kafka.NewConsumerFromReader(reader, zap.NewNop(), kafka.WithBackOff(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		})),
		service: approver,
		logger:  zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []int64{5, 6}, reader.commits())
	require.Len(t, approver.calls, 3)
	assert.Equal(t, "approve", approver.calls[0].action)
	assert.Equal(t, "approve", approver.calls[1].action)
	assert.Equal(t, bookingID, approver.calls[1].bookingID)
	assert.Equal(t, "reject", approver.calls[2].action)
}
