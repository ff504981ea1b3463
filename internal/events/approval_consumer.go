package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/events"
	"github.com/tripxl/service-booking/internal/platform/kafka"
)

// BookingApprover applies approval decisions. *application.BookingService implements it.
type BookingApprover interface {
	ApproveBooking(ctx context.Context, bookingID, approverID uuid.UUID, req application.ApproveBookingRequest) (*application.BookingDTO, error)
	RejectBooking(ctx context.Context, bookingID, approverID uuid.UUID, reason string) (*application.BookingDTO, error)
}

// ApprovalEventConsumer listens to the approval workflow and approves or
// rejects bookings accordingly.
type ApprovalEventConsumer struct {
	consumer *kafka.Consumer
	service  BookingApprover
	logger   *zap.Logger
}

// NewApprovalEventConsumer creates a new ApprovalEventConsumer.
func NewApprovalEventConsumer(
	brokers []string,
	groupID string,
	service BookingApprover,
	logger *zap.Logger,
) *ApprovalEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicApprovalEvents, logger)
	return &ApprovalEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming approval events. This blocks until the context is cancelled.
func (c *ApprovalEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ApprovalEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ApprovalEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from approval topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.ApprovalGranted:
		return c.handleGranted(ctx, cloudEvent)
	case events.ApprovalRejected:
		return c.handleRejected(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled approval event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ApprovalEventConsumer) handleGranted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.ApprovalGrantedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ApprovalGrantedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing approval granted event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("approver_id", evt.ApproverID.String()),
	)

	_, err := c.service.ApproveBooking(ctx, evt.BookingID, evt.ApproverID, application.ApproveBookingRequest{
		VehicleID: evt.VehicleID,
		DriverID:  evt.DriverID,
	})
	return c.settle(evt.BookingID, "approve", err)
}

func (c *ApprovalEventConsumer) handleRejected(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.ApprovalRejectedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ApprovalRejectedEvent data", zap.Error(err))
		return nil
	}

	c.logger.Info("processing approval rejected event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("approver_id", evt.ApproverID.String()),
	)

	_, err := c.service.RejectBooking(ctx, evt.BookingID, evt.ApproverID, evt.Reason)
	return c.settle(evt.BookingID, "reject", err)
}

// settle logs the outcome of applying a decision. Application errors are
// final except optimistic-lock conflicts; those and infrastructure errors are
// returned so the consumer retries the message.
func (c *ApprovalEventConsumer) settle(bookingID uuid.UUID, action string, err error) error {
	if err == nil {
		c.logger.Info("approval decision applied",
			zap.String("booking_id", bookingID.String()),
			zap.String("action", action),
		)
		return nil
	}

	if domain.IsKind(err, domain.KindConflict) {
		c.logger.Warn("booking changed concurrently, retrying approval decision",
			zap.String("booking_id", bookingID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}

	if _, ok := domain.AsAppError(err); ok {
		c.logger.Warn("approval decision not applicable",
			zap.String("booking_id", bookingID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Error("failed to apply approval decision",
		zap.String("booking_id", bookingID.String()),
		zap.String("action", action),
		zap.Error(err),
	)
	return err
}
