package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/virtualclassroom/backend/internal/domain"
	"github.com/virtualclassroom/backend/internal/infrastructure/contracts"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/messaging"
)

// AuditConsumer drains the presence queue into the audit repository.
type AuditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.SignalAuditRepository
	logger   logging.Logger
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, audit domain.SignalAuditRepository, logger logging.Logger) *AuditConsumer {
	return &AuditConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		logger:   logger,
	}
}

// Start blocks consuming until the channel closes. Run it in its own goroutine.
func (c *AuditConsumer) Start() error {
	c.logger.Info(logging.RabbitMQ, logging.Startup, "audit consumer started", nil)

	return c.rabbitmq.ConsumeMessages(messaging.PresenceQueue, c.handle)
}

func (c *AuditConsumer) handle(ctx context.Context, msg amqp.Delivery) error {
	var envelope contracts.AmqpMessage
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal amqp message: %w", err)
	}

	var data messaging.PresenceEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal presence event: %w", err)
	}

	entry := &domain.SignalAuditLog{
		EventType:    domain.SignalEventType(envelope.Event),
		RoomID:       data.RoomID,
		ConnectionID: data.ConnectionID,
		UserID:       data.UserID,
		Timestamp:    data.OccurredAt,
	}

	if err := c.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist audit entry: %w", err)
	}

	c.logger.Debug(logging.RabbitMQ, logging.ExternalService, "presence event persisted", map[logging.ExtraKey]any{
		logging.Event:  envelope.Event,
		logging.RoomID: data.RoomID,
	})

	return nil
}
