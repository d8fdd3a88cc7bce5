package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/virtualclassroom/backend/internal/infrastructure/contracts"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/messaging"
)

const publishQueueSize = 256

// messagePublisher is the slice of the RabbitMQ client the publisher uses.
type messagePublisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

// SignalPublisher emits relay presence changes onto the signaling exchange.
// It satisfies relay.PresencePublisher. Events are handed to a background
// worker over a bounded queue, so a stalled broker socket never blocks the
// connection read loop that produced the event; when the queue is full the
// event is dropped with an error.
type SignalPublisher struct {
	publisher messagePublisher
	logger    logging.Logger

	queue     chan queuedEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type queuedEvent struct {
	routingKey string
	message    contracts.AmqpMessage
}

func NewSignalPublisher(publisher messagePublisher, logger logging.Logger) *SignalPublisher {
	p := &SignalPublisher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan queuedEvent, publishQueueSize),
		done:      make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Close stops the background worker. Events still queued are discarded.
func (p *SignalPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

func (p *SignalPublisher) RoomCreated(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomCreated, messaging.PresenceEventData{
		RoomID:     roomID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *SignalPublisher) RoomEmptied(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomEmptied, messaging.PresenceEventData{
		RoomID:     roomID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *SignalPublisher) MemberJoined(ctx context.Context, roomID, connectionID, userID string) error {
	return p.publish(ctx, contracts.EventMemberJoined, messaging.PresenceEventData{
		RoomID:       roomID,
		ConnectionID: connectionID,
		UserID:       userID,
		OccurredAt:   time.Now().UTC(),
	})
}

func (p *SignalPublisher) MemberLeft(ctx context.Context, roomID, connectionID string) error {
	return p.publish(ctx, contracts.EventMemberLeft, messaging.PresenceEventData{
		RoomID:       roomID,
		ConnectionID: connectionID,
		OccurredAt:   time.Now().UTC(),
	})
}

func (p *SignalPublisher) publish(_ context.Context, routingKey string, data messaging.PresenceEventData) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	ev := queuedEvent{
		routingKey: routingKey,
		message:    contracts.AmqpMessage{Event: routingKey, Data: body},
	}

	select {
	case <-p.done:
		return fmt.Errorf("publisher is closed")
	default:
	}

	select {
	case p.queue <- ev:
		return nil
	default:
		return fmt.Errorf("presence event queue full, %s dropped", routingKey)
	}
}

func (p *SignalPublisher) run() {
	defer p.wg.Done()

	for {
		select {
		case ev := <-p.queue:
			if err := p.publisher.PublishMessage(context.Background(), ev.routingKey, ev.message); err != nil {
				p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to publish presence event", map[logging.ExtraKey]any{
					logging.Event:        ev.routingKey,
					logging.ErrorMessage: err.Error(),
				})
			}
		case <-p.done:
			return
		}
	}
}
