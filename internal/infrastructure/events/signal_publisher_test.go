package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/virtualclassroom/backend/internal/infrastructure/contracts"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/messaging"
)

type stubBroker struct {
	block     chan struct{}
	published chan contracts.AmqpMessage
}

func (s *stubBroker) PublishMessage(_ context.Context, _ string, message contracts.AmqpMessage) error {
	if s.block != nil {
		<-s.block
	}
	if s.published != nil {
		s.published <- message
	}
	return nil
}

func TestSignalPublisherDeliversInBackground(t *testing.T) {
	broker := &stubBroker{published: make(chan contracts.AmqpMessage, 1)}
	p := NewSignalPublisher(broker, logging.NewNopLogger())
	defer p.Close()

	before := time.Now().UTC()
	require.NoError(t, p.MemberJoined(context.Background(), "math", "conn-1", "alice"))

	select {
	case msg := <-broker.published:
		require.Equal(t, contracts.EventMemberJoined, msg.Event)

		var data messaging.PresenceEventData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		require.Equal(t, "math", data.RoomID)
		require.Equal(t, "conn-1", data.ConnectionID)
		require.Equal(t, "alice", data.UserID)
		require.False(t, data.OccurredAt.Before(before.Add(-time.Second)))
	case <-time.After(2 * time.Second):
		t.Fatal("presence event never reached the broker")
	}
}

func TestSignalPublisherNeverBlocksCaller(t *testing.T) {
	broker := &stubBroker{block: make(chan struct{})}
	p := NewSignalPublisher(broker, logging.NewNopLogger())
	defer p.Close()
	defer close(broker.block) // release the worker before Close waits on it

	start := time.Now()
	full := 0
	for i := 0; i < 2*publishQueueSize; i++ {
		if err := p.RoomCreated(context.Background(), "math"); err != nil {
			full++
		}
	}

	require.Less(t, time.Since(start), time.Second, "publishing stalled behind the broker")
	require.NotZero(t, full, "queue overflow must surface as an error, not a block")
	require.Less(t, full, 2*publishQueueSize, "events before overflow must be accepted")
}

func TestSignalPublisherRejectsAfterClose(t *testing.T) {
	broker := &stubBroker{}
	p := NewSignalPublisher(broker, logging.NewNopLogger())
	p.Close()

	require.Error(t, p.RoomEmptied(context.Background(), "math"))
}
