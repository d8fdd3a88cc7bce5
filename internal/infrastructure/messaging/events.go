package messaging

import "time"

const (
	PresenceQueue   = "signaling_presence"
	DeadLetterQueue = "dead_letter_queue"
)

// PresenceEventData mirrors one relay-side membership change.
type PresenceEventData struct {
	RoomID       string    `json:"roomId"`
	ConnectionID string    `json:"connectionId,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}
