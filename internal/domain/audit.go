package domain

import (
	"context"
	"time"
)

type SignalEventType string

const (
	SignalRoomCreated  SignalEventType = "room.created"
	SignalRoomEmptied  SignalEventType = "room.emptied"
	SignalMemberJoined SignalEventType = "member.joined"
	SignalMemberLeft   SignalEventType = "member.left"
)

// SignalAuditLog records one relay-side membership change for later review.
// Offer/answer/candidate payloads are deliberately not logged.
type SignalAuditLog struct {
	EventType    SignalEventType `json:"eventType" bson:"event_type"`
	RoomID       string          `json:"roomId" bson:"room_id"`
	ConnectionID string          `json:"connectionId,omitempty" bson:"connection_id,omitempty"`
	UserID       string          `json:"userId,omitempty" bson:"user_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp" bson:"timestamp"`
}

type SignalAuditRepository interface {
	Log(ctx context.Context, entry *SignalAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]SignalAuditLog, error)
	GetByEventType(ctx context.Context, eventType SignalEventType, from, to time.Time) ([]SignalAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}
