package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/virtualclassroom/backend/internal/infrastructure/validate"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
)

// Room is the persisted conference-room record behind the metadata API.
// Its ID doubles as the rendezvous string clients pass to the signaling
// relay, which treats it as opaque and never checks it against this store.
type Room struct {
	ID        string    `json:"roomId" bson:"room_id"`
	Title     string    `json:"roomName" bson:"room_name"`
	HostID    string    `json:"hostId" bson:"host_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]Room, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoom(title, hostID string) (*Room, error) {
	validateTitle := validate.Field("roomName",
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(80),
	)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if hostID == "" {
		return nil, ErrInvalidInput
	}

	return &Room{
		ID:        uuid.NewString(),
		Title:     title,
		HostID:    hostID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
