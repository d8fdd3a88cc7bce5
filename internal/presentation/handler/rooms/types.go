package rooms

import "time"

// createRoomRequest represents the request to create a conference room
type createRoomRequest struct {
	RoomName string `json:"roomName" example:"Algebra 101" minLength:"2"` // Display name for the room
}

// roomResponse represents one conference room
type roomResponse struct {
	RoomID    string    `json:"roomId" example:"550e8400-e29b-41d4-a716-446655440000"` // Unique room identifier, also the signaling rendezvous string
	RoomName  string    `json:"roomName" example:"Algebra 101"`                        // Display name
	HostID    string    `json:"hostId" example:"550e8400-e29b-41d4-a716-446655440001"` // Account that created the room
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`              // Room creation timestamp
}

// listRoomsResponse wraps the room collection
type listRoomsResponse struct {
	Rooms []roomResponse `json:"rooms"`
}
