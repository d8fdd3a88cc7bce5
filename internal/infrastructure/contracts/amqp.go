package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	Event string `json:"event"`
	Data  []byte `json:"data"`
}

// Routing keys for relay presence events
const (
	EventRoomCreated  = "room.created"
	EventRoomEmptied  = "room.emptied"
	EventMemberJoined = "member.joined"
	EventMemberLeft   = "member.left"
)
