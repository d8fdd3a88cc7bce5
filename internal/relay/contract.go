package relay

import "encoding/json"

// Member identifies one room member as seen by peers.
type Member struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
}

// Envelope is the wire format in both directions. SDP and candidate payloads
// are raw JSON and pass through the relay untouched.
type Envelope struct {
	Event        string          `json:"event"`
	RoomID       string          `json:"roomId,omitempty"`
	UserID       string          `json:"userId,omitempty"`
	Target       string          `json:"target,omitempty"`
	Sender       string          `json:"sender,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Members      []Member        `json:"members,omitempty"`
	SDP          json.RawMessage `json:"sdp,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

func NewExistingMembers(members []Member) *Envelope {
	if members == nil {
		members = []Member{}
	}
	return &Envelope{
		Event:   EventExistingMembers,
		Members: members,
	}
}

func NewMemberJoined(member Member) *Envelope {
	return &Envelope{
		Event:        EventMemberJoined,
		ConnectionID: member.ConnectionID,
		UserID:       member.UserID,
	}
}

func NewMemberLeft(connectionID string) *Envelope {
	return &Envelope{
		Event:        EventMemberLeft,
		ConnectionID: connectionID,
	}
}

func NewOfferReceived(sender string, sdp json.RawMessage) *Envelope {
	return &Envelope{
		Event:  EventOfferReceived,
		Sender: sender,
		SDP:    sdp,
	}
}

func NewAnswerReceived(sender string, sdp json.RawMessage) *Envelope {
	return &Envelope{
		Event:  EventAnswerReceived,
		Sender: sender,
		SDP:    sdp,
	}
}

func NewCandidateReceived(sender string, candidate json.RawMessage) *Envelope {
	return &Envelope{
		Event:     EventCandidateReceived,
		Sender:    sender,
		Candidate: candidate,
	}
}
