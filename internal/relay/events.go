package relay

// Client → relay events
const (
	EventJoin           = "join"
	EventRelayOffer     = "relay-offer"
	EventRelayAnswer    = "relay-answer"
	EventRelayCandidate = "relay-candidate"
)

// Relay → client events
const (
	EventExistingMembers   = "existing-members"
	EventMemberJoined      = "member-joined"
	EventMemberLeft        = "member-left"
	EventOfferReceived     = "offer-received"
	EventAnswerReceived    = "answer-received"
	EventCandidateReceived = "candidate-received"
)
