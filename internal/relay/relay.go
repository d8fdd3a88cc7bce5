package relay

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/metrics"
)

// PresencePublisher receives membership changes for out-of-band consumers
// (audit log, analytics). Implementations must not block.
type PresencePublisher interface {
	RoomCreated(ctx context.Context, roomID string) error
	RoomEmptied(ctx context.Context, roomID string) error
	MemberJoined(ctx context.Context, roomID, connectionID, userID string) error
	MemberLeft(ctx context.Context, roomID, connectionID string) error
}

// Relay owns the room registry and forwards WebRTC negotiation messages
// between co-located connections. It never inspects SDP or candidate
// payloads and never blocks on a slow member.
//
// Glare avoidance: the joining connection receives the room's existing
// members and is the one that sends the first offer to each of them;
// existing members only answer. Exactly one initiator per pair, always.
type Relay struct {
	registry  *Registry
	logger    logging.Logger
	metrics   *metrics.RelayMetrics
	publisher PresencePublisher
}

func New(logger logging.Logger, m *metrics.RelayMetrics, publisher PresencePublisher) *Relay {
	return &Relay{
		registry:  NewRegistry(),
		logger:    logger,
		metrics:   m,
		publisher: publisher,
	}
}

// Registry exposes the room table for read-only inspection (debug endpoint).
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Attach accounts for a freshly upgraded connection. The connection stays
// outside any room until its first join message.
func (r *Relay) Attach(c *Client) {
	if r.metrics != nil {
		r.metrics.ActiveConnections.Inc()
	}

	r.logger.Info(logging.Signaling, logging.Join, "connection attached", map[logging.ExtraKey]any{
		logging.ConnectionID: c.ID,
	})
}

// HandleMessage dispatches one inbound frame. Malformed frames are dropped
// with a log entry; they are never fatal and never answered.
func (r *Relay) HandleMessage(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.drop(c, metrics.DropReasonMalformed, "unparseable message", err.Error())
		return
	}

	switch env.Event {
	case EventJoin:
		r.handleJoin(c, &env)
	case EventRelayOffer:
		r.handleForward(c, &env, EventOfferReceived)
	case EventRelayAnswer:
		r.handleForward(c, &env, EventAnswerReceived)
	case EventRelayCandidate:
		r.handleForward(c, &env, EventCandidateReceived)
	default:
		r.drop(c, metrics.DropReasonMalformed, "unknown event", env.Event)
	}
}

func (r *Relay) handleJoin(c *Client, env *Envelope) {
	roomID := strings.TrimSpace(env.RoomID)
	if roomID == "" {
		r.drop(c, metrics.DropReasonMalformed, "join without room id", "")
		return
	}

	res := r.registry.Join(c, roomID, env.UserID)

	// The member list always goes back to the caller, even on an idempotent
	// rejoin, so a client that lost track of the room can resynchronize.
	r.deliver(c, NewExistingMembers(res.OtherInfos), EventExistingMembers)

	if res.Already {
		return
	}

	if res.PrevRoom != "" {
		r.fanOut(res.PrevPeers, NewMemberLeft(c.ID), EventMemberLeft)
		r.publishMemberLeft(res.PrevRoom, c.ID)
		if res.EmptiedPrev {
			r.publishRoomEmptied(res.PrevRoom)
		}
	}

	r.fanOut(res.Others, NewMemberJoined(Member{ConnectionID: c.ID, UserID: env.UserID}), EventMemberJoined)

	if res.CreatedRoom {
		r.publishRoomCreated(roomID)
	}
	r.publishMemberJoined(roomID, c.ID, env.UserID)
	r.updateGauges()

	r.logger.Info(logging.Signaling, logging.Join, "member joined room", map[logging.ExtraKey]any{
		logging.ConnectionID: c.ID,
		logging.RoomID:       roomID,
		logging.UserID:       env.UserID,
	})
}

func (r *Relay) handleForward(c *Client, env *Envelope, outEvent string) {
	if env.Target == "" {
		r.drop(c, metrics.DropReasonMalformed, "forward without target", env.Event)
		return
	}

	if _, joined := r.registry.RoomOf(c.ID); !joined {
		r.drop(c, metrics.DropReasonNotJoined, "forward before join", env.Event)
		return
	}

	target, ok := r.registry.Peer(c, env.Target)
	if !ok {
		// The target may have left mid-negotiation; expected, not an error.
		if r.metrics != nil {
			r.metrics.DroppedTotal.WithLabelValues(metrics.DropReasonUnknownTarget).Inc()
		}
		r.logger.Debug(logging.Signaling, logging.RouteMiss, "target not co-located", map[logging.ExtraKey]any{
			logging.ConnectionID: c.ID,
			logging.TargetID:     env.Target,
			logging.Event:        env.Event,
		})
		return
	}

	var out *Envelope
	switch outEvent {
	case EventOfferReceived:
		out = NewOfferReceived(c.ID, env.SDP)
	case EventAnswerReceived:
		out = NewAnswerReceived(c.ID, env.SDP)
	default:
		out = NewCandidateReceived(c.ID, env.Candidate)
	}

	r.deliver(target, out, outEvent)
}

// Disconnect detaches the connection, runs the leave exactly once no matter
// how many times the transport reports closure, and notifies the room.
func (r *Relay) Disconnect(c *Client) {
	c.closeOnce.Do(func() {
		roomID, remaining, ok := r.registry.Leave(c)
		if ok {
			r.fanOut(remaining, NewMemberLeft(c.ID), EventMemberLeft)
			r.publishMemberLeft(roomID, c.ID)
			if len(remaining) == 0 {
				r.publishRoomEmptied(roomID)
			}

			r.logger.Info(logging.Signaling, logging.Leave, "member left room", map[logging.ExtraKey]any{
				logging.ConnectionID: c.ID,
				logging.RoomID:       roomID,
			})
		}

		close(c.done)
		_ = c.conn.Close()

		if r.metrics != nil {
			r.metrics.ActiveConnections.Dec()
		}
		r.updateGauges()
	})
}

// deliver enqueues to a single recipient without blocking.
func (r *Relay) deliver(c *Client, env *Envelope, event string) {
	if !c.enqueue(env) {
		if r.metrics != nil {
			r.metrics.DroppedTotal.WithLabelValues(metrics.DropReasonSlowReceiver).Inc()
		}
		r.logger.Warn(logging.Signaling, logging.Forward, "receiver queue full, message dropped", map[logging.ExtraKey]any{
			logging.ConnectionID: c.ID,
			logging.Event:        event,
		})
		return
	}

	if r.metrics != nil {
		r.metrics.RelayedTotal.WithLabelValues(event).Inc()
	}
}

// fanOut delivers independently to each recipient; one full queue never
// delays the others.
func (r *Relay) fanOut(clients []*Client, env *Envelope, event string) {
	for _, cl := range clients {
		r.deliver(cl, env, event)
	}
}

func (r *Relay) drop(c *Client, reason, msg, detail string) {
	if r.metrics != nil {
		r.metrics.DroppedTotal.WithLabelValues(reason).Inc()
	}

	r.logger.Warn(logging.Signaling, logging.BadMessage, msg, map[logging.ExtraKey]any{
		logging.ConnectionID: c.ID,
		logging.ErrorMessage: detail,
	})
}

func (r *Relay) logReadError(c *Client, err error) {
	r.logger.Debug(logging.Signaling, logging.Leave, "read error", map[logging.ExtraKey]any{
		logging.ConnectionID: c.ID,
		logging.ErrorMessage: err.Error(),
	})
}

func (r *Relay) updateGauges() {
	if r.metrics == nil {
		return
	}
	rooms, _ := r.registry.Counts()
	r.metrics.ActiveRooms.Set(float64(rooms))
}

func (r *Relay) publishRoomCreated(roomID string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.RoomCreated(context.Background(), roomID); err != nil {
		r.logPublishError(err)
	}
}

func (r *Relay) publishRoomEmptied(roomID string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.RoomEmptied(context.Background(), roomID); err != nil {
		r.logPublishError(err)
	}
}

func (r *Relay) publishMemberJoined(roomID, connID, userID string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.MemberJoined(context.Background(), roomID, connID, userID); err != nil {
		r.logPublishError(err)
	}
}

func (r *Relay) publishMemberLeft(roomID, connID string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.MemberLeft(context.Background(), roomID, connID); err != nil {
		r.logPublishError(err)
	}
}

func (r *Relay) logPublishError(err error) {
	r.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to publish presence event", map[logging.ExtraKey]any{
		logging.ErrorMessage: err.Error(),
	})
}
