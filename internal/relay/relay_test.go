package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/metrics"
)

type recordedEvent struct {
	kind   string
	roomID string
	connID string
	userID string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) RoomCreated(_ context.Context, roomID string) error {
	p.record(recordedEvent{kind: "room.created", roomID: roomID})
	return nil
}

func (p *fakePublisher) RoomEmptied(_ context.Context, roomID string) error {
	p.record(recordedEvent{kind: "room.emptied", roomID: roomID})
	return nil
}

func (p *fakePublisher) MemberJoined(_ context.Context, roomID, connID, userID string) error {
	p.record(recordedEvent{kind: "member.joined", roomID: roomID, connID: connID, userID: userID})
	return nil
}

func (p *fakePublisher) MemberLeft(_ context.Context, roomID, connID string) error {
	p.record(recordedEvent{kind: "member.left", roomID: roomID, connID: connID})
	return nil
}

func (p *fakePublisher) record(e recordedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, 0, len(p.events))
	for _, e := range p.events {
		kinds = append(kinds, e.kind)
	}
	return kinds
}

func newTestRelay() (*Relay, *fakePublisher) {
	pub := &fakePublisher{}
	return New(logging.NewNopLogger(), nil, pub), pub
}

// drain empties the client's outbound queue without running a write pump.
func drain(c *Client) []*Envelope {
	var out []*Envelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func join(r *Relay, c *Client, roomID, userID string) {
	raw, _ := json.Marshal(Envelope{Event: EventJoin, RoomID: roomID, UserID: userID})
	r.HandleMessage(c, raw)
}

func TestJoinHandshake(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")

	got := drain(a)
	if len(got) != 1 || got[0].Event != EventExistingMembers {
		t.Fatalf("first joiner got %v, want a single existing-members", got)
	}
	if len(got[0].Members) != 0 {
		t.Fatalf("first joiner sees %d members, want 0", len(got[0].Members))
	}

	join(r, b, "math", "bob")

	bGot := drain(b)
	if len(bGot) != 1 || bGot[0].Event != EventExistingMembers {
		t.Fatalf("second joiner got %v, want existing-members", bGot)
	}
	if len(bGot[0].Members) != 1 || bGot[0].Members[0].ConnectionID != "a" {
		t.Fatalf("second joiner sees %v, want [a]", bGot[0].Members)
	}
	if bGot[0].Members[0].UserID != "alice" {
		t.Fatalf("member user id = %q, want alice", bGot[0].Members[0].UserID)
	}

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventMemberJoined {
		t.Fatalf("existing member got %v, want member-joined", aGot)
	}
	if aGot[0].ConnectionID != "b" || aGot[0].UserID != "bob" {
		t.Fatalf("member-joined = %+v, want connection b / user bob", aGot[0])
	}
}

func TestJoinWithoutRoomIDDropped(t *testing.T) {
	r, pub := newTestRelay()
	a := newTestClient("a")

	join(r, a, "  ", "alice")

	if got := drain(a); len(got) != 0 {
		t.Fatalf("blank room join produced %v, want nothing", got)
	}
	if len(pub.kinds()) != 0 {
		t.Fatal("blank room join must not publish presence events")
	}
}

func TestRejoinSameRoomResendsMembersOnly(t *testing.T) {
	r, pub := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)
	publishedBefore := len(pub.kinds())

	join(r, b, "math", "bob")

	bGot := drain(b)
	if len(bGot) != 1 || bGot[0].Event != EventExistingMembers {
		t.Fatalf("rejoin got %v, want existing-members only", bGot)
	}
	if got := drain(a); len(got) != 0 {
		t.Fatalf("peer received %v on idempotent rejoin, want nothing", got)
	}
	if len(pub.kinds()) != publishedBefore {
		t.Fatal("idempotent rejoin must not publish presence events")
	}
}

func TestRejoinOtherRoomNotifiesOldPeers(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)

	join(r, b, "physics", "bob")

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventMemberLeft || aGot[0].ConnectionID != "b" {
		t.Fatalf("old peer got %v, want member-left for b", aGot)
	}

	if roomID, _ := r.registry.RoomOf("b"); roomID != "physics" {
		t.Fatalf("b is in %q, want physics", roomID)
	}
}

func TestOfferForwardedToTargetOnly(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	join(r, c, "math", "carol")
	drain(a)
	drain(b)
	drain(c)

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	raw, _ := json.Marshal(Envelope{Event: EventRelayOffer, Target: "b", SDP: sdp})
	r.HandleMessage(a, raw)

	bGot := drain(b)
	if len(bGot) != 1 || bGot[0].Event != EventOfferReceived {
		t.Fatalf("target got %v, want one offer-received", bGot)
	}
	if bGot[0].Sender != "a" {
		t.Fatalf("sender = %q, want a", bGot[0].Sender)
	}
	if string(bGot[0].SDP) != string(sdp) {
		t.Fatalf("sdp was altered in transit: %s", bGot[0].SDP)
	}

	if got := drain(c); len(got) != 0 {
		t.Fatalf("bystander received %v, want nothing", got)
	}
	if got := drain(a); len(got) != 0 {
		t.Fatalf("sender received %v, want nothing", got)
	}
}

func TestAnswerAndCandidateForwarding(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)

	answer, _ := json.Marshal(Envelope{Event: EventRelayAnswer, Target: "a", SDP: json.RawMessage(`{"type":"answer"}`)})
	r.HandleMessage(b, answer)

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventAnswerReceived || aGot[0].Sender != "b" {
		t.Fatalf("answer delivery = %v, want answer-received from b", aGot)
	}

	cand, _ := json.Marshal(Envelope{Event: EventRelayCandidate, Target: "b", Candidate: json.RawMessage(`{"candidate":"foo"}`)})
	r.HandleMessage(a, cand)

	bGot := drain(b)
	if len(bGot) != 1 || bGot[0].Event != EventCandidateReceived || bGot[0].Sender != "a" {
		t.Fatalf("candidate delivery = %v, want candidate-received from a", bGot)
	}
	if string(bGot[0].Candidate) != `{"candidate":"foo"}` {
		t.Fatalf("candidate payload altered: %s", bGot[0].Candidate)
	}
}

func TestForwardMissesDropSilently(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")
	outsider := newTestClient("outsider")

	join(r, a, "math", "alice")
	join(r, b, "physics", "bob")
	drain(a)
	drain(b)

	// Target in another room.
	raw, _ := json.Marshal(Envelope{Event: EventRelayOffer, Target: "b", SDP: json.RawMessage(`{}`)})
	r.HandleMessage(a, raw)

	// Sender never joined.
	raw, _ = json.Marshal(Envelope{Event: EventRelayOffer, Target: "a", SDP: json.RawMessage(`{}`)})
	r.HandleMessage(outsider, raw)

	// Unknown target.
	raw, _ = json.Marshal(Envelope{Event: EventRelayOffer, Target: "ghost", SDP: json.RawMessage(`{}`)})
	r.HandleMessage(a, raw)

	if got := drain(a); len(got) != 0 {
		t.Fatalf("a received %v, want nothing", got)
	}
	if got := drain(b); len(got) != 0 {
		t.Fatalf("b received %v, want nothing", got)
	}
}

func TestForwardBeforeJoinCountedAsNotJoined(t *testing.T) {
	m := metrics.NewRelayMetrics(prometheus.NewRegistry())
	r := New(logging.NewNopLogger(), m, nil)
	outsider := newTestClient("outsider")
	b := newTestClient("b")

	join(r, b, "math", "bob")
	drain(b)

	raw, _ := json.Marshal(Envelope{Event: EventRelayOffer, Target: "b", SDP: json.RawMessage(`{}`)})
	r.HandleMessage(outsider, raw)

	if got := drain(b); len(got) != 0 {
		t.Fatalf("b received %v from an unjoined sender, want nothing", got)
	}
	if got := testutil.ToFloat64(m.DroppedTotal.WithLabelValues(metrics.DropReasonNotJoined)); got != 1 {
		t.Fatalf("not_joined drops = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DroppedTotal.WithLabelValues(metrics.DropReasonUnknownTarget)); got != 0 {
		t.Fatalf("unknown_target drops = %v, want 0", got)
	}
}

func TestDisconnectRacingForward(t *testing.T) {
	// A leave racing an offer at the leaving connection must resolve to
	// at-most-once delivery and a consistent registry, whichever wins.
	for i := 0; i < 25; i++ {
		r, _ := newTestRelay()
		a := newTestClient("a")
		b := newTestClient("b")

		join(r, a, "math", "alice")
		join(r, b, "math", "bob")
		drain(a)
		drain(b)

		raw, _ := json.Marshal(Envelope{Event: EventRelayOffer, Target: "b", SDP: json.RawMessage(`{}`)})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Disconnect(b)
		}()
		go func() {
			defer wg.Done()
			r.HandleMessage(a, raw)
		}()
		wg.Wait()

		offers := 0
		for _, env := range drain(b) {
			if env.Event == EventOfferReceived {
				offers++
			}
		}
		if offers > 1 {
			t.Fatalf("offer delivered %d times, want at most once", offers)
		}

		if _, ok := r.registry.RoomOf("b"); ok {
			t.Fatal("b is still registered after disconnect")
		}
		if roomID, ok := r.registry.RoomOf("a"); !ok || roomID != "math" {
			t.Fatalf("a is in %q, %v; want math, true", roomID, ok)
		}
	}
}

func TestMalformedMessagesDropped(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)

	r.HandleMessage(a, []byte(`not json at all`))
	r.HandleMessage(a, []byte(`{"event":"make-coffee"}`))
	r.HandleMessage(a, []byte(`{"event":"relay-offer"}`)) // no target

	if got := drain(b); len(got) != 0 {
		t.Fatalf("b received %v after malformed input, want nothing", got)
	}
}

func TestDisconnectBroadcastsMemberLeft(t *testing.T) {
	r, pub := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)

	r.Disconnect(b)
	r.Disconnect(b) // transport may report closure more than once

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventMemberLeft || aGot[0].ConnectionID != "b" {
		t.Fatalf("a got %v, want exactly one member-left for b", aGot)
	}

	left := 0
	for _, k := range pub.kinds() {
		if k == "member.left" {
			left++
		}
	}
	if left != 1 {
		t.Fatalf("member.left published %d times, want 1", left)
	}
}

func TestDisconnectLastMemberEmptiesRoom(t *testing.T) {
	r, pub := newTestRelay()
	a := newTestClient("a")

	join(r, a, "math", "alice")
	r.Disconnect(a)

	rooms, joined := r.registry.Counts()
	if rooms != 0 || joined != 0 {
		t.Fatalf("Counts = %d rooms, %d joined after last leave; want 0, 0", rooms, joined)
	}

	kinds := pub.kinds()
	if kinds[len(kinds)-1] != "room.emptied" {
		t.Fatalf("last published event = %q, want room.emptied", kinds[len(kinds)-1])
	}
}

func TestDisconnectBeforeJoin(t *testing.T) {
	r, pub := newTestRelay()
	a := newTestClient("a")

	r.Attach(a)
	r.Disconnect(a)

	if len(pub.kinds()) != 0 {
		t.Fatal("disconnect before any join must not publish presence events")
	}
}

func TestSlowReceiverDoesNotBlockFanOut(t *testing.T) {
	r, _ := newTestRelay()
	a := NewClient(nil, "a", Options{SendBuffer: 1})
	b := NewClient(nil, "b", Options{SendBuffer: 1})
	slow := NewClient(nil, "slow", Options{SendBuffer: 1})

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	join(r, slow, "math", "sloth")
	drain(a)
	drain(b)
	// slow's queue is left full with its existing-members envelope.

	join(r, NewClient(nil, "d", Options{SendBuffer: 4}), "math", "dave")

	if got := drain(a); len(got) != 1 || got[0].Event != EventMemberJoined {
		t.Fatalf("a got %v, want member-joined despite slow peer", got)
	}
	if got := drain(b); len(got) != 1 || got[0].Event != EventMemberJoined {
		t.Fatalf("b got %v, want member-joined despite slow peer", got)
	}
}

func TestEnqueueAfterDisconnectFails(t *testing.T) {
	r, _ := newTestRelay()
	a := newTestClient("a")
	b := newTestClient("b")

	join(r, a, "math", "alice")
	join(r, b, "math", "bob")
	drain(a)
	drain(b)

	r.Disconnect(b)

	if b.enqueue(NewMemberLeft("x")) {
		t.Fatal("enqueue to a disconnected client must fail")
	}
}
