package relay

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func newTestClient(id string) *Client {
	return NewClient(nil, id, Options{})
}

func memberIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ConnectionID)
	}
	sort.Strings(ids)
	return ids
}

func TestRegistryJoinCreatesRoom(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")

	res := reg.Join(a, "room-1", "alice")

	if !res.CreatedRoom {
		t.Fatal("expected first join to create the room")
	}
	if res.Already {
		t.Fatal("first join must not report an existing membership")
	}
	if len(res.Others) != 0 {
		t.Fatalf("expected no pre-existing members, got %d", len(res.Others))
	}

	roomID, ok := reg.RoomOf("a")
	if !ok || roomID != "room-1" {
		t.Fatalf("RoomOf = %q, %v; want room-1, true", roomID, ok)
	}
}

func TestRegistryJoinReturnsExistingMembers(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")

	reg.Join(a, "room-1", "alice")
	reg.Join(b, "room-1", "bob")
	res := reg.Join(c, "room-1", "carol")

	if res.CreatedRoom {
		t.Fatal("room already existed")
	}

	got := memberIDs(res.OtherInfos)
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("existing members = %v, want %v", got, want)
	}
}

func TestRegistryJoinIdempotentSameRoom(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	reg.Join(a, "room-1", "alice")
	reg.Join(b, "room-1", "bob")

	res := reg.Join(a, "room-1", "alice")
	if !res.Already {
		t.Fatal("rejoining the same room must report Already")
	}
	if got := memberIDs(res.OtherInfos); len(got) != 1 || got[0] != "b" {
		t.Fatalf("rejoin member snapshot = %v, want [b]", got)
	}

	members := reg.Members("room-1")
	if len(members) != 2 {
		t.Fatalf("room has %d members after rejoin, want 2", len(members))
	}
}

func TestRegistryJoinReplacesMembership(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	reg.Join(a, "room-1", "alice")
	reg.Join(b, "room-1", "bob")

	res := reg.Join(a, "room-2", "alice")

	if res.PrevRoom != "room-1" {
		t.Fatalf("PrevRoom = %q, want room-1", res.PrevRoom)
	}
	if res.EmptiedPrev {
		t.Fatal("room-1 still has b in it")
	}
	if len(res.PrevPeers) != 1 || res.PrevPeers[0].ID != "b" {
		t.Fatalf("PrevPeers = %v, want [b]", res.PrevPeers)
	}

	roomID, _ := reg.RoomOf("a")
	if roomID != "room-2" {
		t.Fatalf("a is in %q, want room-2", roomID)
	}
	if len(reg.Members("room-1")) != 1 {
		t.Fatal("room-1 should only contain b")
	}
}

func TestRegistryJoinReplaceEmptiesOldRoom(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")

	reg.Join(a, "room-1", "alice")
	res := reg.Join(a, "room-2", "alice")

	if !res.EmptiedPrev {
		t.Fatal("leaving as the sole member must empty the room")
	}

	rooms, joined := reg.Counts()
	if rooms != 1 || joined != 1 {
		t.Fatalf("Counts = %d rooms, %d joined; want 1, 1", rooms, joined)
	}
}

func TestRegistryLeaveDeletesEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	reg.Join(a, "room-1", "alice")
	reg.Join(b, "room-1", "bob")

	roomID, remaining, ok := reg.Leave(a)
	if !ok || roomID != "room-1" {
		t.Fatalf("Leave = %q, %v; want room-1, true", roomID, ok)
	}
	if len(remaining) != 1 || remaining[0].ID != "b" {
		t.Fatalf("remaining = %v, want [b]", remaining)
	}

	_, remaining, ok = reg.Leave(b)
	if !ok || len(remaining) != 0 {
		t.Fatalf("final leave = %v members, ok=%v", remaining, ok)
	}

	rooms, joined := reg.Counts()
	if rooms != 0 || joined != 0 {
		t.Fatalf("Counts after drain = %d rooms, %d joined; want 0, 0", rooms, joined)
	}
}

func TestRegistryLeaveWithoutJoin(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")

	if _, _, ok := reg.Leave(a); ok {
		t.Fatal("leave without a join must report ok=false")
	}
}

func TestRegistryConcurrentJoinsSameRoom(t *testing.T) {
	reg := NewRegistry()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			reg.Join(newTestClient(id), "room-1", "")
		}(fmt.Sprintf("conn-%02d", i))
	}
	wg.Wait()

	rooms, joined := reg.Counts()
	if rooms != 1 || joined != n {
		t.Fatalf("Counts = %d rooms, %d joined; want 1, %d", rooms, joined, n)
	}
	if got := len(reg.Members("room-1")); got != n {
		t.Fatalf("room has %d members, want %d", got, n)
	}
}

func TestRegistryConcurrentJoinLeaveChurn(t *testing.T) {
	reg := NewRegistry()
	const n = 40

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c := newTestClient(id)
			reg.Join(c, "room-1", "")
			reg.Join(c, "room-2", "")
			reg.Leave(c)
		}(fmt.Sprintf("conn-%02d", i))
	}
	wg.Wait()

	rooms, joined := reg.Counts()
	if rooms != 0 || joined != 0 {
		t.Fatalf("Counts after churn = %d rooms, %d joined; want 0, 0", rooms, joined)
	}
}

func TestRegistryPeerRequiresColocation(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")
	stranger := newTestClient("stranger")

	reg.Join(a, "room-1", "alice")
	reg.Join(b, "room-1", "bob")
	reg.Join(c, "room-2", "carol")

	if peer, ok := reg.Peer(a, "b"); !ok || peer.ID != "b" {
		t.Fatal("a and b share a room; lookup must succeed")
	}
	if _, ok := reg.Peer(a, "c"); ok {
		t.Fatal("c is in a different room; lookup must miss")
	}
	if _, ok := reg.Peer(a, "ghost"); ok {
		t.Fatal("unknown target must miss")
	}
	if _, ok := reg.Peer(stranger, "a"); ok {
		t.Fatal("sender outside any room must miss")
	}
	if _, ok := reg.Peer(a, "a"); !ok {
		t.Fatal("self lookup resolves; the relay does not special-case it")
	}
}
