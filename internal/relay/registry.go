package relay

import "sync"

// Registry is the relay-owned room table: room id → member connections,
// plus the reverse index connection id → room id. All mutation happens under
// one mutex, so concurrent joins and leaves on the same room are atomic.
//
// Room existence is derived: a room with no members is deleted on the spot,
// and both maps always agree (a connection is listed in rooms[r] if and only
// if byClient reports r for it).
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]*Client
	byClient map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]*Client),
		byClient: make(map[string]string),
	}
}

// JoinResult reports what a Join changed, with the peer snapshots the caller
// needs for notifications taken under the registry lock.
type JoinResult struct {
	// Already is true when the connection was a member of this room before
	// the call; the join is idempotent and nothing else changed.
	Already bool

	// Others are the pre-existing members of the joined room. The joiner is
	// responsible for sending the first offer to each of them.
	Others     []*Client
	OtherInfos []Member

	// CreatedRoom is true when this join brought the room into existence.
	CreatedRoom bool

	// PrevRoom is the room the connection was moved out of (a connection is
	// in at most one room; rejoining elsewhere replaces the membership).
	PrevRoom    string
	PrevPeers   []*Client
	EmptiedPrev bool
}

// Join registers c as a member of roomID, creating the room if absent and
// leaving any previous room first. userID is stored verbatim.
func (r *Registry) Join(c *Client, roomID, userID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res JoinResult

	if cur, ok := r.byClient[c.ID]; ok {
		if cur == roomID {
			res.Already = true
			c.userID = userID
			res.Others, res.OtherInfos = r.membersExceptLocked(roomID, c.ID)
			return res
		}

		// Replace the old membership before installing the new one.
		res.PrevRoom = cur
		r.removeLocked(c.ID, cur)
		res.PrevPeers, _ = r.membersExceptLocked(cur, c.ID)
		res.EmptiedPrev = len(res.PrevPeers) == 0
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomID] = members
		res.CreatedRoom = true
	}

	res.Others, res.OtherInfos = r.membersExceptLocked(roomID, c.ID)

	members[c.ID] = c
	r.byClient[c.ID] = roomID
	c.userID = userID

	return res
}

// Leave removes c from its room, deleting the room if it is now empty.
// Reports ok=false when the connection was not a member of any room.
func (r *Registry) Leave(c *Client) (roomID string, remaining []*Client, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok = r.byClient[c.ID]
	if !ok {
		return "", nil, false
	}

	r.removeLocked(c.ID, roomID)
	remaining, _ = r.membersExceptLocked(roomID, c.ID)

	return roomID, remaining, true
}

// Peer resolves targetID only when both sender and target are members of
// the same room. Anything else is a routing miss.
func (r *Registry) Peer(sender *Client, targetID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.byClient[sender.ID]
	if !ok {
		return nil, false
	}

	target, ok := r.rooms[roomID][targetID]
	return target, ok
}

// RoomOf reports the room the connection is currently joined to.
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.byClient[connID]
	return roomID, ok
}

// Members returns a snapshot of the room's membership.
func (r *Registry) Members(roomID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Member, 0, len(r.rooms[roomID]))
	for _, cl := range r.rooms[roomID] {
		members = append(members, Member{ConnectionID: cl.ID, UserID: cl.userID})
	}
	return members
}

// Counts reports the number of non-empty rooms and joined connections.
func (r *Registry) Counts() (rooms, joined int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), len(r.byClient)
}

func (r *Registry) removeLocked(connID, roomID string) {
	delete(r.byClient, connID)

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

func (r *Registry) membersExceptLocked(roomID, exclude string) ([]*Client, []Member) {
	room := r.rooms[roomID]

	clients := make([]*Client, 0, len(room))
	infos := make([]Member, 0, len(room))
	for id, cl := range room {
		if id == exclude {
			continue
		}
		clients = append(clients, cl)
		infos = append(infos, Member{ConnectionID: cl.ID, UserID: cl.userID})
	}

	return clients, infos
}
