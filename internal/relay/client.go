package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Options holds the per-connection transport knobs.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	PongTimeout     time.Duration
	PingInterval    time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 1 << 20
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	return o
}

// Client is one websocket connection attached to the relay. The connection
// id is assigned at upgrade time and is the only identity the relay trusts.
type Client struct {
	ID string

	conn *connWrapper
	opts Options

	// send is drained by WritePump; each client drains independently so a
	// slow member never stalls fan-out to the rest of its room.
	send chan *Envelope
	done chan struct{}

	closeOnce sync.Once

	// userID is the optional application-level identity supplied at join
	// time. Guarded by the registry mutex, never interpreted by the relay.
	userID string
}

func NewClient(conn *websocket.Conn, id string, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		ID:   id,
		conn: newConnWrapper(conn),
		opts: opts,
		send: make(chan *Envelope, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue hands an envelope to the client's writer without ever blocking.
// Reports false when the client is gone or its queue is full.
func (c *Client) enqueue(env *Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- env:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// ReadPump consumes inbound frames and dispatches them until the connection
// closes, then detaches the client exactly once.
func (c *Client) ReadPump(r *Relay) {
	defer r.Disconnect(c)

	c.conn.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				r.logReadError(c, err)
			}
			return
		}

		r.HandleMessage(c, raw)
	}
}

// WritePump serializes outbound envelopes and keeps the connection alive
// with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
