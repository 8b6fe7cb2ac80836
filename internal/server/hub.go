package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/stats"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message is what the hub pushes to websocket clients.
type Message struct {
	Type      string       `json:"type"` // hello, refresh.start, refresh.complete, refresh.error
	Auto      bool         `json:"auto,omitempty"`
	RefreshID string       `json:"refreshId,omitempty"`
	Count     int          `json:"count,omitempty"`
	Stats     *stats.Stats `json:"stats,omitempty"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
	Error     string       `json:"error,omitempty"`
	Hint      string       `json:"hint,omitempty"`
	DurMs     int64        `json:"durMs,omitempty"`
}

// client is one websocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans refresh outcomes out to websocket clients. It implements
// coord.Listener, so a Coordinator can report timer-driven refreshes to it.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a Hub. Call Run before serving.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	log := logging.WithPrefix("hub")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			log.Debug("client connected", "id", c.id)

		case c := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(c)
			h.mu.Unlock()
			log.Debug("client disconnected", "id", c.id)

		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow client; drop it rather than block the rest.
					h.dropLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues m for every client. Drops the message if the queue is full.
func (h *Hub) Publish(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		logging.Error("hub: marshal message", "type", m.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		logging.Warn("hub: broadcast queue full, message dropped", "type", m.Type)
	}
}

// RefreshStarted implements coord.Listener.
func (h *Hub) RefreshStarted(auto bool) {
	h.Publish(Message{Type: "refresh.start", Auto: auto})
}

// RefreshFinished implements coord.Listener.
func (h *Hub) RefreshFinished(r coord.Result, auto bool) {
	h.Publish(resultMessage(r, auto))
}

func resultMessage(r coord.Result, auto bool) Message {
	m := Message{
		Type:      "refresh.complete",
		Auto:      auto,
		RefreshID: r.RefreshID,
		DurMs:     r.Dur.Milliseconds(),
	}
	if !r.OK() {
		m.Type = "refresh.error"
		if r.Err != nil {
			m.Error = r.Err.Error()
		}
		m.Hint = r.Hint
		return m
	}
	if r.Snapshot != nil {
		m.Count = len(r.Snapshot.Items)
		m.Stats = &r.Snapshot.Stats
		m.UpdatedAt = &r.Snapshot.UpdatedAt
	}
	return m
}

// serve registers conn and starts its pumps. hello is the first message
// the client receives.
func (h *Hub) serve(conn *websocket.Conn, hello Message) {
	c := &client{
		id:   uuid.NewString()[:8],
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if payload, err := json.Marshal(hello); err == nil {
		c.send <- payload
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h.unregister, h.done)
}

// writePump pumps messages from the send channel to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client input and notices disconnects.
func (c *client) readPump(unregister chan<- *client, done <-chan struct{}) {
	defer func() {
		select {
		case unregister <- c:
		case <-done:
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug("hub: read error", "id", c.id, "error", err)
			}
			return
		}
	}
}

var _ coord.Listener = (*Hub)(nil)
