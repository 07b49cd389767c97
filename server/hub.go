package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Message types sent to WebSocket clients.
const (
	MessageSnapshot = "snapshot"
	MessageProgress = "bus_progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is the envelope of every frame the hub writes.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type outbound struct {
	bus     string
	payload []byte
}

// Client is one WebSocket connection. A non-empty bus restricts the
// connection to updates for that bus.
type Client struct {
	ID   string
	bus  string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans bus state updates out to WebSocket clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	broadcast chan outbound
	snapshot  func() []tracking.BusState
	log       logging.Logger
}

// NewHub creates a hub. snapshot, when set, provides the states sent to a
// client right after it connects.
func NewHub(snapshot func() []tracking.BusState, log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{
		clients:   make(map[string]*Client),
		broadcast: make(chan outbound, 256),
		snapshot:  snapshot,
		log:       log,
	}
}

// Run delivers broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.log.Info(context.Background(), "websocket hub stopped")
			return

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				if c.bus != "" && c.bus != msg.bus {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer.
					close(c.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify queues a state update for every interested client.
func (h *Hub) Notify(ctx context.Context, state tracking.BusState) {
	payload, err := json.Marshal(Message{Type: MessageProgress, Data: state})
	if err != nil {
		h.log.Error(ctx, "encode bus update", logging.Err(err))
		return
	}
	select {
	case h.broadcast <- outbound{bus: state.BusNumber, payload: payload}:
	default:
		h.log.Warn(ctx, "broadcast dropped", logging.String("bus", state.BusNumber))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection. The optional
// "bus" query parameter subscribes to a single bus.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	c := &Client{
		ID:   uuid.NewString(),
		bus:  strings.TrimSpace(r.URL.Query().Get("bus")),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}

	// Snapshot and registration happen under one lock so no broadcast can
	// fall between them.
	h.mu.Lock()
	c.send <- h.snapshotFor(c.bus)
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.log.Info(r.Context(), "websocket client connected", logging.String("client_id", c.ID), logging.String("bus", c.bus))

	go c.writePump()
	go c.readPump()
}

// snapshotFor must be called with h.mu held.
func (h *Hub) snapshotFor(bus string) []byte {
	states := []tracking.BusState{}
	if h.snapshot != nil {
		for _, s := range h.snapshot() {
			if bus == "" || s.BusNumber == bus {
				states = append(states, s)
			}
		}
	}
	payload, _ := json.Marshal(Message{Type: MessageSnapshot, Data: states})
	return payload
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump handles pongs and {"type":"subscribe","bus":"..."} frames.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn(context.Background(), "websocket read error", logging.String("client_id", c.ID), logging.Err(err))
			}
			return
		}
		var msg struct {
			Type string `json:"type"`
			Bus  string `json:"bus"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "subscribe" {
			continue
		}
		bus := strings.TrimSpace(msg.Bus)

		c.hub.mu.Lock()
		if _, live := c.hub.clients[c.ID]; live {
			c.bus = bus
			select {
			case c.send <- c.hub.snapshotFor(bus):
			default:
			}
		}
		c.hub.mu.Unlock()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
