// Package ws is the observer channel: one hub, many dashboard clients,
// JSON events fanned out to all of them.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Event is the wire frame for every server-to-client message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type client struct {
	conn *websocket.Conn

	// mu guards send against close: the write pump or a slow-client drop
	// can close the channel while the read pump is still answering this
	// client, so every send must re-check closed under the lock.
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func (c *client) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// Hub owns the observer set. Publish never blocks: a client whose send
// buffer is full is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	upgrader   websocket.Upgrader
	readLimit  int64
	pingPeriod time.Duration

	// status produces the full snapshot for request_status. Guarded by mu:
	// the hub is built before the dispatcher that feeds it.
	status func() (any, error)
}

// SetStatus wires the snapshot source after construction.
func (h *Hub) SetStatus(status func() (any, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

func (h *Hub) statusSource() func() (any, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func NewHub(readLimit int64, pingPeriod time.Duration) *Hub {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// Publish implements core.Publisher.
func (h *Hub) Publish(event string, payload any) {
	frame, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Error().Str("module", "adapters.ws").Err(err).Msg("marshal event")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !c.trySend(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("module", "adapters.ws").Msg("dropping slow observer")
		h.remove(c)
	}
}

// ClientCount reports currently connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle upgrades the request and runs the client until it disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("upgrade failed")
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info().Str("module", "adapters.ws").Str("remote", conn.RemoteAddr().String()).Msg("observer connected")

	h.emit(c, "connected", map[string]any{"message": "Connected"})

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) emit(c *client, event string, payload any) {
	frame, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Error().Str("module", "adapters.ws").Err(err).Msg("marshal event")
		return
	}
	if !c.trySend(frame) {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		log.Info().Str("module", "adapters.ws").Msg("observer disconnected")
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("module", "adapters.ws").Err(err).Msg("bad client frame")
			continue
		}
		h.handleClientEvent(c, msg)
	}
}

func (h *Hub) handleClientEvent(c *client, msg clientMessage) {
	switch msg.Event {
	case "request_status":
		status := h.statusSource()
		if status == nil {
			h.emit(c, "error", map[string]any{"message": "status unavailable"})
			return
		}
		payload, err := status()
		if err != nil {
			h.emit(c, "error", map[string]any{"message": err.Error()})
			return
		}
		h.emit(c, "status_update", payload)
	default:
		log.Debug().Str("module", "adapters.ws").Str("event", msg.Event).Msg("unknown client event")
	}
}
