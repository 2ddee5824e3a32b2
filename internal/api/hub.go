package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
)

// Event is one entry on the /api/events stream. Events carry session
// metadata only; captured frames never leave the process.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Time      time.Time `json:"time"`
}

// Event types published on the stream.
const (
	EventSessionAdded    = "session_added"
	EventSessionRemoved  = "session_removed"
	EventSessionPaused   = "session_paused"
	EventSessionResumed  = "session_resumed"
	EventSessionDegraded = "session_degraded"
	EventWindowActivated = "window_activated"
	EventProfileChanged  = "profile_changed"
)

// writeTimeout bounds one event write so a stuck client cannot block
// broadcasters indefinitely; it is dropped instead.
const writeTimeout = time.Second

// Hub fans events out to connected websocket clients. The mutex is held
// across writes: a websocket connection permits only one concurrent
// writer, and broadcasts arrive from many goroutines (capture loops,
// HTTP handlers, the click callback). Slow or broken clients are dropped
// rather than allowed to block the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	log     *zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     logger.WithComponent("api"),
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends an event to every connected client. Safe for concurrent
// use; writes are serialized under the hub lock.
func (h *Hub) Broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Debug().Err(err).Msg("Dropping event client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// ClientCount reports connected clients, for status endpoints.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
