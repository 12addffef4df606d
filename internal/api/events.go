package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/jobs"
)

const writeDeadline = 10 * time.Second

// EventMessage is the envelope pushed to websocket clients for every
// progress update.
type EventMessage struct {
	Type      string               `json:"type"`
	Data      export.ProgressEvent `json:"data"`
	Timestamp int64                `json:"timestamp"`
}

// Hub fans progress events out to connected websocket clients. Clients
// that stop reading are dropped rather than allowed to stall the
// broadcast.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || isAllowedOrigin(origin)
			},
		},
		logger: logger,
		conns:  make(map[string]*websocket.Conn),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	clientID := jobs.NewID()[:8]
	h.mu.Lock()
	h.conns[clientID] = conn
	h.mu.Unlock()
	h.logger.Info("event client connected", "client_id", clientID, "remote", r.RemoteAddr)

	// Clients only listen; the read loop just detects the hangup.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(clientID)
	h.logger.Info("event client disconnected", "client_id", clientID)
}

// Broadcast sends a progress event to every connected client.
func (h *Hub) Broadcast(ev export.ProgressEvent) {
	msg, err := json.Marshal(EventMessage{
		Type:      "export_progress",
		Data:      ev,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Error("failed to marshal progress event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("dropping slow event client", "client_id", id, "error", err)
			conn.Close()
			delete(h.conns, id)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.Close()
		delete(h.conns, id)
	}
}

func (h *Hub) drop(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[clientID]; ok {
		conn.Close()
		delete(h.conns, clientID)
	}
}
