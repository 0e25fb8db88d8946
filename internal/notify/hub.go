package notify

import (
	"net/http"
	"sync"

	"canteen-be/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards connect from the app origin; tighten in production.
		return true
	},
}

// Hub pushes order events to connected dashboard sockets. Clients
// treat every message as a refresh trigger, not as order state.
type Hub struct {
	mu    sync.Mutex
	conns []*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{}
}

// HandleWS upgrades the request and holds the connection until the
// client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client on failure.
		logger.Named("hub").Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	newList := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		if c != conn {
			newList = append(newList, c)
		}
	}
	h.conns = newList
	h.mu.Unlock()

	conn.Close()
}

// Broadcast writes the event to every connected socket, dropping
// connections that fail.
func (h *Hub) Broadcast(event Event) {
	payload, err := event.Encode()
	if err != nil {
		logger.Named("hub").Warn("failed to encode event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	newList := h.conns[:0]
	for _, conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err == nil {
			newList = append(newList, conn)
		} else {
			conn.Close()
		}
	}
	h.conns = newList
}

// ConnCount is used by tests and the health endpoint.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
