package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/server/api"
)

const maxFrameBytes = 1 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type streamError struct {
	Error string `json:"error"`
}

// SessionStreamHandler feeds frames from a WebSocket client into a session.
// Each text message is a frame request and is answered with its frame result.
type SessionStreamHandler struct {
	app     *app.App
	clients map[*websocket.Conn]string
	mu      sync.RWMutex
}

// NewSessionStreamHandler creates a new SessionStreamHandler.
func NewSessionStreamHandler(a *app.App) *SessionStreamHandler {
	return &SessionStreamHandler{
		app:     a,
		clients: make(map[*websocket.Conn]string),
	}
}

// ServeHTTP handles WebSocket upgrade requests on /api/sessions/{id}/stream.
func (h *SessionStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id = strings.TrimSuffix(id, "/stream")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	info, err := h.app.Session(id)
	if err != nil || info.ClosedAt != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	h.mu.Lock()
	h.clients[conn] = id
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Session %s stream: %v", id, err)
			}
			return
		}

		var req api.FrameRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := conn.WriteJSON(streamError{Error: "Invalid JSON"}); err != nil {
				return
			}
			continue
		}

		res, err := h.app.ProcessFrame(id, req.Landmarks)
		if errors.Is(err, app.ErrSessionNotFound) {
			conn.WriteJSON(streamError{Error: "Session closed"})
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return
		}
		if err != nil {
			if err := conn.WriteJSON(streamError{Error: err.Error()}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(res); err != nil {
			return
		}
	}
}

// CloseAll disconnects every client.
func (h *SessionStreamHandler) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		// WriteControl may run concurrently with the handler's writes.
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (h *SessionStreamHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
