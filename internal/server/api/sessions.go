package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/asana/internal/app"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

type createSessionRequest struct {
	// Stream defaults to true.
	Stream *bool `json:"stream"`
}

type listSessionsResponse struct {
	Sessions []app.SessionInfo `json:"sessions"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id} or /api/sessions/{id}/frames
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.close(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "frames":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frame(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// list handles GET /api/sessions and returns the open sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.app.Sessions()})
}

// create handles POST /api/sessions. An empty body opens a stream session.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	stream := true
	if req.Stream != nil {
		stream = *req.Stream
	}

	info, err := h.app.OpenSession(stream)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	info, err := h.app.Session(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// close handles DELETE /api/sessions/{id} and returns the final state.
func (h *SessionHandler) close(w http.ResponseWriter, r *http.Request, id string) {
	info, err := h.app.CloseSession(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// frame handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) frame(w http.ResponseWriter, r *http.Request, id string) {
	set, ok := decodeFrame(w, r)
	if !ok {
		return
	}

	res, err := h.app.ProcessFrame(id, set)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
