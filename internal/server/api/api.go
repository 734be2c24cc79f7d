// Package api provides HTTP API handlers for the asana pose classification service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/pose"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// FrameRequest is the body of a classify or frame request and the message a
// stream client sends per frame. A missing or empty landmarks object means no
// body was detected.
type FrameRequest struct {
	Landmarks pose.LandmarkSet `json:"landmarks"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError maps application errors to status codes.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, app.ErrNoClassifier):
		writeError(w, http.StatusServiceUnavailable, "No reference samples loaded")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeFrame(w http.ResponseWriter, r *http.Request) (pose.LandmarkSet, bool) {
	var req FrameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return pose.LandmarkSet{}, false
	}
	return req.Landmarks, true
}
