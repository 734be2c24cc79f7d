package api

import (
	"net/http"

	"github.com/ayusman/asana/internal/app"
)

// ClassifyHandler classifies single poses without any session state.
type ClassifyHandler struct {
	app *app.App
}

// NewClassifyHandler creates a new ClassifyHandler.
func NewClassifyHandler(a *app.App) *ClassifyHandler {
	return &ClassifyHandler{app: a}
}

// ServeHTTP handles POST /api/classify.
func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	set, ok := decodeFrame(w, r)
	if !ok {
		return
	}

	res, err := h.app.Classify(set)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
