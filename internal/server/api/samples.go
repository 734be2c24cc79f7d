package api

import (
	"net/http"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/store"
)

// SamplesHandler handles the reference sample set.
type SamplesHandler struct {
	app   *app.App
	store *store.Store
}

// NewSamplesHandler creates a new SamplesHandler. The store may be nil, in
// which case listing reports what the loaded classifier holds.
func NewSamplesHandler(a *app.App, s *store.Store) *SamplesHandler {
	return &SamplesHandler{app: a, store: s}
}

type samplesResponse struct {
	Total   int                `json:"total"`
	Dropped int                `json:"dropped"`
	Classes []string           `json:"classes"`
	Labels  []store.LabelCount `json:"labels,omitempty"`
}

// ServeHTTP handles GET /api/samples. The reference set is fixed at startup,
// so the resource is read-only.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := samplesResponse{Classes: []string{}}

	if c := h.app.Classifier(); c != nil {
		response.Total = c.Len()
		response.Dropped = c.Dropped()
		response.Classes = c.Classes()
	}

	if h.store != nil {
		labels, err := h.store.Samples().CountByLabel()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to count samples")
			return
		}
		response.Labels = labels
	}

	writeJSON(w, http.StatusOK, response)
}
