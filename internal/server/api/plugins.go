package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/asana/internal/plugin"
)

// PluginsHandler exposes the discovered plugins.
type PluginsHandler struct {
	manager *plugin.Manager
}

// NewPluginsHandler creates a new PluginsHandler.
func NewPluginsHandler(m *plugin.Manager) *PluginsHandler {
	return &PluginsHandler{manager: m}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Events      []string `json:"events"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

func toPluginResponse(p *plugin.Plugin) pluginResponse {
	events := p.Manifest.Events
	if events == nil {
		events = []string{}
	}
	return pluginResponse{
		Name:        p.Manifest.Name,
		Version:     p.Manifest.Version,
		Description: p.Manifest.Description,
		Events:      events,
	}
}

// ServeHTTP handles GET /api/plugins and GET /api/plugins/{name}.
func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/plugins"), "/")
	if name == "" {
		plugins := h.manager.List()
		response := listPluginsResponse{Plugins: make([]pluginResponse, 0, len(plugins))}
		for _, p := range plugins {
			response.Plugins = append(response.Plugins, toPluginResponse(p))
		}
		writeJSON(w, http.StatusOK, response)
		return
	}

	p, err := h.manager.Get(name)
	if errors.Is(err, plugin.ErrPluginNotFound) {
		writeError(w, http.StatusNotFound, "Plugin not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get plugin")
		return
	}
	writeJSON(w, http.StatusOK, toPluginResponse(p))
}
