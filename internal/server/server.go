// Package server provides the HTTP server for the asana pose classification service.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/server/api"
	"github.com/ayusman/asana/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the asana application.
type Server struct {
	config Config
	mux    *http.ServeMux
	stream *SessionStreamHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// The API needs an application to drive
	if s.config.App != nil {
		sessionHandler := api.NewSessionHandler(s.config.App)
		s.stream = NewSessionStreamHandler(s.config.App)

		// Route between the REST handler and the WebSocket stream: /api/sessions/{id}/stream
		sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/stream") {
				s.stream.ServeHTTP(w, r)
				return
			}
			sessionHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/sessions", sessionRouter)
		s.mux.Handle("/api/sessions/", sessionRouter)
		s.mux.Handle("/api/classify", api.NewClassifyHandler(s.config.App))
		s.mux.Handle("/api/samples", api.NewSamplesHandler(s.config.App, s.config.Store))

		pluginsHandler := api.NewPluginsHandler(s.config.App.PluginManager())
		s.mux.Handle("/api/plugins", pluginsHandler)
		s.mux.Handle("/api/plugins/", pluginsHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if a := s.config.App; a != nil {
		samples := 0
		if c := a.Classifier(); c != nil {
			samples = c.Len()
		}
		response["samples"] = samples
		response["sessions"] = len(a.Sessions())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// CloseStreams disconnects every WebSocket client.
func (s *Server) CloseStreams() {
	if s.stream != nil {
		s.stream.CloseAll()
	}
}
