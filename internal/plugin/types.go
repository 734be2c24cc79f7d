// Package plugin runs external executables that react to session events,
// such as a completed repetition.
package plugin

import "encoding/json"

// Events a plugin can subscribe to.
const (
	EventRep           = "rep"
	EventSessionClosed = "session_closed"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is the event payload written to a plugin's stdin.
type Request struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Class   string          `json:"class,omitempty"`
	Reps    int             `json:"reps,omitempty"`
	Label   string          `json:"label,omitempty"`
	Counts  map[string]int  `json:"counts,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to event.
func (p *Plugin) Handles(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
