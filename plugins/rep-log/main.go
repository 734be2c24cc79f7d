// Package main provides a plugin that appends session events to a log file,
// one JSON line per event.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Class   string          `json:"class,omitempty"`
	Reps    int             `json:"reps,omitempty"`
	Label   string          `json:"label,omitempty"`
	Counts  map[string]int  `json:"counts,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin configuration from the manifest.
type Config struct {
	File string `json:"file"`
}

type entry struct {
	Time    time.Time      `json:"time"`
	Event   string         `json:"event"`
	Session string         `json:"session"`
	Class   string         `json:"class,omitempty"`
	Reps    int            `json:"reps,omitempty"`
	Counts  map[string]int `json:"counts,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Event {
	case "rep", "session_closed":
		if err := appendEntry(req); err != nil {
			writeErrorResponse(fmt.Sprintf("event %s failed: %v", req.Event, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	writeSuccessResponse()
}

func appendEntry(req Request) error {
	cfg := Config{File: "reps.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.File == "" {
		return fmt.Errorf("file is required")
	}

	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(entry{
		Time:    time.Now().UTC(),
		Event:   req.Event,
		Session: req.Session,
		Class:   req.Class,
		Reps:    req.Reps,
		Counts:  req.Counts,
	})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func writeErrorResponse(msg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: msg})
}
