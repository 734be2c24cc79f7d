// Package main provides a desktop notification plugin.
// It announces completed repetitions and session summaries via AppleScript
// on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
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
	Title string `json:"title"`
	// Every announces only every n-th repetition of a class.
	Every int `json:"every"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg, err := parseConfig(req.Config)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	n, ok, err := buildNotification(req, cfg)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if !ok {
		writeSuccessResponse(nil)
		return
	}

	if err := send(n); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	writeSuccessResponse(&n)
}

func parseConfig(raw json.RawMessage) (Config, error) {
	cfg := Config{Title: "Asana", Every: 1}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Every < 1 {
		cfg.Every = 1
	}
	return cfg, nil
}

// buildNotification returns the message for req and whether one should be shown.
func buildNotification(req Request, cfg Config) (notification, bool, error) {
	switch req.Event {
	case "rep":
		if req.Reps%cfg.Every != 0 {
			return notification{}, false, nil
		}
		return notification{
			Title: cfg.Title,
			Body:  fmt.Sprintf("%s : %d reps", req.Class, req.Reps),
		}, true, nil
	case "session_closed":
		return notification{
			Title: cfg.Title,
			Body:  summary(req.Counts),
		}, true, nil
	default:
		return notification{}, false, fmt.Errorf("unknown event: %s", req.Event)
	}
}

// summary lists the counts in class order.
func summary(counts map[string]int) string {
	if len(counts) == 0 {
		return "Session finished"
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
	}
	return "Session finished: " + strings.Join(parts, ", ")
}

func send(n notification) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", n.Body, n.Title)
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", n.Title, n.Body)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(n *notification) {
	resp := Response{
		Success: true,
	}
	if n != nil {
		resp.Data, _ = json.Marshal(n)
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
