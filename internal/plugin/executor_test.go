package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plugins are shell scripts")
	}
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// scriptPlugin builds a plugin around a shell script body.
func scriptPlugin(t *testing.T, name, body string, events ...string) *Plugin {
	t.Helper()
	dir := t.TempDir()
	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: "run.sh",
			Events:     events,
		},
		Path:       dir,
		Executable: writeScript(t, dir, "run.sh", "#!/bin/sh\n"+body),
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name      string
		body      string
		timeoutMs int
		wantErr   string
		wantOK    bool
		wantMsg   string
	}{
		{
			name:      "success",
			body:      `echo '{"success":true,"data":{"total":3}}'`,
			timeoutMs: 5000,
			wantOK:    true,
		},
		{
			name:      "plugin reports failure",
			body:      `echo '{"success":false,"error":"log file is read-only"}'`,
			timeoutMs: 5000,
			wantMsg:   "log file is read-only",
		},
		{
			name:      "unparseable output",
			body:      "echo 'reps: 3'",
			timeoutMs: 5000,
			wantErr:   "parse plugin response",
		},
		{
			name:      "non-zero exit carries stderr",
			body:      "echo 'notify-send missing' >&2\nexit 1",
			timeoutMs: 5000,
			wantErr:   "notify-send missing",
		},
		{
			name:      "timeout",
			body:      "sleep 10\necho '{\"success\":true}'",
			timeoutMs: 100,
			wantErr:   "timeout after 100ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "rep-log", tt.body, EventRep)

			resp, err := NewExecutor(tt.timeoutMs).Execute(context.Background(), p, &Request{Event: EventRep, Session: "s1"})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if resp.Success != tt.wantOK {
				t.Errorf("expected success=%v, got %v", tt.wantOK, resp.Success)
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("expected error message %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestExecutor_Execute_Payload(t *testing.T) {
	skipOnWindows(t)

	// The script echoes its stdin back as the response data.
	echo := `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`
	p := scriptPlugin(t, "recorder", echo, EventRep)
	p.Manifest.Config = json.RawMessage(`{"file":"reps.jsonl"}`)

	tests := []struct {
		name       string
		req        Request
		wantConfig string
	}{
		{
			name: "manifest config fills in",
			req: Request{
				Event:   EventRep,
				Session: "session-1",
				Class:   "squats_down",
				Reps:    3,
				Label:   "Squats Down",
				Counts:  map[string]int{"squats_down": 3, "pushups_down": 0},
			},
			wantConfig: `{"file":"reps.jsonl"}`,
		},
		{
			name:       "request config wins",
			req:        Request{Event: EventSessionClosed, Session: "session-2", Config: json.RawMessage(`{"file":"other.jsonl"}`)},
			wantConfig: `{"file":"other.jsonl"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			resp, err := NewExecutor(5000).Execute(context.Background(), p, &req)
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}

			var got Request
			if err := json.Unmarshal(resp.Data, &got); err != nil {
				t.Fatalf("failed to decode echoed request: %v", err)
			}
			if got.Event != tt.req.Event || got.Session != tt.req.Session {
				t.Errorf("unexpected event/session %q/%q", got.Event, got.Session)
			}
			if got.Class != tt.req.Class || got.Reps != tt.req.Reps || got.Label != tt.req.Label {
				t.Errorf("rep fields not forwarded: %+v", got)
			}
			if len(got.Counts) != len(tt.req.Counts) || got.Counts["squats_down"] != tt.req.Counts["squats_down"] {
				t.Errorf("counts not forwarded: %v", got.Counts)
			}
			if string(got.Config) != tt.wantConfig {
				t.Errorf("expected config %s, got %s", tt.wantConfig, got.Config)
			}
		})
	}
}

func TestExecutor_Execute_RunsInPluginDir(t *testing.T) {
	skipOnWindows(t)

	p := scriptPlugin(t, "rep-log", "touch ran\necho '{\"success\":true}'", EventRep)

	if _, err := NewExecutor(5000).Execute(context.Background(), p, &Request{Event: EventRep}); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(p.Path, "ran")); err != nil {
		t.Errorf("expected plugin to run in %s: %v", p.Path, err)
	}
}

func TestExecutor_Execute_Cancelled(t *testing.T) {
	skipOnWindows(t)

	p := scriptPlugin(t, "slow", "sleep 10\n", EventRep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5000).Execute(ctx, p, &Request{Event: EventRep}); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestExecutor_Notify(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	logPath := filepath.Join(dir, "events.log")
	record := "printf '%s %s\\n' \"$(basename \"$(pwd)\")\" \"$(cat)\" >> " + logPath + "\n"

	plugins := []struct {
		name   string
		events []string
		body   string
	}{
		{"alpha", []string{EventRep}, record + "echo '{\"success\":true}'"},
		{"beta", []string{EventRep, EventSessionClosed}, record + "echo '{\"success\":true}'"},
		{"crashing", []string{EventRep}, record + "exit 3"},
		{"rejecting", []string{EventRep}, record + "echo '{\"success\":false,\"error\":\"disk full\"}'"},
		{"closer", []string{EventSessionClosed}, record + "echo '{\"success\":true}'"},
	}
	for _, p := range plugins {
		writeManifest(t, dir, Manifest{Name: p.name, Executable: "run.sh", Events: p.events})
		writeScript(t, filepath.Join(dir, p.name), "run.sh", "#!/bin/sh\n"+p.body+"\n")
	}

	manager := discovered(t, dir)
	executor := NewExecutor(5000)

	tests := []struct {
		event   string
		wantOK  int
		wantRan []string
	}{
		{EventRep, 2, []string{"alpha", "beta", "crashing", "rejecting"}},
		{EventSessionClosed, 2, []string{"beta", "closer"}},
		{"frame", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			os.Remove(logPath)

			ok := executor.Notify(context.Background(), manager, Request{Event: tt.event, Session: "session-9"})
			if ok != tt.wantOK {
				t.Errorf("expected %d successful plugins, got %d", tt.wantOK, ok)
			}

			data, err := os.ReadFile(logPath)
			if err != nil && len(tt.wantRan) > 0 {
				t.Fatalf("no plugin ran: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(tt.wantRan) == 0 {
				if strings.TrimSpace(string(data)) != "" {
					t.Errorf("expected no plugin to run, got %q", data)
				}
				return
			}
			if len(lines) != len(tt.wantRan) {
				t.Fatalf("expected %d runs, got %q", len(tt.wantRan), data)
			}
			// Subscribers run one after another in name order.
			for i, line := range lines {
				name, payload, _ := strings.Cut(line, " ")
				if name != tt.wantRan[i] {
					t.Errorf("run %d: expected %s, got %s", i, tt.wantRan[i], name)
				}
				if !strings.Contains(payload, `"session":"session-9"`) {
					t.Errorf("run %d: session missing from %s", i, payload)
				}
			}
		})
	}
}
