package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/config"
	"github.com/ayusman/asana/testdata"
)

// newApp returns an app without a store, optionally loaded with the fixture
// reference set.
func newApp(t *testing.T, loaded bool) *app.App {
	t.Helper()
	settings := config.Default()
	settings.Classifier.K = 5
	settings.PluginDir = filepath.Join(t.TempDir(), "plugins")

	a := app.New(app.Config{Settings: settings})
	t.Cleanup(a.Close)
	if loaded {
		a.UseSamples(testdata.ReferenceSamples())
	}
	return a
}

func get(s http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	busy := newApp(t, true)
	for _, stream := range []bool{true, false} {
		if _, err := busy.OpenSession(stream); err != nil {
			t.Fatalf("failed to open session: %v", err)
		}
	}

	tests := []struct {
		name         string
		app          *app.App
		wantSamples  float64
		wantSessions float64
	}{
		{name: "without app"},
		{name: "app without reference set", app: newApp(t, false)},
		{
			name:         "loaded app with sessions",
			app:          busy,
			wantSamples:  float64(len(testdata.Classes) * testdata.VariantsPerClass),
			wantSessions: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(New(Config{App: tt.app}), "/api/health")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["status"] != "ok" {
				t.Errorf("expected status 'ok', got %v", body["status"])
			}
			if _, ok := body["uptime"]; !ok {
				t.Error("expected 'uptime' field in response")
			}

			if tt.app == nil {
				if _, ok := body["samples"]; ok {
					t.Errorf("expected no samples field without an app, got %v", body)
				}
				return
			}
			if body["samples"] != tt.wantSamples {
				t.Errorf("expected %v samples, got %v", tt.wantSamples, body["samples"])
			}
			if body["sessions"] != tt.wantSessions {
				t.Errorf("expected %v sessions, got %v", tt.wantSessions, body["sessions"])
			}
		})
	}
}

func TestServer_Health_MethodNotAllowed(t *testing.T) {
	s := New(Config{App: newApp(t, true)})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestServer_Routes(t *testing.T) {
	bare := New(Config{})
	full := New(Config{App: newApp(t, true)})

	tests := []struct {
		path     string
		wantBare int
		wantFull int
	}{
		{"/api/sessions", http.StatusNotFound, http.StatusOK},
		{"/api/samples", http.StatusNotFound, http.StatusOK},
		{"/api/plugins", http.StatusNotFound, http.StatusOK},
		{"/api/plugins/notify", http.StatusNotFound, http.StatusNotFound},
		{"/api/sessions/missing", http.StatusNotFound, http.StatusNotFound},
		{"/api/sessions/missing/stream", http.StatusNotFound, http.StatusNotFound},
		{"/api/gestures", http.StatusNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := get(bare, tt.path); rec.Code != tt.wantBare {
				t.Errorf("without app: expected %d, got %d", tt.wantBare, rec.Code)
			}
			if rec := get(full, tt.path); rec.Code != tt.wantFull {
				t.Errorf("with app: expected %d, got %d", tt.wantFull, rec.Code)
			}
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>asana</body></html>",
		"app.js":     "connect('/api/sessions')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	s := New(Config{StaticDir: dir, App: newApp(t, true)})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, files["index.html"]},
		{"/app.js", http.StatusOK, files["app.js"]},
		{"/missing.css", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(s, tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}

	// API routes take precedence over the file server.
	if rec := get(s, "/api/health"); rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected health from the API, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	if rec := get(New(Config{App: newApp(t, false)}), "/"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_CloseStreamsWithoutApp(t *testing.T) {
	// Without an app there is no stream handler to close.
	New(Config{}).CloseStreams()
}
