package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/config"
	"github.com/ayusman/asana/internal/pose"
	"github.com/ayusman/asana/internal/server/api"
	"github.com/ayusman/asana/internal/store"
	"github.com/ayusman/asana/testdata"
)

func newTestServer(t *testing.T, withStore bool) (*httptest.Server, *app.App) {
	t.Helper()
	tmpDir := t.TempDir()

	var s *store.Store
	if withStore {
		var err error
		s, err = store.New(filepath.Join(tmpDir, "test.db"))
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		t.Cleanup(func() { s.Close() })
	}

	settings := config.Default()
	settings.Classifier.K = 5
	settings.Smoothing.ResetAfter = 0
	settings.PluginDir = filepath.Join(tmpDir, "plugins")

	a := app.New(app.Config{Store: s, Settings: settings})
	t.Cleanup(a.Close)
	a.UseSamples(testdata.ReferenceSamples())

	srv := New(Config{Store: s, App: a})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.CloseStreams()
		ts.Close()
	})
	return ts, a
}

func dialStream(t *testing.T, ts *httptest.Server, id string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/stream"
	return websocket.DefaultDialer.Dial(url, nil)
}

func sendFrame(t *testing.T, conn *websocket.Conn, set pose.LandmarkSet) map[string]json.RawMessage {
	t.Helper()

	if err := conn.WriteJSON(api.FrameRequest{Landmarks: set}); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg map[string]json.RawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read result: %v", err)
	}
	return msg
}

func TestSessionStream_CountsReps(t *testing.T) {
	ts, a := newTestServer(t, true)

	info, err := a.OpenSession(true)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	conn, _, err := dialStream(t, ts, info.ID)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		for j := 0; j < 10; j++ {
			sendFrame(t, conn, pose.PushupUpLandmarks())
		}
		for j := 0; j < 10; j++ {
			sendFrame(t, conn, pose.PushupDownLandmarks())
		}
	}
	var last map[string]json.RawMessage
	for j := 0; j < 10; j++ {
		last = sendFrame(t, conn, pose.PushupUpLandmarks())
	}

	var label, repText string
	json.Unmarshal(last["label"], &label)
	json.Unmarshal(last["rep_text"], &repText)
	if label != "Pushup" {
		t.Errorf("expected label 'Pushup', got %q", label)
	}
	if repText != "pushups_down : 2 reps" {
		t.Errorf("unexpected rep text %q", repText)
	}

	got, err := a.Session(info.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got.Frames != 50 {
		t.Errorf("expected 50 frames, got %d", got.Frames)
	}
}

func TestSessionStream_InvalidMessage(t *testing.T) {
	ts, a := newTestServer(t, false)

	info, err := a.OpenSession(true)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	conn, _, err := dialStream(t, ts, info.ID)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if msg["error"] != "Invalid JSON" {
		t.Errorf("expected invalid JSON error, got %v", msg)
	}

	// The connection stays usable
	res := sendFrame(t, conn, pose.StandingLandmarks())
	if _, ok := res["classification"]; !ok {
		t.Errorf("expected a frame result, got %v", res)
	}
}

func TestSessionStream_ClosedSession(t *testing.T) {
	ts, a := newTestServer(t, false)

	info, err := a.OpenSession(true)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	conn, _, err := dialStream(t, ts, info.ID)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	if _, err := a.CloseSession(info.ID); err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}

	res := sendFrame(t, conn, pose.StandingLandmarks())
	if string(res["error"]) != `"Session closed"` {
		t.Errorf("expected session closed error, got %v", res)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}
}

func TestSessionStream_UnknownSession(t *testing.T) {
	ts, _ := newTestServer(t, false)

	_, resp, err := dialStream(t, ts, "unknown")
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status %d, got %v", http.StatusNotFound, resp)
	}
}

func TestAPI_SessionWorkflow(t *testing.T) {
	ts, _ := newTestServer(t, true)
	client := ts.Client()

	// 1. Open a session
	resp, err := client.Post(ts.URL+"/api/sessions", "application/json", bytes.NewBufferString(`{"stream": true}`))
	if err != nil {
		t.Fatalf("POST /api/sessions error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created app.SessionInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	// 2. Post frames for one squat
	post := func(set pose.LandmarkSet) {
		body, _ := json.Marshal(api.FrameRequest{Landmarks: set})
		resp, err := client.Post(ts.URL+"/api/sessions/"+created.ID+"/frames", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST frames error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST frames status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	}
	for i := 0; i < 10; i++ {
		post(pose.SquatDownLandmarks())
	}
	for i := 0; i < 10; i++ {
		post(pose.StandingLandmarks())
	}

	// 3. Close and check the final counts
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	var closed app.SessionInfo
	json.NewDecoder(resp.Body).Decode(&closed)
	resp.Body.Close()

	if closed.Counts["squats_down"] != 1 {
		t.Errorf("expected 1 squat, got %v", closed.Counts)
	}

	// 4. Health reports the loaded samples
	resp, _ = client.Get(ts.URL + "/api/health")
	var health map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()

	if health["samples"] != float64(20) {
		t.Errorf("expected 20 samples in health, got %v", health["samples"])
	}
	if health["sessions"] != float64(0) {
		t.Errorf("expected 0 open sessions, got %v", health["sessions"])
	}
}
