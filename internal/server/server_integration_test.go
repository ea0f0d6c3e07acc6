package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/ayusman/holoroom/internal/store"
	"github.com/gorilla/websocket"
)

type fakeController struct {
	mu     sync.Mutex
	mode   app.Mode
	paused bool
}

func (f *fakeController) Mode() app.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeController) SetMode(m app.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
}

func (f *fakeController) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeController) SetPaused(p bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = p
}

func TestAPI_SessionWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	sess := &store.Session{Source: "camera:0", Mode: "room", Width: 640, Height: 480}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatal(err)
	}
	points := []store.FramePoint{{Detector: store.DetectorHand, Index: 0, X: 320, Y: 240}}
	if err := s.Landmarks().InsertFrame(sess.ID, 0, points); err != nil {
		t.Fatal(err)
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List sessions
	resp, err := client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	var listed struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != sess.ID {
		t.Fatalf("listed = %+v", listed)
	}

	// 2. Get one session
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID)
	var got struct {
		Source   string `json:"source"`
		Recorded int    `json:"recorded_frames"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || got.Source != "camera:0" || got.Recorded != 1 {
		t.Errorf("GET session status %d body %+v", resp.StatusCode, got)
	}

	// 3. Fetch a recorded frame
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID + "/frames/0")
	var frame struct {
		Points []store.FramePoint `json:"points"`
	}
	json.NewDecoder(resp.Body).Decode(&frame)
	resp.Body.Close()

	if len(frame.Points) != 1 || frame.Points[0].X != 320 {
		t.Errorf("frame points = %+v", frame.Points)
	}

	// 4. Delete the session
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sess.ID, nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 5. Verify it is gone
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAPI_ModeWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctrl := &fakeController{mode: app.ModeRoom}
	ts := httptest.NewServer(New(Config{Store: s, Controller: ctrl}))
	defer ts.Close()

	body := `{"mode": "overlay", "paused": true}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/mode", bytes.NewBufferString(body))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/mode status = %d", resp.StatusCode)
	}
	if ctrl.Mode() != app.ModeOverlay || !ctrl.IsPaused() {
		t.Errorf("controller = %q paused=%v", ctrl.Mode(), ctrl.IsPaused())
	}

	saved, err := s.Settings().Get("mode")
	if err != nil || saved != "overlay" {
		t.Errorf("saved mode = %q, %v", saved, err)
	}
}

func TestStream_MJPEG(t *testing.T) {
	hub := app.NewHub()
	jpeg := []byte{0xff, 0xd8, 0xff, 0xd9}
	hub.Publish(jpeg, &app.Result{Frame: 0})

	ts := httptest.NewServer(New(Config{Frames: hub}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var headers []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading part header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		headers = append(headers, line)
	}

	if len(headers) != 3 || headers[0] != "--frame" || headers[2] != "Content-Length: 4" {
		t.Errorf("part headers = %q", headers)
	}

	got := make([]byte, len(jpeg))
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, jpeg) {
		t.Errorf("part body = % x, want % x", got, jpeg)
	}

	// closing the hub ends the stream
	hub.Close()
	if _, err := io.ReadAll(r); err != nil {
		t.Errorf("stream did not end cleanly: %v", err)
	}
}

func TestLandmarks_WebSocket(t *testing.T) {
	hub := app.NewHub()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Frames: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/landmarks"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	// keep publishing until the handler has subscribed and forwarded one
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				hub.Publish(nil, &app.Result{Frame: i, Mode: app.ModeRoom})
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}

	var res struct {
		Frame *int   `json:"frame"`
		Mode  string `json:"mode"`
	}
	if err := json.Unmarshal(msg, &res); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if res.Frame == nil || res.Mode != "room" {
		t.Errorf("message = %s", msg)
	}
}

func TestServer_OptionalRoutes(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/sessions", "/api/stream", "/api/landmarks", "/api/mode"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s without backing service: status %d, want 404", path, rec.Code)
			}
		})
	}
}
