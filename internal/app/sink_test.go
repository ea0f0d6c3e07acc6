package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/holoroom/internal/landmark"
	"github.com/ayusman/holoroom/internal/store"
	"gocv.io/x/gocv"
)

func TestSinkFunc(t *testing.T) {
	calls := 0
	var s Sink = SinkFunc(func(frame *gocv.Mat, res *Result) error {
		calls++
		return nil
	})

	if err := s.Consume(nil, &Result{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestVideoSink_Codec(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.avi", "MJPG"},
		{"OUT.AVI", "MJPG"},
		{"out.mp4", "mp4v"},
		{"out", "mp4v"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NewVideoSink(tt.path, 30).codec(); got != tt.want {
				t.Errorf("codec() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoSink_CloseWithoutFrames(t *testing.T) {
	v := NewVideoSink(filepath.Join(t.TempDir(), "out.avi"), 0)
	if v.fps != 30 {
		t.Errorf("fps = %v, want default 30", v.fps)
	}
	if err := v.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestVideoSink_Write(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires OpenCV video backends")
	}

	path := filepath.Join(t.TempDir(), "out.avi")
	v := NewVideoSink(path, 10)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		if err := v.Consume(&frame, &Result{Frame: i}); err != nil {
			t.Skipf("video writer unavailable: %v", err)
		}
	}
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}

	if v.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", v.Frames())
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Errorf("expected a non-empty video file: %v", err)
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecorderSink(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorderSink(s, "camera:0")

	if rec.SessionID() != "" {
		t.Error("no session before the first frame")
	}
	if err := rec.Close(); err != nil {
		t.Errorf("Close() before any frame error = %v", err)
	}

	hand := landmark.ToPixels(landmark.NormalizedList{{X: 0.5, Y: 0.5}, {X: 0.25, Y: 0.75}}, 640, 480)
	for i := 0; i < 3; i++ {
		res := &Result{Frame: i, Mode: ModeOverlay, Width: 640, Height: 480}
		if i != 1 {
			res.Hands = [][]landmark.Landmark{hand}
		}
		if err := rec.Consume(nil, res); err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
	}

	id := rec.SessionID()
	if id == "" {
		t.Fatal("session should be created on the first frame")
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	sess, err := s.Sessions().GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Source != "camera:0" || sess.Mode != "overlay" || sess.Width != 640 || sess.Frames != 3 {
		t.Errorf("session = %+v", sess)
	}
	if sess.EndedAt == nil {
		t.Error("session should be finished")
	}

	// frame 1 had no detections
	n, err := s.Landmarks().CountBySession(id)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("frames with landmarks = %d, want 2", n)
	}

	points, err := s.Landmarks().ListFrame(id, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].X != 320 || points[1].Y != 360 {
		t.Errorf("points = %+v", points)
	}
}
