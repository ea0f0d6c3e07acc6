package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ayusman/holoroom/internal/landmark"
	"github.com/ayusman/holoroom/internal/log"
	"github.com/ayusman/holoroom/internal/store"
	"gocv.io/x/gocv"
)

// ErrQuit is returned by a sink to end the display loop without error.
var ErrQuit = errors.New("quit requested")

// Sink receives every rendered frame. frame is only valid during Consume.
type Sink interface {
	Consume(frame *gocv.Mat, res *Result) error
	Close() error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(frame *gocv.Mat, res *Result) error

func (f SinkFunc) Consume(frame *gocv.Mat, res *Result) error { return f(frame, res) }
func (f SinkFunc) Close() error { return nil }

// Window keys that end the loop.
const (
	keyQuit   = 'q'
	keyEscape = 27
)

// WindowSink shows frames in a desktop window. Pressing q or Esc quits.
type WindowSink struct {
	window *gocv.Window
}

// NewWindowSink opens a window with the given title.
func NewWindowSink(title string) *WindowSink {
	return &WindowSink{window: gocv.NewWindow(title)}
}

func (w *WindowSink) Consume(frame *gocv.Mat, res *Result) error {
	w.window.IMShow(*frame)
	switch w.window.WaitKey(1) {
	case keyQuit, keyEscape:
		return ErrQuit
	}
	return nil
}

func (w *WindowSink) Close() error {
	return w.window.Close()
}

// VideoSink writes rendered frames to a video file. The writer is created
// on the first frame so it can take the frame size.
type VideoSink struct {
	path   string
	fps    float64
	writer *gocv.VideoWriter
	frames int
}

// NewVideoSink writes to path at fps. .avi files use MJPG, others mp4v.
func NewVideoSink(path string, fps float64) *VideoSink {
	if fps <= 0 {
		fps = 30
	}
	return &VideoSink{path: path, fps: fps}
}

func (v *VideoSink) codec() string {
	if strings.EqualFold(filepath.Ext(v.path), ".avi") {
		return "MJPG"
	}
	return "mp4v"
}

func (v *VideoSink) Consume(frame *gocv.Mat, res *Result) error {
	if v.writer == nil {
		w, err := gocv.VideoWriterFile(v.path, v.codec(), v.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("create video %s: %w", v.path, err)
		}
		v.writer = w
	}
	if err := v.writer.Write(*frame); err != nil {
		return fmt.Errorf("write video frame: %w", err)
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written.
func (v *VideoSink) Frames() int {
	return v.frames
}

func (v *VideoSink) Close() error {
	if v.writer == nil {
		return nil
	}
	err := v.writer.Close()
	v.writer = nil
	return err
}

// RecorderSink stores each frame's landmarks in a session. The session row
// is created on the first frame and finished on Close.
type RecorderSink struct {
	store   *store.Store
	source  string
	session *store.Session
	frames  int
	logger  *slog.Logger
}

// NewRecorderSink records into st. source describes where frames come from,
// for example "camera:0" or a file path.
func NewRecorderSink(st *store.Store, source string) *RecorderSink {
	return &RecorderSink{
		store:  st,
		source: source,
		logger: log.With("component", "recorder"),
	}
}

// SessionID returns the recorded session, or "" before the first frame.
func (r *RecorderSink) SessionID() string {
	if r.session == nil {
		return ""
	}
	return r.session.ID
}

func (r *RecorderSink) Consume(frame *gocv.Mat, res *Result) error {
	if r.session == nil {
		sess := &store.Session{
			Source: r.source,
			Mode:   string(res.Mode),
			Width:  res.Width,
			Height: res.Height,
		}
		if err := r.store.Sessions().Create(sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		r.session = sess
		r.logger.Info("recording session", "id", sess.ID, "source", r.source)
	}

	if err := r.store.Landmarks().InsertFrame(r.session.ID, res.Frame, framePoints(res)); err != nil {
		r.logger.Warn("dropping frame", "frame", res.Frame, "error", err)
	}
	r.frames++
	return nil
}

func (r *RecorderSink) Close() error {
	if r.session == nil {
		return nil
	}
	err := r.store.Sessions().Finish(r.session.ID, r.frames)
	r.logger.Info("session finished", "id", r.session.ID, "frames", r.frames)
	return err
}

// framePoints flattens a result into store rows.
func framePoints(res *Result) []store.FramePoint {
	var points []store.FramePoint

	add := func(detector string, instance int, lms []landmark.Landmark) {
		for _, lm := range lms {
			points = append(points, store.FramePoint{
				Detector: detector,
				Instance: instance,
				Index:    lm.Index,
				X:        lm.X,
				Y:        lm.Y,
				Z:        lm.Z,
			})
		}
	}

	for i, hand := range res.Hands {
		add(store.DetectorHand, i, hand)
	}
	add(store.DetectorPose, 0, res.Pose)

	// Faces arrive flattened; a new face starts whenever the index wraps to 0.
	face := -1
	for _, lm := range res.Face {
		if lm.Index == 0 {
			face++
		}
		add(store.DetectorFace, max(face, 0), []landmark.Landmark{lm})
	}

	return points
}
