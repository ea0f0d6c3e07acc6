package app

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/ayusman/holoroom/internal/landmark"
	"github.com/ayusman/holoroom/internal/room"
	"gocv.io/x/gocv"
)

// FPS counter placement, matching the classic MediaPipe demo.
var (
	fpsOrigin = image.Pt(10, 70)
	fpsColor  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// Result is everything the loop learned about one frame.
type Result struct {
	Frame     int       `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	FPS       float64   `json:"fps"`
	Paused    bool      `json:"paused"`

	Hands [][]landmark.Landmark `json:"hands"`
	Pose  []landmark.Landmark   `json:"pose"`
	Face  []landmark.Landmark   `json:"face"`

	HandConnections landmark.Connections `json:"hand_connections,omitempty"`
	PoseConnections landmark.Connections `json:"pose_connections,omitempty"`
	// The face tessellation is large and constant; clients that need it
	// can ask the service directly.
	FaceConnections landmark.Connections `json:"-"`
}

// processFrame runs the detectors on frame and renders it for the current
// mode. Detection order is pose, hands, face. frame is modified in place.
func (a *App) processFrame(frame *gocv.Mat, fps float64) *Result {
	a.mu.Lock()
	index := a.frames
	a.frames++
	mode, paused := a.mode, a.paused
	a.mu.Unlock()

	w, h := frame.Cols(), frame.Rows()
	res := &Result{
		Frame:     index,
		Timestamp: time.Now(),
		Mode:      mode,
		Width:     w,
		Height:    h,
		FPS:       fps,
		Paused:    paused,
		Hands:     [][]landmark.Landmark{},
		Pose:      []landmark.Landmark{},
		Face:      []landmark.Landmark{},
	}

	if paused {
		return res
	}

	draw := mode == ModeOverlay

	if d := a.detectors.Pose; d != nil {
		conns, err := d.Find(frame, draw)
		a.track("pose", err)
		res.Pose = d.Positions(w, h)
		res.PoseConnections = conns
	}

	if d := a.detectors.Hands; d != nil {
		conns, err := d.Find(frame, draw)
		a.track("hands", err)
		res.Hands = d.Positions(w, h)
		res.HandConnections = conns
	}

	if d := a.detectors.Face; d != nil {
		conns, err := d.Find(frame, draw)
		a.track("face", err)
		res.Face = d.Positions(w, h)
		res.FaceConnections = conns
	}

	switch mode {
	case ModeRoom:
		renderRoom(frame, res)
	case ModeOverlay:
		if a.showFPS {
			drawFPS(frame, fps)
		}
	}

	return res
}

// track logs the first failure of a detector and its recovery, not every
// failing frame.
func (a *App) track(name string, err error) {
	if err != nil {
		if !a.failing[name] {
			a.logger.Warn("detector failed", "detector", name, "error", err)
		}
		a.failing[name] = true
		return
	}
	if a.failing[name] {
		a.logger.Info("detector recovered", "detector", name)
		a.failing[name] = false
	}
}

// renderRoom clears frame and draws every detection of res into it.
func renderRoom(frame *gocv.Mat, res *Result) {
	room.Blank(frame)

	size := room.SizeOf(res.Width, res.Height)
	canvas := room.NewMatCanvas(frame)

	for _, hand := range res.Hands {
		room.Visualize(size, hand, canvas, res.HandConnections)
	}
	room.Visualize(size, res.Pose, canvas, res.PoseConnections)
	room.Visualize(size, res.Face, canvas, res.FaceConnections)
}

func drawFPS(frame *gocv.Mat, fps float64) {
	gocv.PutText(frame, fmt.Sprintf("%d", int(fps)), fpsOrigin, gocv.FontHersheyPlain, 3, fpsColor, 3)
}

// fpsCounter measures the rate between consecutive frames.
type fpsCounter struct {
	now  func() time.Time
	prev time.Time
}

func newFPSCounter() *fpsCounter {
	return &fpsCounter{now: time.Now}
}

// tick returns the instantaneous rate since the previous tick, 0 on the first.
func (c *fpsCounter) tick() float64 {
	now := c.now()
	defer func() { c.prev = now }()

	if c.prev.IsZero() {
		return 0
	}
	elapsed := now.Sub(c.prev).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return 1 / elapsed
}
