// Package app runs the holoroom display loop: read a frame, run the
// landmark detectors, render the skeletons and hand the result to sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/holoroom/internal/capture"
	"github.com/ayusman/holoroom/internal/config"
	"github.com/ayusman/holoroom/internal/detector"
	"github.com/ayusman/holoroom/internal/log"
	"gocv.io/x/gocv"
)

// Mode selects how landmarks are rendered.
type Mode string

const (
	// ModeOverlay draws skeletons on the live frame with an FPS counter.
	ModeOverlay Mode = config.ModeOverlay
	// ModeRoom blanks the frame and renders skeletons into the virtual room.
	ModeRoom Mode = config.ModeRoom
)

// ErrInvalidMode is returned by ParseMode for unknown names.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode converts "overlay" or "room" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOverlay, ModeRoom:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Detectors groups the three wrappers. A nil field disables that detector.
type Detectors struct {
	Hands *detector.HandDetector
	Pose  *detector.PoseDetector
	Face  *detector.FaceMeshDetector
}

// Close releases every configured detector and returns the first error.
func (d Detectors) Close() error {
	var errs []error
	if d.Pose != nil {
		errs = append(errs, d.Pose.Close())
	}
	if d.Hands != nil {
		errs = append(errs, d.Hands.Close())
	}
	if d.Face != nil {
		errs = append(errs, d.Face.Close())
	}
	return errors.Join(errs...)
}

// Options configure an App.
type Options struct {
	Camera    capture.Camera
	Detectors Detectors
	Mode      Mode
	ShowFPS   bool
	Sinks     []Sink
}

// App is the display loop. Mode and pause state may be changed from other
// goroutines while Run is active.
type App struct {
	camera    capture.Camera
	detectors Detectors
	showFPS   bool
	logger    *slog.Logger

	mu     sync.RWMutex
	mode   Mode
	paused bool
	sinks  []Sink
	frames int

	failing map[string]bool
}

// New creates an App. An empty mode defaults to ModeRoom.
func New(opts Options) *App {
	mode := opts.Mode
	if mode == "" {
		mode = ModeRoom
	}
	return &App{
		camera:    opts.Camera,
		detectors: opts.Detectors,
		showFPS:   opts.ShowFPS,
		mode:      mode,
		sinks:     append([]Sink(nil), opts.Sinks...),
		logger:    log.With("component", "app"),
		failing:   make(map[string]bool),
	}
}

// SetMode switches between overlay and room rendering.
func (a *App) SetMode(m Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != m {
		a.logger.Info("render mode changed", "from", a.mode, "to", m)
	}
	a.mode = m
}

// Mode returns the current render mode.
func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// SetPaused stops or resumes detection. Paused frames are still shown.
func (a *App) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
}

// IsPaused reports whether detection is paused.
func (a *App) IsPaused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// AddSink registers a sink. It must be called before Run.
func (a *App) AddSink(s Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// Frames returns how many frames have been processed.
func (a *App) Frames() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frames
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Run opens the camera and processes frames until a read fails, ctx is
// cancelled or a sink returns ErrQuit. The camera, detectors and sinks are
// closed before Run returns. A read failure ends the loop normally; only
// setup problems and sink failures are returned.
func (a *App) Run(ctx context.Context) (err error) {
	if a.camera == nil {
		return errors.New("app: no camera")
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	defer func() {
		if cerr := a.shutdown(); cerr != nil {
			a.logger.Warn("shutdown", "error", cerr)
		}
	}()

	a.logger.Info("display loop started", "mode", a.Mode(), "sinks", len(a.sinks))

	clock := newFPSCounter()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("display loop cancelled", "frames", a.Frames())
			return nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			a.logger.Info("frame source ended", "error", err, "frames", a.Frames())
			return nil
		}

		res := a.processFrame(frame, clock.tick())
		quit, err := a.publish(frame, res)
		frame.Close()

		if err != nil {
			return err
		}
		if quit {
			a.logger.Info("quit requested", "frames", a.Frames())
			return nil
		}
	}
}

// publish hands one rendered frame to every sink.
func (a *App) publish(frame *gocv.Mat, res *Result) (quit bool, err error) {
	a.mu.RLock()
	sinks := a.sinks
	a.mu.RUnlock()

	for _, s := range sinks {
		if serr := s.Consume(frame, res); serr != nil {
			if errors.Is(serr, ErrQuit) {
				quit = true
				continue
			}
			return quit, fmt.Errorf("sink: %w", serr)
		}
	}
	return quit, nil
}

func (a *App) shutdown() error {
	var errs []error
	errs = append(errs, a.camera.Close())
	errs = append(errs, a.detectors.Close())

	a.mu.RLock()
	sinks := a.sinks
	a.mu.RUnlock()
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
