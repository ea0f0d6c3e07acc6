package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// VideoFile reads frames from a video file. It satisfies Camera so the
// display loop can render recordings offline.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewVideoFile creates a source for path. The file is opened by Open.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path}
}

// Path returns the file being read.
func (v *VideoFile) Path() string {
	return v.path
}

func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: unsupported or missing file", v.path)
	}

	if v.fps <= 0 {
		v.fps = int(capture.Get(gocv.VideoCaptureFPS) + 0.5)
	}
	if v.fps <= 0 {
		v.fps = DefaultFPS
	}

	v.capture = capture
	v.running = true
	return nil
}

func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false
	return err
}

// ReadFrame returns the next frame, or ErrReadFailed at end of file.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrCameraNotOpen
	}
	return readMat(v.capture)
}

// SetFPS overrides the frame rate reported for the file. Playback speed is
// not affected; frames are read as fast as the caller asks.
func (v *VideoFile) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fps = fps
}

func (v *VideoFile) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fps <= 0 {
		return DefaultFPS
	}
	return v.fps
}

func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// FrameCount returns the number of frames the container reports, or 0 if
// unknown or not open.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return 0
	}
	n := int(v.capture.Get(gocv.VideoCaptureFrameCount))
	if n < 0 {
		return 0
	}
	return n
}

// SourceFPS returns the frame rate stored in the file, or 0 if not open.
func (v *VideoFile) SourceFPS() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return 0
	}
	return v.capture.Get(gocv.VideoCaptureFPS)
}

// FrameSize returns the width and height of decoded frames, or zeros if not open.
func (v *VideoFile) FrameSize() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return 0, 0
	}
	return int(v.capture.Get(gocv.VideoCaptureFrameWidth)), int(v.capture.Get(gocv.VideoCaptureFrameHeight))
}
