package detector

import (
	"sync"

	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

// MockBackend is a test implementation of the Backend interface.
// It allows tests to control the detection results.
type MockBackend struct {
	mu     sync.Mutex
	result []landmark.NormalizedList
	conns  landmark.Connections
	err    error
	calls  int
	closed bool
}

// NewMockBackend creates a MockBackend that reports conns as its connection table.
func NewMockBackend(conns landmark.Connections) *MockBackend {
	return &MockBackend{conns: conns}
}

// SetResult sets the landmark lists returned by Process.
func (m *MockBackend) SetResult(result ...landmark.NormalizedList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
}

// SetError sets the error that will be returned by Process.
func (m *MockBackend) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Process returns the pre-configured result or error.
func (m *MockBackend) Process(frame *gocv.Mat) ([]landmark.NormalizedList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// Connections implements Backend.
func (m *MockBackend) Connections() landmark.Connections {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns
}

// Close marks the mock closed.
func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Process was called.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockBackend) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// OpenPalmLandmarks returns a right hand with all fingers extended upward.
func OpenPalmLandmarks() landmark.NormalizedList {
	p := make(landmark.NormalizedList, landmark.NumHandLandmarks)

	p[landmark.Wrist] = landmark.Normalized{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	p[landmark.ThumbCMC] = landmark.Normalized{X: 0.55, Y: 0.75, Z: 0.02}
	p[landmark.ThumbMCP] = landmark.Normalized{X: 0.62, Y: 0.70, Z: 0.03}
	p[landmark.ThumbIP] = landmark.Normalized{X: 0.68, Y: 0.65, Z: 0.03}
	p[landmark.ThumbTip] = landmark.Normalized{X: 0.73, Y: 0.60, Z: 0.03}

	p[landmark.IndexMCP] = landmark.Normalized{X: 0.55, Y: 0.68}
	p[landmark.IndexPIP] = landmark.Normalized{X: 0.57, Y: 0.55}
	p[landmark.IndexDIP] = landmark.Normalized{X: 0.58, Y: 0.45}
	p[landmark.IndexTip] = landmark.Normalized{X: 0.58, Y: 0.35}

	p[landmark.MiddleMCP] = landmark.Normalized{X: 0.50, Y: 0.66}
	p[landmark.MiddlePIP] = landmark.Normalized{X: 0.50, Y: 0.52}
	p[landmark.MiddleDIP] = landmark.Normalized{X: 0.50, Y: 0.40}
	p[landmark.MiddleTip] = landmark.Normalized{X: 0.50, Y: 0.28}

	p[landmark.RingMCP] = landmark.Normalized{X: 0.45, Y: 0.68}
	p[landmark.RingPIP] = landmark.Normalized{X: 0.43, Y: 0.55}
	p[landmark.RingDIP] = landmark.Normalized{X: 0.42, Y: 0.45}
	p[landmark.RingTip] = landmark.Normalized{X: 0.42, Y: 0.35}

	p[landmark.PinkyMCP] = landmark.Normalized{X: 0.40, Y: 0.70}
	p[landmark.PinkyPIP] = landmark.Normalized{X: 0.37, Y: 0.60}
	p[landmark.PinkyDIP] = landmark.Normalized{X: 0.35, Y: 0.50}
	p[landmark.PinkyTip] = landmark.Normalized{X: 0.34, Y: 0.42}

	return p
}

// StandingPoseLandmarks returns a full 33-point body standing upright,
// facing the camera, with arms slightly away from the torso.
func StandingPoseLandmarks() landmark.NormalizedList {
	p := make(landmark.NormalizedList, landmark.NumPoseLandmarks)

	// Head: nose, eyes, ears, mouth
	for i := 0; i <= 10; i++ {
		p[i] = landmark.Normalized{X: 0.45 + float64(i)*0.01, Y: 0.15 + float64(i%3)*0.01, Z: -0.3}
	}

	p[11] = landmark.Normalized{X: 0.60, Y: 0.30, Z: -0.1} // left shoulder
	p[12] = landmark.Normalized{X: 0.40, Y: 0.30, Z: -0.1} // right shoulder
	p[13] = landmark.Normalized{X: 0.65, Y: 0.45, Z: -0.1}
	p[14] = landmark.Normalized{X: 0.35, Y: 0.45, Z: -0.1}
	p[15] = landmark.Normalized{X: 0.67, Y: 0.58, Z: -0.2}
	p[16] = landmark.Normalized{X: 0.33, Y: 0.58, Z: -0.2}

	// Hand points of the body model
	for i := 17; i <= 22; i++ {
		side := 0.68
		if i%2 == 0 {
			side = 0.32
		}
		p[i] = landmark.Normalized{X: side, Y: 0.62, Z: -0.2}
	}

	p[23] = landmark.Normalized{X: 0.56, Y: 0.60}
	p[24] = landmark.Normalized{X: 0.44, Y: 0.60}
	p[25] = landmark.Normalized{X: 0.56, Y: 0.75}
	p[26] = landmark.Normalized{X: 0.44, Y: 0.75}
	p[27] = landmark.Normalized{X: 0.56, Y: 0.90}
	p[28] = landmark.Normalized{X: 0.44, Y: 0.90}
	p[29] = landmark.Normalized{X: 0.57, Y: 0.93}
	p[30] = landmark.Normalized{X: 0.43, Y: 0.93}
	p[31] = landmark.Normalized{X: 0.55, Y: 0.96}
	p[32] = landmark.Normalized{X: 0.45, Y: 0.96}

	return p
}

// FaceMeshLandmarks returns a synthetic 468-point face laid out on a grid
// around the given center.
func FaceMeshLandmarks(cx, cy float64) landmark.NormalizedList {
	p := make(landmark.NormalizedList, landmark.NumFaceLandmarks)
	for i := range p {
		row, col := i/26, i%26
		p[i] = landmark.Normalized{
			X: cx - 0.1 + float64(col)*0.008,
			Y: cy - 0.1 + float64(row)*0.011,
			Z: -0.05,
		}
	}
	return p
}
