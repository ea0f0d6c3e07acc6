// Package testdata holds recorded landmark sequences and helpers that replay
// them through the detector wrappers without MediaPipe.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayusman/holoroom/internal/detector"
	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

//go:embed sequences/*.json
var sequencesFS embed.FS

// Frame is the MediaPipe output for one frame of a sequence.
type Frame struct {
	Hands []landmark.NormalizedList `json:"hands"`
	Pose  []landmark.NormalizedList `json:"pose"`
	Face  []landmark.NormalizedList `json:"face"`
}

// Sequence is a recorded run at a fixed frame size.
type Sequence struct {
	Name   string  `json:"name"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Frames []Frame `json:"frames"`
}

// LoadSequence loads sequences/<name>.json.
func LoadSequence(name string) (*Sequence, error) {
	data, err := sequencesFS.ReadFile("sequences/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	var seq Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", name, err)
	}
	return &seq, nil
}

// Backend replays one solution of the sequence, one frame per Process call.
// After the last frame it reports no detections.
func (s *Sequence) Backend(solution detector.Solution, conns landmark.Connections) *ReplayBackend {
	results := make([][]landmark.NormalizedList, len(s.Frames))
	for i, f := range s.Frames {
		switch solution {
		case detector.SolutionHands:
			results[i] = f.Hands
		case detector.SolutionPose:
			results[i] = f.Pose
		case detector.SolutionFaceMesh:
			results[i] = f.Face
		}
	}
	return &ReplayBackend{results: results, conns: conns}
}

// BlankFrames returns n white frames of the sequence size. The caller closes them.
func (s *Sequence) BlankFrames() []*gocv.Mat {
	frames := make([]*gocv.Mat, len(s.Frames))
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), s.Height, s.Width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// ReplayBackend implements detector.Backend over recorded results.
type ReplayBackend struct {
	mu      sync.Mutex
	results [][]landmark.NormalizedList
	conns   landmark.Connections
	next    int
	closed  bool
}

func (b *ReplayBackend) Process(frame *gocv.Mat) ([]landmark.NormalizedList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.next >= len(b.results) {
		return nil, nil
	}
	r := b.results[b.next]
	b.next++
	return r, nil
}

func (b *ReplayBackend) Connections() landmark.Connections {
	return b.conns
}

func (b *ReplayBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *ReplayBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

var _ detector.Backend = (*ReplayBackend)(nil)
