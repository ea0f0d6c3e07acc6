package detector

import (
	"fmt"

	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

// PoseDetector finds one body. With WithoutHandsAndHead set it drops the
// face and hand points of the body model, so its landmark indices refer to
// the 16 remaining torso and limb points.
type PoseDetector struct {
	config  PoseConfig
	backend Backend
	style   DrawStyle
	ignore  landmark.IndexSet
	conns   landmark.Connections
	body    landmark.NormalizedList
}

// NewPoseDetector wraps backend.
func NewPoseDetector(config PoseConfig, backend Backend) *PoseDetector {
	d := &PoseDetector{
		config:  config,
		backend: backend,
		style:   DefaultDrawStyle,
	}
	if config.WithoutHandsAndHead {
		d.ignore = landmark.PoseHandsAndHead
		d.conns = landmark.ReducedPoseConnections
	} else {
		d.conns = landmark.PoseConnections
	}
	return d
}

// NewMediaPipePoseDetector starts a pose backend with config.
func NewMediaPipePoseDetector(config PoseConfig, service ServiceOptions) (*PoseDetector, error) {
	backend, err := NewMediaPipeBackend(SolutionPose, config, service)
	if err != nil {
		return nil, err
	}
	return NewPoseDetector(config, backend), nil
}

// Config returns the options the detector was created with.
func (d *PoseDetector) Config() PoseConfig {
	return d.config
}

// Ignored returns the model indices removed from every result.
func (d *PoseDetector) Ignored() landmark.IndexSet {
	return d.ignore
}

// Find runs pose detection on frame and keeps the filtered body for
// Positions. When draw is set the body is drawn onto frame. It returns the
// active connection table when a body was found and nil otherwise.
func (d *PoseDetector) Find(frame *gocv.Mat, draw bool) (landmark.Connections, error) {
	bodies, err := d.backend.Process(frame)
	if err != nil {
		d.body = nil
		return nil, fmt.Errorf("detect pose: %w", err)
	}

	if len(bodies) == 0 {
		d.body = nil
		return nil, nil
	}

	d.body = landmark.Filter(bodies[0], d.ignore)

	if draw {
		overlay(frame, d.body, d.conns, d.style)
	}

	return d.conns, nil
}

// Positions returns the pixel landmarks of the body from the last Find.
// Indices are positions in the filtered list.
func (d *PoseDetector) Positions(w, h int) []landmark.Landmark {
	return landmark.ToPixels(d.body, w, h)
}

// Close releases the backend.
func (d *PoseDetector) Close() error {
	return d.backend.Close()
}
