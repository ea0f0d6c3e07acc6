package detector

import (
	"fmt"

	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

// FaceMeshDetector finds face meshes.
type FaceMeshDetector struct {
	config  FaceMeshConfig
	backend Backend
	style   DrawStyle
	faces   []landmark.NormalizedList
}

// NewFaceMeshDetector wraps backend. The tessellation table comes from the
// backend, which reports it at startup.
func NewFaceMeshDetector(config FaceMeshConfig, backend Backend) *FaceMeshDetector {
	return &FaceMeshDetector{
		config:  config,
		backend: backend,
		style:   DefaultDrawStyle,
	}
}

// NewMediaPipeFaceMeshDetector starts a face mesh backend with config.
func NewMediaPipeFaceMeshDetector(config FaceMeshConfig, service ServiceOptions) (*FaceMeshDetector, error) {
	backend, err := NewMediaPipeBackend(SolutionFaceMesh, config, service)
	if err != nil {
		return nil, err
	}
	return NewFaceMeshDetector(config, backend), nil
}

// Config returns the options the detector was created with.
func (d *FaceMeshDetector) Config() FaceMeshConfig {
	return d.config
}

// Find runs face mesh detection on frame. When draw is set every face is
// drawn onto frame. It returns the tessellation table when a face was found
// and nil otherwise.
func (d *FaceMeshDetector) Find(frame *gocv.Mat, draw bool) (landmark.Connections, error) {
	faces, err := d.backend.Process(frame)
	if err != nil {
		d.faces = nil
		return nil, fmt.Errorf("detect face mesh: %w", err)
	}
	d.faces = faces

	if len(faces) == 0 {
		return nil, nil
	}

	conns := d.backend.Connections()
	if draw {
		for _, face := range faces {
			overlay(frame, face, conns, d.style)
		}
	}

	return conns, nil
}

// Positions returns the pixel landmarks of all faces from the last Find in
// a single slice. Indices restart at 0 for every face, so with more than
// one face the per-face grouping is lost.
func (d *FaceMeshDetector) Positions(w, h int) []landmark.Landmark {
	out := make([]landmark.Landmark, 0, len(d.faces)*landmark.NumFaceLandmarks)
	for _, face := range d.faces {
		out = append(out, landmark.ToPixels(face, w, h)...)
	}
	return out
}

// Close releases the backend.
func (d *FaceMeshDetector) Close() error {
	return d.backend.Close()
}
