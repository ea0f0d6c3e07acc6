package detector

import (
	"fmt"

	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

// HandDetector finds hands and keeps the last result for Positions.
type HandDetector struct {
	config  HandsConfig
	backend Backend
	style   DrawStyle
	hands   []landmark.NormalizedList
}

// NewHandDetector wraps backend. config is what backend was built with and
// is kept for reporting only.
func NewHandDetector(config HandsConfig, backend Backend) *HandDetector {
	return &HandDetector{
		config:  config,
		backend: backend,
		style:   DefaultDrawStyle,
	}
}

// NewMediaPipeHandDetector starts a hands backend with config.
func NewMediaPipeHandDetector(config HandsConfig, service ServiceOptions) (*HandDetector, error) {
	backend, err := NewMediaPipeBackend(SolutionHands, config, service)
	if err != nil {
		return nil, err
	}
	return NewHandDetector(config, backend), nil
}

// Config returns the options the detector was created with.
func (d *HandDetector) Config() HandsConfig {
	return d.config
}

// Find runs hand detection on frame. When draw is set every detected hand
// is drawn onto frame. It returns landmark.HandConnections when at least one
// hand was found and nil otherwise.
func (d *HandDetector) Find(frame *gocv.Mat, draw bool) (landmark.Connections, error) {
	hands, err := d.backend.Process(frame)
	if err != nil {
		d.hands = nil
		return nil, fmt.Errorf("detect hands: %w", err)
	}
	d.hands = hands

	if len(hands) == 0 {
		return nil, nil
	}

	if draw {
		for _, hand := range hands {
			overlay(frame, hand, landmark.HandConnections, d.style)
		}
	}

	return landmark.HandConnections, nil
}

// Positions returns the pixel landmarks of every hand from the last Find,
// one slice per hand, scaled to a w×h frame.
func (d *HandDetector) Positions(w, h int) [][]landmark.Landmark {
	out := make([][]landmark.Landmark, 0, len(d.hands))
	for _, hand := range d.hands {
		out = append(out, landmark.ToPixels(hand, w, h))
	}
	return out
}

// Close releases the backend.
func (d *HandDetector) Close() error {
	return d.backend.Close()
}
