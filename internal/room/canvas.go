// Package room renders landmark skeletons into a synthetic "virtual room"
// image, independent of the camera picture they were detected in.
package room

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is the drawing surface used by the renderers.
type Canvas interface {
	// Circle draws a circle. A negative thickness fills it.
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	// Line draws a straight segment between a and b.
	Line(a, b image.Point, c color.RGBA, thickness int)
}

// MatCanvas draws onto a gocv Mat in place.
type MatCanvas struct {
	Mat *gocv.Mat
}

// NewMatCanvas wraps mat. The caller keeps ownership of mat.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{Mat: mat}
}

// Circle implements Canvas.
func (m *MatCanvas) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.Circle(m.Mat, center, radius, c, thickness)
}

// Line implements Canvas.
func (m *MatCanvas) Line(a, b image.Point, c color.RGBA, thickness int) {
	gocv.Line(m.Mat, a, b, c, thickness)
}

// Blank paints the whole Mat black.
func Blank(mat *gocv.Mat) {
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}
