package room

import (
	"image"
	"image/color"

	"github.com/ayusman/holoroom/internal/landmark"
)

// Size is the extent of the virtual room. Depth is carried for callers
// that want it but is not used for drawing.
type Size struct {
	Height int
	Width  int
	Depth  int
}

// SizeOf returns the room matching a w×h frame. Depth uses the width,
// the same unit the landmark Z coordinate is scaled by.
func SizeOf(w, h int) Size {
	return Size{Height: h, Width: w, Depth: w}
}

// Style controls how points and connections look.
type Style struct {
	PointRadius   int
	PointColor    color.RGBA
	LineThickness int
	LineColor     color.RGBA
}

// DefaultStyle is green filled dots of radius 5 joined by 2px green lines.
var DefaultStyle = Style{
	PointRadius:   5,
	PointColor:    color.RGBA{G: 255, A: 255},
	LineThickness: 2,
	LineColor:     color.RGBA{G: 255, A: 255},
}

// Visualize draws lms and the connections between them onto canvas using
// DefaultStyle and returns canvas.
func Visualize(size Size, lms []landmark.Landmark, canvas Canvas, conns landmark.Connections) Canvas {
	return VisualizeStyle(size, lms, canvas, conns, DefaultStyle)
}

// VisualizeStyle draws one filled circle per landmark and one line per
// connection whose two endpoints are both present in lms. Endpoints are
// looked up by landmark index; connections with a missing endpoint are
// skipped. Z is ignored.
func VisualizeStyle(size Size, lms []landmark.Landmark, canvas Canvas, conns landmark.Connections, st Style) Canvas {
	for _, lm := range lms {
		canvas.Circle(toRoom(size, lm), st.PointRadius, st.PointColor, -1)
	}

	for _, c := range conns {
		a, ok := landmark.Find(lms, c.A)
		if !ok {
			continue
		}
		b, ok := landmark.Find(lms, c.B)
		if !ok {
			continue
		}
		canvas.Line(toRoom(size, a), toRoom(size, b), st.LineColor, st.LineThickness)
	}

	return canvas
}

// toRoom maps a frame pixel onto the room. The room has the frame's
// dimensions, so x and y carry over unchanged.
func toRoom(_ Size, lm landmark.Landmark) image.Point {
	return image.Pt(lm.X, lm.Y)
}
