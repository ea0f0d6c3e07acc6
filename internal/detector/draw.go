package detector

import (
	"image"
	"image/color"

	"github.com/ayusman/holoroom/internal/landmark"
	"github.com/ayusman/holoroom/internal/room"
	"gocv.io/x/gocv"
)

// DrawStyle mirrors MediaPipe's default landmark and connection colours.
type DrawStyle struct {
	LandmarkColor     color.RGBA
	LandmarkRadius    int
	LandmarkThickness int
	ConnectionColor   color.RGBA
	ConnectionWidth   int
}

// DefaultDrawStyle draws red landmarks joined by light grey lines.
var DefaultDrawStyle = DrawStyle{
	LandmarkColor:     color.RGBA{R: 255, A: 255},
	LandmarkRadius:    2,
	LandmarkThickness: 2,
	ConnectionColor:   color.RGBA{R: 224, G: 224, B: 224, A: 255},
	ConnectionWidth:   2,
}

// DrawLandmarks overlays lms and their connections onto canvas.
// Connections go first so the landmark dots stay visible on top.
func DrawLandmarks(canvas room.Canvas, lms []landmark.Landmark, conns landmark.Connections, st DrawStyle) {
	for _, c := range conns {
		a, ok := landmark.Find(lms, c.A)
		if !ok {
			continue
		}
		b, ok := landmark.Find(lms, c.B)
		if !ok {
			continue
		}
		canvas.Line(image.Pt(a.X, a.Y), image.Pt(b.X, b.Y), st.ConnectionColor, st.ConnectionWidth)
	}
	for _, lm := range lms {
		canvas.Circle(image.Pt(lm.X, lm.Y), st.LandmarkRadius, st.LandmarkColor, st.LandmarkThickness)
	}
}

// overlay draws one normalized landmark list onto the frame it came from.
func overlay(frame *gocv.Mat, list landmark.NormalizedList, conns landmark.Connections, st DrawStyle) {
	if frame == nil || frame.Empty() {
		return
	}
	lms := landmark.ToPixels(list, frame.Cols(), frame.Rows())
	DrawLandmarks(room.NewMatCanvas(frame), lms, conns, st)
}
