// Package landmark provides the landmark and connection types shared by the
// detectors and the renderers, plus the conversion from the normalized
// coordinates MediaPipe reports to pixel coordinates.
package landmark

import "math"

// Normalized is a single landmark as reported by MediaPipe.
// X and Y are roughly in [0,1] relative to the frame; Z is relative depth
// on the same scale as X.
type Normalized struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NormalizedList is the ordered landmark set of one detected hand, body or face.
type NormalizedList []Normalized

// Landmark is a landmark mapped into pixel space of a specific frame.
type Landmark struct {
	Index int `json:"index"`
	X     int `json:"x"`
	Y     int `json:"y"`
	Z     int `json:"z"`
}

// ToPixels maps every landmark of list into the pixel space of a w×h frame.
// Z is scaled by the width, like MediaPipe does for its depth estimate.
// The returned index is the position of the landmark in list.
func ToPixels(list NormalizedList, w, h int) []Landmark {
	out := make([]Landmark, 0, len(list))
	for i, lm := range list {
		out = append(out, Landmark{
			Index: i,
			X:     scale(lm.X, w),
			Y:     scale(lm.Y, h),
			Z:     scale(lm.Z, w),
		})
	}
	return out
}

func scale(v float64, size int) int {
	return int(math.Floor(v * float64(size)))
}

// Find returns the landmark with the given index using a linear scan.
func Find(lms []Landmark, index int) (Landmark, bool) {
	for _, lm := range lms {
		if lm.Index == index {
			return lm, true
		}
	}
	return Landmark{}, false
}

// IndexSet is a set of landmark indices.
type IndexSet map[int]struct{}

// NewIndexSet builds an IndexSet from the given indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// IndexRange returns the indices in [from, to).
func IndexRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// Contains reports whether index is in the set.
func (s IndexSet) Contains(index int) bool {
	_, ok := s[index]
	return ok
}

// Filter drops the landmarks whose position in list is in ignore.
// The result is compacted, so positions in the returned list no longer
// match the original model indices.
func Filter(list NormalizedList, ignore IndexSet) NormalizedList {
	if len(ignore) == 0 {
		return list
	}
	out := make(NormalizedList, 0, len(list))
	for i, lm := range list {
		if ignore.Contains(i) {
			continue
		}
		out = append(out, lm)
	}
	return out
}
