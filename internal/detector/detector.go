// Package detector wraps the MediaPipe hand, pose and face mesh solutions.
// Inference happens in a Python subprocess; this package forwards frames and
// options to it and turns the results into pixel landmarks.
package detector

import (
	"errors"

	"github.com/ayusman/holoroom/internal/landmark"
	"gocv.io/x/gocv"
)

// Solution names a MediaPipe solution understood by landmark_service.py.
type Solution string

const (
	SolutionHands    Solution = "hands"
	SolutionPose     Solution = "pose"
	SolutionFaceMesh Solution = "face_mesh"
)

var (
	// ErrServiceNotFound is returned when landmark_service.py cannot be located.
	ErrServiceNotFound = errors.New("landmark_service.py not found")
	// ErrEmptyFrame is returned when asked to process an empty frame.
	ErrEmptyFrame = errors.New("frame is empty")
)

// Backend runs one MediaPipe solution over frames.
type Backend interface {
	// Process returns one landmark list per detected instance (hand, body or
	// face) in normalized coordinates. No detection is an empty result, not
	// an error.
	Process(frame *gocv.Mat) ([]landmark.NormalizedList, error)

	// Connections returns the solution's connection table as reported by
	// the library. It may be nil before the first Process call.
	Connections() landmark.Connections

	// Close releases any resources held by the backend.
	Close() error
}

// HandsConfig holds the options forwarded to mediapipe.solutions.hands.Hands.
type HandsConfig struct {
	StaticImageMode        bool    `json:"static_image_mode"`
	MaxNumHands            int     `json:"max_num_hands"`
	ModelComplexity        int     `json:"model_complexity"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
}

// DefaultHandsConfig returns MediaPipe's defaults with two hands.
func DefaultHandsConfig() HandsConfig {
	return HandsConfig{
		MaxNumHands:            2,
		ModelComplexity:        1,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}

// PoseConfig holds the options forwarded to mediapipe.solutions.pose.Pose.
type PoseConfig struct {
	StaticImageMode        bool    `json:"static_image_mode"`
	ModelComplexity        int     `json:"model_complexity"`
	SmoothLandmarks        bool    `json:"smooth_landmarks"`
	EnableSegmentation     bool    `json:"enable_segmentation"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`

	// WithoutHandsAndHead drops the face and hand points of the body model
	// and switches to landmark.ReducedPoseConnections. It is applied on the
	// Go side and not sent to MediaPipe.
	WithoutHandsAndHead bool `json:"-"`
}

// DefaultPoseConfig returns MediaPipe's defaults with the reduced body.
func DefaultPoseConfig() PoseConfig {
	return PoseConfig{
		ModelComplexity:        1,
		SmoothLandmarks:        true,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		WithoutHandsAndHead:    true,
	}
}

// FaceMeshConfig holds the options forwarded to mediapipe.solutions.face_mesh.FaceMesh.
type FaceMeshConfig struct {
	StaticImageMode        bool    `json:"static_image_mode"`
	MaxNumFaces            int     `json:"max_num_faces"`
	RefineLandmarks        bool    `json:"refine_landmarks"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
}

// DefaultFaceMeshConfig returns MediaPipe's defaults.
func DefaultFaceMeshConfig() FaceMeshConfig {
	return FaceMeshConfig{
		MaxNumFaces:            1,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}
