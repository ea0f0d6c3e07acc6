package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/holoroom/internal/config"
	"github.com/ayusman/holoroom/internal/detector"
)

// ServiceOptions converts the service section of the config.
func ServiceOptions(cfg config.ServiceConfig) detector.ServiceOptions {
	return detector.ServiceOptions{
		Python:      cfg.Python,
		Script:      cfg.Script,
		IdleTimeout: time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
}

// HandsConfig converts the hands section of the config.
func HandsConfig(cfg config.HandsConfig) detector.HandsConfig {
	return detector.HandsConfig{
		StaticImageMode:        cfg.StaticImageMode,
		MaxNumHands:            cfg.MaxNumHands,
		ModelComplexity:        cfg.ModelComplexity,
		MinDetectionConfidence: cfg.MinDetectionConfidence,
		MinTrackingConfidence:  cfg.MinTrackingConfidence,
	}
}

// PoseConfig converts the pose section of the config.
func PoseConfig(cfg config.PoseConfig) detector.PoseConfig {
	return detector.PoseConfig{
		StaticImageMode:        cfg.StaticImageMode,
		ModelComplexity:        cfg.ModelComplexity,
		SmoothLandmarks:        cfg.SmoothLandmarks,
		EnableSegmentation:     cfg.EnableSegmentation,
		MinDetectionConfidence: cfg.MinDetectionConfidence,
		MinTrackingConfidence:  cfg.MinTrackingConfidence,
		WithoutHandsAndHead:    cfg.WithoutHandsAndHead,
	}
}

// FaceMeshConfig converts the face section of the config.
func FaceMeshConfig(cfg config.FaceConfig) detector.FaceMeshConfig {
	return detector.FaceMeshConfig{
		StaticImageMode:        cfg.StaticImageMode,
		MaxNumFaces:            cfg.MaxNumFaces,
		RefineLandmarks:        cfg.RefineLandmarks,
		MinDetectionConfidence: cfg.MinDetectionConfidence,
		MinTrackingConfidence:  cfg.MinTrackingConfidence,
	}
}

// NewDetectors creates a MediaPipe-backed detector for every enabled
// section of cfg. The Python services start on the first frame.
func NewDetectors(cfg config.Config) (Detectors, error) {
	var d Detectors
	service := ServiceOptions(cfg.Service)

	if cfg.Pose.Enabled {
		pose, err := detector.NewMediaPipePoseDetector(PoseConfig(cfg.Pose), service)
		if err != nil {
			return Detectors{}, fmt.Errorf("pose detector: %w", err)
		}
		d.Pose = pose
	}

	if cfg.Hands.Enabled {
		hands, err := detector.NewMediaPipeHandDetector(HandsConfig(cfg.Hands), service)
		if err != nil {
			return Detectors{}, errors.Join(fmt.Errorf("hand detector: %w", err), d.Close())
		}
		d.Hands = hands
	}

	if cfg.Face.Enabled {
		face, err := detector.NewMediaPipeFaceMeshDetector(FaceMeshConfig(cfg.Face), service)
		if err != nil {
			return Detectors{}, errors.Join(fmt.Errorf("face mesh detector: %w", err), d.Close())
		}
		d.Face = face
	}

	return d, nil
}
