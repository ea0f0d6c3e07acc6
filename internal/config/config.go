// Package config loads holoroom settings from a YAML file.
// A missing file is not an error: the defaults are used instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render modes.
const (
	ModeOverlay = "overlay"
	ModeRoom    = "room"
)

// DirName is the per-user data directory under $HOME.
const DirName = ".holoroom"

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
}

// HandsConfig mirrors MediaPipe's Hands options.
type HandsConfig struct {
	Enabled                bool    `yaml:"enabled"`
	StaticImageMode        bool    `yaml:"static_image_mode"`
	MaxNumHands            int     `yaml:"max_num_hands"`
	ModelComplexity        int     `yaml:"model_complexity"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

// PoseConfig mirrors MediaPipe's Pose options.
type PoseConfig struct {
	Enabled                bool    `yaml:"enabled"`
	StaticImageMode        bool    `yaml:"static_image_mode"`
	ModelComplexity        int     `yaml:"model_complexity"`
	SmoothLandmarks        bool    `yaml:"smooth_landmarks"`
	EnableSegmentation     bool    `yaml:"enable_segmentation"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
	WithoutHandsAndHead    bool    `yaml:"without_hands_and_head"`
}

// FaceConfig mirrors MediaPipe's FaceMesh options.
type FaceConfig struct {
	Enabled                bool    `yaml:"enabled"`
	StaticImageMode        bool    `yaml:"static_image_mode"`
	MaxNumFaces            int     `yaml:"max_num_faces"`
	RefineLandmarks        bool    `yaml:"refine_landmarks"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

// ServiceConfig locates the MediaPipe bridge script.
type ServiceConfig struct {
	// Python is the interpreter. Empty means a venv next to the binary, then python3.
	Python string `yaml:"python"`
	// Script is the path to landmark_service.py. Empty means search the usual places.
	Script string `yaml:"script"`
	// IdleTimeoutSec stops an unused service process. 0 disables it.
	IdleTimeoutSec int `yaml:"idle_timeout_sec"`
}

// ServerConfig configures the web preview.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// Config is the full holoroom configuration.
type Config struct {
	Mode     string        `yaml:"mode"`
	ShowFPS  bool          `yaml:"show_fps"`
	Window   string        `yaml:"window"`
	LogLevel string        `yaml:"log_level"`
	DBPath   string        `yaml:"db_path"`
	Record   bool          `yaml:"record"`
	Camera   CameraConfig  `yaml:"camera"`
	Hands    HandsConfig   `yaml:"hands"`
	Pose     PoseConfig    `yaml:"pose"`
	Face     FaceConfig    `yaml:"face"`
	Service  ServiceConfig `yaml:"service"`
	Server   ServerConfig  `yaml:"server"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:     ModeRoom,
		ShowFPS:  true,
		Window:   "holoroom",
		LogLevel: "info",
		DBPath:   filepath.Join(homeDir(), DirName, "holoroom.db"),
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
			FPS:      30,
		},
		Hands: HandsConfig{
			Enabled:                true,
			MaxNumHands:            2,
			ModelComplexity:        1,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
		},
		Pose: PoseConfig{
			Enabled:                true,
			ModelComplexity:        1,
			SmoothLandmarks:        true,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
			WithoutHandsAndHead:    true,
		},
		Face: FaceConfig{
			Enabled:                true,
			MaxNumFaces:            1,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
		},
		Service: ServiceConfig{
			IdleTimeoutSec: 30,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultPath returns ~/.holoroom/config.yaml.
func DefaultPath() string {
	return filepath.Join(homeDir(), DirName, "config.yaml")
}

// Load reads the YAML file at path over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the values that would otherwise fail deep inside MediaPipe.
func (c *Config) Validate() error {
	var problems []string

	if c.Mode != ModeOverlay && c.Mode != ModeRoom {
		problems = append(problems, fmt.Sprintf("mode must be %s or %s", ModeOverlay, ModeRoom))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		problems = append(problems, "camera width and height must be positive")
	}
	if c.Camera.FPS < 0 {
		problems = append(problems, "camera fps must not be negative")
	}
	if c.Hands.MaxNumHands < 1 {
		problems = append(problems, "hands.max_num_hands must be at least 1")
	}
	if c.Face.MaxNumFaces < 1 {
		problems = append(problems, "face.max_num_faces must be at least 1")
	}
	if !validComplexity(c.Hands.ModelComplexity, 1) {
		problems = append(problems, "hands.model_complexity must be 0 or 1")
	}
	if !validComplexity(c.Pose.ModelComplexity, 2) {
		problems = append(problems, "pose.model_complexity must be 0, 1 or 2")
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"hands.min_detection_confidence", c.Hands.MinDetectionConfidence},
		{"hands.min_tracking_confidence", c.Hands.MinTrackingConfidence},
		{"pose.min_detection_confidence", c.Pose.MinDetectionConfidence},
		{"pose.min_tracking_confidence", c.Pose.MinTrackingConfidence},
		{"face.min_detection_confidence", c.Face.MinDetectionConfidence},
		{"face.min_tracking_confidence", c.Face.MinTrackingConfidence},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 1 {
			problems = append(problems, th.name+" must be between 0 and 1")
		}
	}
	if c.Service.IdleTimeoutSec < 0 {
		problems = append(problems, "service.idle_timeout_sec must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validComplexity(v, max int) bool {
	return v >= 0 && v <= max
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
