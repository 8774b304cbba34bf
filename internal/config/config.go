// Package config loads the gesturemode JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/talkheal/gesturemode/internal/capture"
	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/gesture"
)

// DefaultConfigPath is where the CLI looks when no -c flag is given.
const DefaultConfigPath = "gesturemode.json"

// maxFileSize bounds the config file.
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration. Every section is optional in the file;
// omitted fields keep the values from Default.
type Config struct {
	Camera   CameraConfig    `json:"camera"`
	Detector detector.Config `json:"detector"`
	Gesture  gesture.Config  `json:"gesture"`
	Models   ModelsConfig    `json:"models"`
	Overlay  OverlayConfig   `json:"overlay"`
	Server   ServerConfig    `json:"server"`
	Store    StoreConfig     `json:"store"`
	Hooks    HooksConfig     `json:"hooks"`
	Tray     bool            `json:"tray"`
	// Autostart begins a session as soon as the process is up.
	Autostart bool `json:"autostart"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device int    `json:"device"`
	Source string `json:"source,omitempty"` // file or stream URL, overrides Device
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
}

// ModelsConfig points at the two classifiers and their label tables.
type ModelsConfig struct {
	Keypoint           string `json:"keypoint"`
	KeypointLabels     string `json:"keypoint_labels"`
	PointHistory       string `json:"point_history"`
	PointHistoryLabels string `json:"point_history_labels"`
	// MotionThreshold is the minimum motion score; below it the motion
	// class falls back to 0.
	MotionThreshold float64 `json:"motion_threshold"`
}

type OverlayConfig struct {
	Enabled      bool `json:"enabled"`
	BoundingRect bool `json:"bounding_rect"`
	// JPEGQuality is used for the preview stream.
	JPEGQuality int `json:"jpeg_quality"`
}

type ServerConfig struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir,omitempty"`
}

type StoreConfig struct {
	Path string `json:"path"`
}

type HooksConfig struct {
	Dir     string `json:"dir"`
	Timeout string `json:"timeout"` // duration string like "5s"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Device: 0,
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			FPS:    capture.DefaultFPS,
		},
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultConfig(),
		Models: ModelsConfig{
			Keypoint:           "model/keypoint_classifier.onnx",
			KeypointLabels:     "model/keypoint_classifier_label.csv",
			PointHistory:       "model/point_history_classifier.onnx",
			PointHistoryLabels: "model/point_history_classifier_label.csv",
			MotionThreshold:    0.5,
		},
		Overlay: OverlayConfig{
			Enabled:      true,
			BoundingRect: true,
			JPEGQuality:  80,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Store: StoreConfig{
			Path: defaultDataPath("gesturemode.db"),
		},
		Hooks: HooksConfig{
			Dir:     defaultDataPath("hooks"),
			Timeout: "5s",
		},
	}
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".gesturemode", name)
}

// Load reads a config file on top of Default. The file must have a .json
// extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", c.Camera.Device)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}

	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be >= 1, got %d", c.Detector.MaxHands)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_detection_confidence must be between 0 and 1, got %f", c.Detector.MinConfidence)
	}
	if c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1 {
		return fmt.Errorf("detector.min_tracking_confidence must be between 0 and 1, got %f", c.Detector.MinTrackingConf)
	}

	if c.Gesture.HistoryLength < 1 {
		return fmt.Errorf("gesture.history_length must be >= 1, got %d", c.Gesture.HistoryLength)
	}
	if c.Gesture.MotionHistoryLength < 0 {
		return fmt.Errorf("gesture.motion_history_length must be >= 0, got %d", c.Gesture.MotionHistoryLength)
	}
	if c.Gesture.PointerClass < 0 {
		return fmt.Errorf("gesture.pointer_class must be >= 0, got %d", c.Gesture.PointerClass)
	}
	if c.Gesture.TrackedLandmark < 0 || c.Gesture.TrackedLandmark >= detector.NumLandmarks {
		return fmt.Errorf("gesture.tracked_landmark must be in [0,%d), got %d", detector.NumLandmarks, c.Gesture.TrackedLandmark)
	}
	if c.Gesture.MaxReadRetries < 0 {
		return fmt.Errorf("gesture.max_read_retries must be >= 0, got %d", c.Gesture.MaxReadRetries)
	}

	if c.Models.Keypoint == "" || c.Models.PointHistory == "" {
		return fmt.Errorf("models.keypoint and models.point_history are required")
	}
	if c.Models.KeypointLabels == "" || c.Models.PointHistoryLabels == "" {
		return fmt.Errorf("models.keypoint_labels and models.point_history_labels are required")
	}
	if c.Models.MotionThreshold < 0 || c.Models.MotionThreshold > 1 {
		return fmt.Errorf("models.motion_threshold must be between 0 and 1, got %f", c.Models.MotionThreshold)
	}

	if c.Overlay.JPEGQuality < 0 || c.Overlay.JPEGQuality > 100 {
		return fmt.Errorf("overlay.jpeg_quality must be between 0 and 100, got %d", c.Overlay.JPEGQuality)
	}

	if c.Hooks.Timeout != "" {
		if _, err := time.ParseDuration(c.Hooks.Timeout); err != nil {
			return fmt.Errorf("invalid hooks.timeout '%s': %w", c.Hooks.Timeout, err)
		}
	}
	return nil
}

// HookTimeout returns the parsed hook timeout, or zero for the executor default.
func (c *Config) HookTimeout() time.Duration {
	if c.Hooks.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Hooks.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// CameraOptions converts the camera section for capture.NewCameraWithOptions.
func (c *Config) CameraOptions() capture.Options {
	return capture.Options{
		Source:   c.Camera.Source,
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
	}
}
