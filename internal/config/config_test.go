package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/history"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, 960, cfg.Camera.Width)
	require.Equal(t, 540, cfg.Camera.Height)
	require.Equal(t, history.DefaultLength, cfg.Gesture.HistoryLength)
	require.Equal(t, 2, cfg.Gesture.PointerClass)
	require.Equal(t, detector.IndexTip, cfg.Gesture.TrackedLandmark)
	require.Equal(t, 2, cfg.Detector.MaxHands)
	require.InDelta(t, 0.5, cfg.Models.MotionThreshold, 1e-9)
	require.Equal(t, 5*time.Second, cfg.HookTimeout())
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "gm.json", `{
		"camera": {"device": 1, "width": 640},
		"gesture": {"history_length": 8},
		"server": {"addr": ":9000"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 1, cfg.Camera.Device)
	require.Equal(t, 640, cfg.Camera.Width)
	require.Equal(t, 540, cfg.Camera.Height)
	require.Equal(t, 8, cfg.Gesture.HistoryLength)
	require.Equal(t, 2, cfg.Gesture.PointerClass)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, Default().Models, cfg.Models)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "gm.yaml", `{}`, ".json extension"},
		{"bad json", "gm.json", `{"camera":`, "failed to parse"},
		{"negative device", "gm.json", `{"camera":{"device":-1}}`, "camera.device"},
		{"zero history", "gm.json", `{"gesture":{"history_length":0}}`, "history_length"},
		{"landmark out of range", "gm.json", `{"gesture":{"tracked_landmark":21}}`, "tracked_landmark"},
		{"confidence above one", "gm.json", `{"detector":{"min_detection_confidence":1.5}}`, "min_detection_confidence"},
		{"no max hands", "gm.json", `{"detector":{"max_hands":0}}`, "max_hands"},
		{"threshold", "gm.json", `{"models":{"motion_threshold":2}}`, "motion_threshold"},
		{"missing model", "gm.json", `{"models":{"keypoint":""}}`, "models.keypoint"},
		{"bad timeout", "gm.json", `{"hooks":{"timeout":"soon"}}`, "hooks.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "failed to stat")
}

func TestLoad_TooLarge(t *testing.T) {
	body := `{"tray": true, "pad": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err := Load(writeConfig(t, "big.json", body))
	require.ErrorContains(t, err, "too large")
}

func TestCameraOptions(t *testing.T) {
	cfg := Default()
	cfg.Camera.Source = "clip.mp4"
	cfg.Camera.FPS = 30

	opts := cfg.CameraOptions()
	require.Equal(t, "clip.mp4", opts.Source)
	require.Equal(t, 30, opts.FPS)
	require.Equal(t, cfg.Camera.Width, opts.Width)
}

func TestHookTimeout_Empty(t *testing.T) {
	cfg := Default()
	cfg.Hooks.Timeout = ""
	require.Zero(t, cfg.HookTimeout())
}
