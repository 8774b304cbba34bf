// Package hook runs external programs when a bound gesture is reported,
// so the chat layer can react without linking against this process.
package hook

import (
	"encoding/json"
	"time"
)

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// SupportsAction reports whether the manifest lists action. An empty
// list accepts any action.
func (m *Manifest) SupportsAction(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Event is the gesture report passed to a hook.
type Event struct {
	SessionID  string    `json:"session_id"`
	Gesture    string    `json:"gesture"`
	Pose       string    `json:"pose"`
	Motion     string    `json:"motion"`
	Handedness string    `json:"handedness"`
	Time       time.Time `json:"time"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Event   Event           `json:"event"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}
