// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

import (
	"fmt"
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness values reported by the detector.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point is a 2D landmark position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt converts the point to an integer image point for drawing.
func (p Point) Pt() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// IsZero reports whether p is the (0,0) sentinel.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Handedness is the categorical Left/Right label paired with a landmark set.
type Handedness struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Validate checks that the label is Left or Right and the score is a probability.
func (h Handedness) Validate() error {
	if h.Label != HandLeft && h.Label != HandRight {
		return fmt.Errorf("handedness must be %q or %q, got %q", HandLeft, HandRight, h.Label)
	}
	if h.Score < 0 || h.Score > 1 {
		return fmt.Errorf("handedness score must be between 0 and 1, got %f", h.Score)
	}
	return nil
}

// Hand is one detected hand: 21 pixel-space landmarks and its handedness.
type Hand struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness Handedness          `json:"handedness"`
}

// BoundingRect returns the axis-aligned box enclosing all landmarks.
// Max is exclusive, so a single point yields a 1x1 rectangle.
func (h *Hand) BoundingRect() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range h.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
}

// Landmarks returns the landmark set as a slice.
func (h *Hand) Landmarks() []Point {
	return h.Points[:]
}

// toPixel maps a normalized [0,1] coordinate to a pixel index clamped to the frame.
func toPixel(v float64, size int) float64 {
	px := int(v * float64(size))
	if px > size-1 {
		px = size - 1
	}
	return float64(px)
}
