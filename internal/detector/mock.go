package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []Hand
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Hand, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PointingLandmarks returns a right hand with the index finger extended and
// the other fingers curled, with the index fingertip at tip.
func PointingLandmarks(tip Point) Hand {
	offsets := [NumLandmarks]Point{
		Wrist:     {X: 0, Y: 200},
		ThumbCMC:  {X: 30, Y: 170},
		ThumbMCP:  {X: 50, Y: 140},
		ThumbIP:   {X: 45, Y: 120},
		ThumbTip:  {X: 30, Y: 110},
		IndexMCP:  {X: 20, Y: 110},
		IndexPIP:  {X: 12, Y: 70},
		IndexDIP:  {X: 6, Y: 35},
		IndexTip:  {X: 0, Y: 0},
		MiddleMCP: {X: -5, Y: 110},
		MiddlePIP: {X: -5, Y: 90},
		MiddleDIP: {X: 0, Y: 110},
		MiddleTip: {X: 2, Y: 125},
		RingMCP:   {X: -25, Y: 115},
		RingPIP:   {X: -25, Y: 95},
		RingDIP:   {X: -20, Y: 115},
		RingTip:   {X: -18, Y: 128},
		PinkyMCP:  {X: -42, Y: 125},
		PinkyPIP:  {X: -42, Y: 108},
		PinkyDIP:  {X: -38, Y: 122},
		PinkyTip:  {X: -35, Y: 132},
	}

	hand := Hand{Handedness: Handedness{Label: HandRight, Score: 0.95}}
	for i, o := range offsets {
		hand.Points[i] = Point{X: tip.X + o.X, Y: tip.Y + o.Y}
	}
	return hand
}

// OpenPalmLandmarks returns a right hand with all fingers extended, wrist at wrist.
func OpenPalmLandmarks(wrist Point) Hand {
	offsets := [NumLandmarks]Point{
		Wrist:     {X: 0, Y: 0},
		ThumbCMC:  {X: 30, Y: -30},
		ThumbMCP:  {X: 70, Y: -60},
		ThumbIP:   {X: 105, Y: -90},
		ThumbTip:  {X: 135, Y: -120},
		IndexMCP:  {X: 30, Y: -110},
		IndexPIP:  {X: 40, Y: -180},
		IndexDIP:  {X: 45, Y: -225},
		IndexTip:  {X: 48, Y: -265},
		MiddleMCP: {X: 0, Y: -120},
		MiddlePIP: {X: 0, Y: -195},
		MiddleDIP: {X: 0, Y: -245},
		MiddleTip: {X: 0, Y: -290},
		RingMCP:   {X: -28, Y: -110},
		RingPIP:   {X: -38, Y: -180},
		RingDIP:   {X: -43, Y: -222},
		RingTip:   {X: -46, Y: -260},
		PinkyMCP:  {X: -52, Y: -95},
		PinkyPIP:  {X: -68, Y: -145},
		PinkyDIP:  {X: -78, Y: -178},
		PinkyTip:  {X: -85, Y: -208},
	}

	hand := Hand{Handedness: Handedness{Label: HandRight, Score: 0.93}}
	for i, o := range offsets {
		hand.Points[i] = Point{X: wrist.X + o.X, Y: wrist.Y + o.Y}
	}
	return hand
}
