package gesture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"

	"github.com/talkheal/gesturemode/internal/capture"
	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/features"
	"github.com/talkheal/gesturemode/internal/history"
)

// ErrNotActive is returned by Step while the session is idle.
var ErrNotActive = errors.New("gesture session is not active")

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config holds the session tuning.
type Config struct {
	// HistoryLength is the capacity of the fingertip point history.
	HistoryLength int `json:"history_length"`
	// MotionHistoryLength is the capacity of the motion vote window.
	// Zero uses HistoryLength.
	MotionHistoryLength int `json:"motion_history_length"`
	// PointerClass is the pose index whose fingertip is tracked.
	PointerClass int `json:"pointer_class"`
	// TrackedLandmark is the landmark pushed while pointing.
	TrackedLandmark int `json:"tracked_landmark"`
	// MaxReadRetries is how many consecutive failed reads are tolerated
	// before the session ends. Zero ends it on the first failure.
	MaxReadRetries int `json:"max_read_retries"`
}

func DefaultConfig() Config {
	return Config{
		HistoryLength:   history.DefaultLength,
		PointerClass:    DefaultPointerClass,
		TrackedLandmark: detector.IndexTip,
	}
}

// HandResult is the per-hand outcome of one cycle.
type HandResult struct {
	Hand       detector.Hand
	Rect       image.Rectangle
	Pose       int
	PoseLabel  string
	Motion     int
	MotionName string
}

// Result is the outcome of one Step.
type Result struct {
	Time  time.Time
	Hands []HandResult
	// PointHistory is a snapshot taken after this cycle's pushes.
	PointHistory []detector.Point
	// MotionClassified reports whether the motion classifier ran this cycle.
	MotionClassified bool
	// Gesture is the reported text, empty when no hand was seen.
	Gesture string
}

// FrameFunc receives the mirrored frame and the cycle result before the
// frame is released. It must not keep frame or call back into the Session.
type FrameFunc func(frame *gocv.Mat, res *Result)

// StateFunc is called on every transition. reason is nil for Start and
// Stop and carries the capture error when a failure ends the session.
type StateFunc func(from, to State, reason error)

// Session owns the camera and both histories. All methods are safe for
// concurrent use; a Step holds the lock for the whole cycle so Stop takes
// effect between frames.
type Session struct {
	mu       sync.Mutex
	log      logs.Log
	camera   capture.Camera
	detector detector.Detector
	rec      *Recognizer
	config   Config

	state        State
	points       *history.Buffer[detector.Point]
	motions      *history.Buffer[int]
	readFailures int
	lastErr      error

	onFrame FrameFunc
	onState StateFunc
}

func NewSession(log logs.Log, camera capture.Camera, det detector.Detector, rec *Recognizer, config Config) *Session {
	def := DefaultConfig()
	if config.HistoryLength <= 0 {
		config.HistoryLength = def.HistoryLength
	}
	if config.MotionHistoryLength <= 0 {
		config.MotionHistoryLength = config.HistoryLength
	}
	if config.TrackedLandmark < 0 || config.TrackedLandmark >= detector.NumLandmarks {
		config.TrackedLandmark = def.TrackedLandmark
	}
	if config.MaxReadRetries < 0 {
		config.MaxReadRetries = 0
	}

	return &Session{
		log:      log,
		camera:   camera,
		detector: det,
		rec:      rec,
		config:   config,
		state:    Idle,
		points:   history.NewBuffer[detector.Point](config.HistoryLength),
		motions:  history.NewBuffer[int](config.MotionHistoryLength),
	}
}

// OnFrame registers the per-cycle frame consumer (debug overlay, preview).
func (s *Session) OnFrame(fn FrameFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

// OnStateChange registers the transition listener.
func (s *Session) OnStateChange(fn StateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error that last ended the session, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.config
}

// PointHistory returns a copy of the fingertip history, oldest first.
func (s *Session) PointHistory() []detector.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points.Values()
}

// MotionHistory returns a copy of the motion index history, oldest first.
func (s *Session) MotionHistory() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motions.Values()
}

// Start opens the camera and clears both histories. Calling Start on an
// active session does nothing.
func (s *Session) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Active {
		return nil
	}

	if err := s.camera.Open(); err != nil {
		s.lastErr = err
		return err
	}

	s.points.Reset()
	s.motions.Reset()
	s.readFailures = 0
	s.lastErr = nil
	s.setState(Active, nil)

	s.log.Infof("Gesture mode started")
	return nil
}

// Stop releases the camera. Histories are kept until the next Start.
// Stopping an idle session does nothing.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(nil)
}

// Close stops the session and shuts down the detector. It is meant for
// process exit.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.stopLocked(nil)
	if s.detector != nil {
		if derr := s.detector.Close(); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func (s *Session) stopLocked(reason error) error {
	if s.state != Active {
		return nil
	}

	err := s.camera.Close()
	if err != nil {
		s.log.Errorf("Error releasing camera: %v", err)
	}
	s.setState(Idle, reason)

	if reason != nil {
		s.lastErr = reason
		s.log.Warnf("Gesture mode stopped: %v", reason)
	} else {
		s.log.Infof("Gesture mode stopped")
	}
	return err
}

func (s *Session) setState(to State, reason error) {
	from := s.state
	s.state = to
	if s.onState != nil && from != to {
		s.onState(from, to, reason)
	}
}

// Step runs one capture, detect, classify and smooth cycle. It returns
// ErrNotActive when idle. A capture failure beyond MaxReadRetries ends
// the session and is returned wrapped in capture.ErrCapture.
func (s *Session) Step(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return nil, ErrNotActive
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrCapture) {
			err = fmt.Errorf("%w: %v", capture.ErrCapture, err)
		}
		s.readFailures++
		if s.readFailures > s.config.MaxReadRetries {
			s.stopLocked(err)
			return nil, err
		}
		s.log.Warnf("Frame read failed (%d/%d): %v", s.readFailures, s.config.MaxReadRetries, err)
		return nil, err
	}
	defer frame.Close()
	s.readFailures = 0

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(*frame, &mirrored, 1)

	hands, err := s.detector.Detect(&mirrored)
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}

	res, err := s.process(hands)
	if err != nil {
		return nil, err
	}

	if s.onFrame != nil {
		s.onFrame(&mirrored, res)
	}
	return res, nil
}

// process advances both histories for one cycle's detections.
func (s *Session) process(hands []detector.Hand) (*Result, error) {
	res := &Result{Time: time.Now()}

	if len(hands) == 0 {
		s.points.Push(detector.Point{})
		s.motions.Push(NoMotion)
		res.PointHistory = s.points.Values()
		return res, nil
	}

	for _, hand := range hands {
		hr := HandResult{
			Hand: hand,
			Rect: hand.BoundingRect(),
		}

		pose, poseLabel, err := s.rec.classifyPose(features.NormalizeStatic(hand.Landmarks()))
		if err != nil {
			return nil, err
		}
		hr.Pose = pose
		hr.PoseLabel = poseLabel

		if pose == s.config.PointerClass {
			s.points.Push(hand.Points[s.config.TrackedLandmark])
		} else {
			s.points.Push(detector.Point{})
		}

		motion := NoMotion
		if traj, ok := features.NormalizeTrajectory(s.points.Values(), s.points.Cap()); ok {
			motion, err = s.rec.classifyMotion(traj)
			if err != nil {
				return nil, err
			}
			res.MotionClassified = true
		}
		s.motions.Push(motion)

		stable, _ := history.MostCommon(s.motions.Values())
		motionName, err := s.rec.MotionLabel(stable)
		if err != nil {
			return nil, err
		}
		hr.Motion = stable
		hr.MotionName = motionName

		res.Hands = append(res.Hands, hr)
		res.Gesture = gestureText(poseLabel, stable, motionName)
	}

	res.PointHistory = s.points.Values()
	return res, nil
}
