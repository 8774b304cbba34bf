// Package app wires the gesture session to its reporters: the preview
// stream, the event store, hooks and whatever the host registers.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cyclopcam/logs"

	"github.com/talkheal/gesturemode/internal/capture"
	"github.com/talkheal/gesturemode/internal/classifier"
	"github.com/talkheal/gesturemode/internal/config"
	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/features"
	"github.com/talkheal/gesturemode/internal/gesture"
	"github.com/talkheal/gesturemode/internal/hook"
	"github.com/talkheal/gesturemode/internal/render"
	"github.com/talkheal/gesturemode/internal/store"
)

// Option overrides a component that New would otherwise build from config.
type Option func(*App)

func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

func WithRecognizer(r *gesture.Recognizer) Option {
	return func(a *App) { a.recognizer = r }
}

// WithStore uses s instead of opening config.Store.Path. The caller keeps
// ownership of s.
func WithStore(s *store.Store) Option {
	return func(a *App) { a.store = s }
}

// App is the running gesture mode: one session plus its consumers.
type App struct {
	log    logs.Log
	config *config.Config

	camera     capture.Camera
	detector   detector.Detector
	recognizer *gesture.Recognizer
	session    *gesture.Session
	renderer   *render.Renderer
	preview    *Preview
	store      *store.Store
	ownsStore  bool
	hooks      *hook.Manager
	hookRunner *hookReporter
	closers    []io.Closer

	runMu  sync.Mutex
	stopCh chan struct{}
	done   chan struct{}

	mu          sync.RWMutex
	reporters   []Reporter
	state       gesture.State
	sessionID   string
	startedAt   time.Time
	lastGesture string
	lastEvent   *Event
	lastErr     error
}

// New builds the app from cfg. Models and label tables are loaded here, so
// a bad artifact fails startup.
func New(log logs.Log, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		log:     log,
		config:  cfg,
		preview: NewPreview(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.recognizer == nil {
		rec, closers, err := loadRecognizer(cfg.Models, cfg.Gesture.HistoryLength)
		if err != nil {
			return nil, err
		}
		a.recognizer = rec
		a.closers = closers
	}

	if a.camera == nil {
		a.camera = capture.NewCameraWithOptions(cfg.CameraOptions())
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
			a.detector = mp
			log.Infof("Using MediaPipe hand detection")
		} else {
			log.Warnf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	if a.store == nil && cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			a.closeModels()
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		s, err := store.New(cfg.Store.Path)
		if err != nil {
			a.closeModels()
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = s
		a.ownsStore = true
	}

	a.hooks = hook.NewManager(cfg.Hooks.Dir)
	if err := a.hooks.Discover(); err != nil {
		log.Warnf("Hook discovery in %s failed: %v", cfg.Hooks.Dir, err)
	} else if n := len(a.hooks.List()); n > 0 {
		log.Infof("Discovered %d hooks in %s", n, cfg.Hooks.Dir)
	}

	a.renderer = render.New(cfg.Overlay.BoundingRect)
	a.renderer.Quality = cfg.Overlay.JPEGQuality

	a.session = gesture.NewSession(log, a.camera, a.detector, a.recognizer, cfg.Gesture)
	a.session.OnStateChange(a.onStateChange)
	a.session.OnFrame(a.onFrame)

	if a.store != nil {
		a.reporters = append(a.reporters, &storeReporter{log: log, store: a.store, device: a.describeCamera()})
		a.hookRunner = newHookReporter(log, hook.NewDispatcher(log, a.store.Bindings(), a.hooks, hook.NewExecutor(cfg.HookTimeout())))
		a.reporters = append(a.reporters, a.hookRunner)
	}

	return a, nil
}

// loadRecognizer loads both label tables and models. Any DNN models are
// returned as closers.
func loadRecognizer(m config.ModelsConfig, historyLength int) (*gesture.Recognizer, []io.Closer, error) {
	poseLabels, err := classifier.LoadLabels(m.KeypointLabels)
	if err != nil {
		return nil, nil, err
	}
	motionLabels, err := classifier.LoadLabels(m.PointHistoryLabels)
	if err != nil {
		return nil, nil, err
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	poseModel, err := classifier.LoadModel(m.Keypoint, features.StaticSize, len(poseLabels))
	if err != nil {
		return nil, nil, fmt.Errorf("load keypoint model: %w", err)
	}
	if c, ok := poseModel.(io.Closer); ok {
		closers = append(closers, c)
	}

	motionModel, err := classifier.LoadModel(m.PointHistory, 2*historyLength, len(motionLabels))
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("load point history model: %w", err)
	}
	if c, ok := motionModel.(io.Closer); ok {
		closers = append(closers, c)
	}

	var motionOpts []classifier.Option
	if m.MotionThreshold > 0 {
		motionOpts = append(motionOpts, classifier.WithThreshold(m.MotionThreshold, gesture.NoMotion))
	}

	rec, err := gesture.NewRecognizer(
		classifier.NewModelClassifier(poseModel),
		classifier.NewModelClassifier(motionModel, motionOpts...),
		poseLabels, motionLabels,
	)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return rec, closers, nil
}

// AddReporter registers r for state and gesture changes.
func (a *App) AddReporter(r Reporter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reporters = append(a.reporters, r)
}

// Start activates gesture mode and launches the capture loop. Starting an
// active app does nothing.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.runningLocked() {
		return nil
	}

	if err := a.session.Start(ctx); err != nil {
		a.mu.Lock()
		a.lastErr = err
		a.mu.Unlock()
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	return nil
}

// Stop ends gesture mode and waits for the capture loop to exit.
func (a *App) Stop() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	err := a.session.Stop()
	if a.stopCh != nil {
		close(a.stopCh)
		<-a.done
		a.stopCh = nil
		a.done = nil
	}
	return err
}

func (a *App) runningLocked() bool {
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Close stops the session, shuts down the detector and releases models
// and the store.
func (a *App) Close() error {
	err := a.Stop()
	if cerr := a.session.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if a.hookRunner != nil {
		a.hookRunner.Wait()
	}
	a.closeModels()
	if a.ownsStore && a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (a *App) closeModels() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warnf("Error closing model: %v", err)
		}
	}
	a.closers = nil
}

// Status returns a snapshot of the session state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statusLocked()
}

func (a *App) statusLocked() Status {
	st := Status{
		State:     a.state.String(),
		Active:    a.state == gesture.Active,
		SessionID: a.sessionID,
		Gesture:   a.lastGesture,
	}
	if !a.startedAt.IsZero() {
		t := a.startedAt
		st.StartedAt = &t
	}
	if st.Active {
		st.FPS = a.renderer.FPS()
	}
	if a.lastErr != nil {
		st.Error = a.lastErr.Error()
	}
	return st
}

// LastEvent returns the most recent gesture change, or nil.
func (a *App) LastEvent() *Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastEvent == nil {
		return nil
	}
	ev := *a.lastEvent
	return &ev
}

func (a *App) Config() *config.Config      { return a.config }
func (a *App) Session() *gesture.Session   { return a.session }
func (a *App) Store() *store.Store         { return a.store }
func (a *App) Hooks() *hook.Manager        { return a.hooks }
func (a *App) Preview() *Preview           { return a.preview }
func (a *App) Detector() detector.Detector { return a.detector }

func (a *App) describeCamera() string {
	if a.config.Camera.Source != "" {
		return a.config.Camera.Source
	}
	return fmt.Sprintf("camera %d", a.config.Camera.Device)
}
