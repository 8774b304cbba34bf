package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/talkheal/gesturemode/internal/capture"
	"github.com/talkheal/gesturemode/internal/classifier"
	"github.com/talkheal/gesturemode/internal/gesture"
)

// runPipeline calls Session.Step once per tick until stop is closed or the
// session leaves Active. A tick that arrives while a cycle is still running
// is dropped, so frame N+1 is never read before cycle N finishes.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, err := a.session.Step(ctx)
			switch {
			case err == nil:
			case errors.Is(err, gesture.ErrNotActive), errors.Is(err, context.Canceled):
				return
			case errors.Is(err, capture.ErrCapture):
				// The session logs retries and ends itself when they run out.
				if a.session.State() != gesture.Active {
					return
				}
			case errors.Is(err, classifier.ErrShapeMismatch):
				a.log.Errorf("Gesture cycle failed: %v", err)
			default:
				a.log.Warnf("Gesture cycle failed: %v", err)
			}
		}
	}
}

// onFrame runs inside Step with the session locked.
func (a *App) onFrame(frame *gocv.Mat, res *gesture.Result) {
	if a.config.Overlay.Enabled {
		jpeg, err := a.renderer.EncodeJPEG(frame, res)
		if err != nil {
			a.log.Warnf("Preview frame dropped: %v", err)
		} else {
			a.preview.Publish(jpeg)
		}
	}
	a.observe(res)
}

// observe reports res when its gesture text differs from the last one.
func (a *App) observe(res *gesture.Result) {
	a.mu.Lock()
	if res.Gesture == a.lastGesture {
		a.mu.Unlock()
		return
	}
	a.lastGesture = res.Gesture

	ev := Event{
		SessionID: a.sessionID,
		Gesture:   res.Gesture,
		Time:      res.Time,
	}
	if n := len(res.Hands); n > 0 {
		h := res.Hands[n-1]
		ev.Pose = h.PoseLabel
		ev.Handedness = h.Hand.Handedness.Label
		if h.Motion != gesture.NoMotion {
			ev.Motion = h.MotionName
		}
	}
	a.lastEvent = &ev
	reporters := append([]Reporter(nil), a.reporters...)
	a.mu.Unlock()

	for _, r := range reporters {
		r.GestureChanged(ev)
	}
}

// onStateChange runs with the session locked, so it must not call back
// into the session.
func (a *App) onStateChange(from, to gesture.State, reason error) {
	a.mu.Lock()
	a.state = to
	switch to {
	case gesture.Active:
		a.sessionID = newID()
		a.startedAt = time.Now()
		a.lastGesture = ""
		a.lastEvent = nil
		a.lastErr = nil
	case gesture.Idle:
		a.lastErr = reason
	}
	st := a.statusLocked()
	reporters := append([]Reporter(nil), a.reporters...)
	a.mu.Unlock()

	if to == gesture.Active {
		a.renderer.ResetFPS()
	}
	a.log.Debugf("Session %s: %s -> %s", st.SessionID, from, to)

	for _, r := range reporters {
		r.StateChanged(st)
	}
}
