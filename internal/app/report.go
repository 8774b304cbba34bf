package app

import (
	"context"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/google/uuid"

	"github.com/talkheal/gesturemode/internal/hook"
	"github.com/talkheal/gesturemode/internal/store"
)

// Event is a change of the reported gesture. An empty Gesture means the
// hand left the frame.
type Event struct {
	SessionID  string    `json:"session_id"`
	Gesture    string    `json:"gesture"`
	Pose       string    `json:"pose,omitempty"`
	Motion     string    `json:"motion,omitempty"`
	Handedness string    `json:"handedness,omitempty"`
	Time       time.Time `json:"time"`
}

// Status is the session snapshot served to the UI.
type Status struct {
	State     string     `json:"state"`
	Active    bool       `json:"active"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Gesture   string     `json:"gesture"`
	FPS       float64    `json:"fps"`
	Error     string     `json:"error,omitempty"`
}

// Reporter consumes session output. Both methods are called from the
// capture loop with the session locked; implementations must return
// quickly and must not call back into the App.
type Reporter interface {
	GestureChanged(ev Event)
	StateChanged(st Status)
}

func newID() string {
	return uuid.New().String()
}

// storeReporter records sessions and non-empty gestures.
type storeReporter struct {
	log    logs.Log
	store  *store.Store
	device string
}

func (r *storeReporter) StateChanged(st Status) {
	if st.SessionID == "" {
		return
	}
	if st.Active {
		sess := &store.Session{ID: st.SessionID, Device: r.device}
		if st.StartedAt != nil {
			sess.StartedAt = *st.StartedAt
		}
		if err := r.store.Sessions().Create(sess); err != nil {
			r.log.Errorf("Failed to record session %s: %v", st.SessionID, err)
		}
		return
	}
	if err := r.store.Sessions().End(st.SessionID, time.Now(), st.Error); err != nil {
		r.log.Errorf("Failed to close session %s: %v", st.SessionID, err)
	}
}

func (r *storeReporter) GestureChanged(ev Event) {
	if ev.Gesture == "" {
		return
	}
	err := r.store.Events().Create(&store.Event{
		ID:         newID(),
		SessionID:  ev.SessionID,
		Gesture:    ev.Gesture,
		Pose:       ev.Pose,
		Motion:     ev.Motion,
		Handedness: ev.Handedness,
		CreatedAt:  ev.Time,
	})
	if err != nil {
		r.log.Errorf("Failed to record gesture %q: %v", ev.Gesture, err)
	}
}

// hookReporter runs bound hooks off the capture loop.
type hookReporter struct {
	log        logs.Log
	dispatcher *hook.Dispatcher
	wg         sync.WaitGroup
}

func newHookReporter(log logs.Log, d *hook.Dispatcher) *hookReporter {
	return &hookReporter{log: log, dispatcher: d}
}

func (r *hookReporter) StateChanged(Status) {}

func (r *hookReporter) GestureChanged(ev Event) {
	if ev.Gesture == "" {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, err := r.dispatcher.Dispatch(context.Background(), hook.Event{
			SessionID:  ev.SessionID,
			Gesture:    ev.Gesture,
			Pose:       ev.Pose,
			Motion:     ev.Motion,
			Handedness: ev.Handedness,
			Time:       ev.Time,
		})
		if err != nil {
			r.log.Warnf("Hook for %q failed: %v", ev.Gesture, err)
		}
	}()
}

// Wait blocks until running hooks finish.
func (r *hookReporter) Wait() {
	r.wg.Wait()
}
