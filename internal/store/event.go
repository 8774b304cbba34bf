package store

import (
	"database/sql"
	"time"
)

// Event is one reported gesture.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Gesture    string    `json:"gesture"`
	Pose       string    `json:"pose"`
	Motion     string    `json:"motion"`
	Handedness string    `json:"handedness"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventRepository provides access to the gesture_events table.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event. CreatedAt defaults to now.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, session_id, gesture, pose, motion, handedness, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Gesture, e.Pose, e.Motion, e.Handedness, e.CreatedAt,
	)
	return err
}

// ListRecent returns the newest events first, at most limit rows.
func (r *EventRepository) ListRecent(limit int) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, gesture, pose, motion, handedness, created_at
		 FROM gesture_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
}

// ListBySession returns a session's events in the order they happened.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, gesture, pose, motion, handedness, created_at
		 FROM gesture_events WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
}

func (r *EventRepository) query(q string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Gesture, &e.Pose, &e.Motion, &e.Handedness, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
