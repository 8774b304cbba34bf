package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session records one activation of gesture mode.
type Session struct {
	ID         string     `json:"id"`
	Device     string     `json:"device"`
	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
}

// SessionRepository provides access to the sessions table.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new open session. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, device, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Device, sess.StartedAt,
	)
	return err
}

// End marks a session stopped. reason is empty for a user stop.
func (r *SessionRepository) End(id string, at time.Time, reason string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET stopped_at = ?, stop_reason = ? WHERE id = ? AND stopped_at IS NULL`,
		at, reason, id,
	)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, device, started_at, stopped_at, stop_reason FROM sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first, at most limit rows.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, device, started_at, stopped_at, stop_reason
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var stopped sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Device, &sess.StartedAt, &stopped, &sess.StopReason); err != nil {
		return nil, err
	}
	if stopped.Valid {
		t := stopped.Time
		sess.StoppedAt = &t
	}
	return sess, nil
}
