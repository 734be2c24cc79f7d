package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is the persisted record of an exercise session.
type Session struct {
	ID        string
	Stream    bool
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	return s.ClosedAt != nil
}

// SessionRepository provides storage for sessions and their repetition counts.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, stream, created_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Stream, sess.CreatedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var closedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, stream, created_at, closed_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Stream, &sess.CreatedAt, &closedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if closedAt.Valid {
		sess.ClosedAt = &closedAt.Time
	}
	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, stream, created_at, closed_at FROM sessions ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var closedAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Stream, &sess.CreatedAt, &closedAt); err != nil {
			return nil, err
		}
		if closedAt.Valid {
			sess.ClosedAt = &closedAt.Time
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Close marks a session as ended. Closing an already closed session keeps the
// original close time.
func (r *SessionRepository) Close(id string, at time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET closed_at = COALESCE(closed_at, ?) WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a session and its counts.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
