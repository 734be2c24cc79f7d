package store

import (
	"time"
)

// SaveReps stores the current repetition count of every class in counts.
func (r *SessionRepository) SaveReps(sessionID string, counts map[string]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	stmt, err := tx.Prepare(
		`INSERT INTO session_reps (session_id, class_name, reps, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, class_name) DO UPDATE SET reps = excluded.reps, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for class, reps := range counts {
		if _, err := stmt.Exec(sessionID, class, reps, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetReps returns the stored repetition counts of a session. A session with no
// saved counts yields an empty map.
func (r *SessionRepository) GetReps(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT class_name, reps FROM session_reps WHERE session_id = ? ORDER BY class_name`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var class string
		var reps int
		if err := rows.Scan(&class, &reps); err != nil {
			return nil, err
		}
		counts[class] = reps
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
