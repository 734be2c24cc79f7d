package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/asana/internal/classification"
)

// sampleDelimiter separates coordinates in the coords column.
const sampleDelimiter = ","

// SampleRepository stores the reference poses the classifier is built from.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// ReplaceAll swaps the whole reference set in a single transaction.
func (r *SampleRepository) ReplaceAll(samples []classification.PoseSample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pose_samples`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO pose_samples (label, dims, coords, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, s := range samples {
		dims := s.Dims
		if dims != 2 {
			dims = 3
		}
		if _, err := stmt.Exec(s.Label, dims, s.Format(sampleDelimiter, dims), now); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns all reference samples in insertion order.
func (r *SampleRepository) List() ([]classification.PoseSample, error) {
	rows, err := r.db.Query(`SELECT id, coords FROM pose_samples ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []classification.PoseSample
	for rows.Next() {
		var id int64
		var coords string
		if err := rows.Scan(&id, &coords); err != nil {
			return nil, err
		}

		s, err := classification.ParseSample(coords, sampleDelimiter)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", id, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Count returns the number of stored samples.
func (r *SampleRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM pose_samples`).Scan(&n)
	return n, err
}

// LabelCount is the number of samples carrying one label.
type LabelCount struct {
	Label   string `json:"label"`
	Samples int    `json:"samples"`
}

// CountByLabel returns per-label sample counts ordered by label.
func (r *SampleRepository) CountByLabel() ([]LabelCount, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM pose_samples GROUP BY label ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Label, &c.Samples); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
