package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posecoach/internal/scoring"
)

// Set is a stored set summary.
type Set struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	scoring.SetSummary
	CreatedAt time.Time `json:"created_at"`
}

// SetRepository stores completed sets.
type SetRepository struct {
	db *sql.DB
}

// Sets returns the set repository for this store.
func (s *Store) Sets() *SetRepository {
	return &SetRepository{db: s.db}
}

// Create inserts a set for the session.
func (r *SetRepository) Create(sessionID string, sum scoring.SetSummary) (*Set, error) {
	scores, err := json.Marshal(nonNil(sum.RepScores))
	if err != nil {
		return nil, fmt.Errorf("encode rep scores: %w", err)
	}

	set := &Set{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SetSummary: sum,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = r.db.Exec(
		`INSERT INTO sets (id, session_id, activity, set_idx, reps_target, reps_counted, rep_scores,
			form_stability, symmetry_index, final_percent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		set.ID, sessionID, sum.Activity, sum.SetIndex, sum.RepsTarget, sum.RepsCounted, string(scores),
		sum.FormStability, sum.SymmetryIndex, sum.FinalPercent, set.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ListBySession returns the sets of a session in completion order.
func (r *SetRepository) ListBySession(sessionID string) ([]*Set, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, activity, set_idx, reps_target, reps_counted, rep_scores,
			form_stability, symmetry_index, final_percent, created_at
		 FROM sets WHERE session_id = ? ORDER BY created_at, rowid`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*Set
	for rows.Next() {
		s := &Set{}
		var scores string
		err := rows.Scan(&s.ID, &s.SessionID, &s.Activity, &s.SetIndex, &s.RepsTarget, &s.RepsCounted, &scores,
			&s.FormStability, &s.SymmetryIndex, &s.FinalPercent, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scores), &s.RepScores); err != nil {
			return nil, fmt.Errorf("decode rep scores of set %s: %w", s.ID, err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// Summaries returns the plain set summaries of a session.
func (r *SetRepository) Summaries(sessionID string) ([]scoring.SetSummary, error) {
	sets, err := r.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]scoring.SetSummary, len(sets))
	for i, s := range sets {
		out[i] = s.SetSummary
	}
	return out, nil
}

func nonNil(xs []float64) []float64 {
	if xs == nil {
		return []float64{}
	}
	return xs
}
