package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Rep is a stored repetition.
type Rep struct {
	ID        int64                         `json:"id"`
	SessionID string                        `json:"session_id"`
	Activity  string                        `json:"activity"`
	SetIndex  int                           `json:"set_idx"`
	RepIndex  int                           `json:"rep_index"`
	T0        float64                       `json:"t0"`
	T1        float64                       `json:"t1"`
	Counted   bool                          `json:"counted"`
	Score     float64                       `json:"score"`
	Message   string                        `json:"message"`
	Bands     map[string]scoring.JointScore `json:"bands"`
	Match     json.RawMessage               `json:"match,omitempty"`
	CreatedAt time.Time                     `json:"created_at"`
}

// RepRepository stores detected repetitions.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Create inserts a repetition and fills in its ID.
func (r *RepRepository) Create(rep *Rep) error {
	bands, err := json.Marshal(rep.Bands)
	if err != nil {
		return fmt.Errorf("encode bands: %w", err)
	}
	var match any
	if len(rep.Match) > 0 {
		match = string(rep.Match)
	}
	rep.CreatedAt = time.Now().UTC()

	res, err := r.db.Exec(
		`INSERT INTO reps (session_id, activity, set_idx, rep_index, t0, t1, counted, score, message, bands, match, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.SessionID, rep.Activity, rep.SetIndex, rep.RepIndex, rep.T0, rep.T1, rep.Counted, rep.Score,
		rep.Message, string(bands), match, rep.CreatedAt,
	)
	if err != nil {
		return err
	}
	rep.ID, err = res.LastInsertId()
	return err
}

// ListBySession returns the repetitions of a session in detection order.
func (r *RepRepository) ListBySession(sessionID string) ([]*Rep, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, activity, set_idx, rep_index, t0, t1, counted, score, message, bands, match, created_at
		 FROM reps WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []*Rep
	for rows.Next() {
		rep := &Rep{}
		var (
			bands string
			match sql.NullString
		)
		err := rows.Scan(&rep.ID, &rep.SessionID, &rep.Activity, &rep.SetIndex, &rep.RepIndex, &rep.T0, &rep.T1,
			&rep.Counted, &rep.Score, &rep.Message, &bands, &match, &rep.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bands), &rep.Bands); err != nil {
			return nil, fmt.Errorf("decode bands of rep %d: %w", rep.ID, err)
		}
		if match.Valid {
			rep.Match = json.RawMessage(match.String)
		}
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}

// NewRep converts a detected repetition of activity into a storable Rep.
func NewRep(sessionID, activity string, r coach.RepResult) *Rep {
	rep := &Rep{
		SessionID: sessionID,
		Activity:  activity,
		SetIndex:  r.SetIndex,
		RepIndex:  r.Index,
		T0:        r.Event.T0,
		T1:        r.Event.T1,
		Counted:   r.Assessment.Counted,
		Score:     r.Score,
		Message:   r.Assessment.Message,
		Bands:     r.Assessment.Bands,
	}
	if r.Match != nil {
		if b, err := json.Marshal(r.Match); err == nil {
			rep.Match = b
		}
	}
	return rep
}
