package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Source is where a session's frames came from.
type Source string

const (
	SourceLive   Source = "live"
	SourceReplay Source = "replay"
)

// Session is a stored coaching session.
type Session struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Source    Source     `json:"source"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the session has not been stopped.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session, assigning an ID and start time when missing.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Source == "" {
		s.Source = SourceLive
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, name, source, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, string(s.Source), s.StartedAt, s.EndedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, name, source, started_at, ended_at FROM sessions WHERE id = ?`, id,
	)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, name, source, started_at, ended_at FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// End marks a session as stopped. Ending an already stopped session keeps the first end time.
func (r *SessionRepository) End(id string, at time.Time) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	_, err := r.db.Exec(`UPDATE sessions SET ended_at = COALESCE(ended_at, ?) WHERE id = ?`, at, id)
	return err
}

// Delete removes a session along with its sets and reps.
func (r *SessionRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*Session, error) {
	s := &Session{}
	var (
		source string
		ended  sql.NullTime
	)
	if err := sc.Scan(&s.ID, &s.Name, &source, &s.StartedAt, &ended); err != nil {
		return nil, err
	}
	s.Source = Source(source)
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}
