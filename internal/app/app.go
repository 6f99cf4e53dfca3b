// Package app runs live coaching: camera frames flow through the pose detector into a
// coach.Session, and results are persisted and published to listeners.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/store"
)

// ErrNotRunning is returned by operations that need a running session.
var ErrNotRunning = errors.New("no session running")

// ErrAlreadyRunning is returned by Start while a session is in progress.
var ErrAlreadyRunning = errors.New("session already running")

// Config holds configuration options for the application.
type Config struct {
	// Store is optional; without it nothing is persisted.
	Store    *store.Store
	Coach    coach.Config
	CameraID int
	FPS      int
	Detector detector.Config
	Logger   *slog.Logger
}

// App orchestrates one live coaching session at a time.
type App struct {
	config Config
	log    *slog.Logger

	mu        sync.RWMutex
	enabled   bool
	source    capture.Source
	sourceFor func() (capture.Source, error)
	session   *coach.Session
	sessionID string
	stopCh    chan struct{}
	doneCh    chan struct{}

	// sessMu serializes access to session between the pipeline and API callers.
	sessMu sync.Mutex

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New creates an App. Live sessions use the camera and the pose service; when the service
// is unavailable the mock detector is used instead.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	a := &App{
		config:    config,
		log:       config.Logger.With("component", "app"),
		enabled:   true,
		listeners: make(map[int]Listener),
	}
	a.sourceFor = a.liveSource
	return a
}

func (a *App) liveSource() (capture.Source, error) {
	var det detector.Detector
	if svc, err := detector.NewServiceDetector(a.config.Detector); err == nil {
		det = svc
		a.log.Info("using pose service", "model", a.config.Detector.Model)
	} else {
		a.log.Warn("pose service not available, using mock detector", "error", err)
		det = detector.NewMockDetector()
	}
	return capture.NewLiveSource(capture.NewCamera(a.config.CameraID), det, a.config.FPS)
}

// SetSource makes the next Start read from src instead of the camera.
func (a *App) SetSource(src capture.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sourceFor = func() (capture.Source, error) { return src, nil }
}

// SetEnabled pauses or resumes frame processing without ending the session.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start begins a new session and its pipeline. It returns the session ID.
func (a *App) Start(name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return "", ErrAlreadyRunning
	}

	sess, err := coach.NewSession(a.config.Coach)
	if err != nil {
		return "", err
	}
	src, err := a.sourceFor()
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}

	rec := &store.Session{Name: name, Source: store.SourceLive}
	if _, replay := src.(*capture.ReplaySource); replay {
		rec.Source = store.SourceReplay
	}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(rec); err != nil {
			src.Close()
			return "", fmt.Errorf("create session: %w", err)
		}
	} else {
		rec.ID = newID()
	}

	a.sessMu.Lock()
	a.session = sess
	a.sessMu.Unlock()

	a.source = src
	a.sessionID = rec.ID
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(src, a.stopCh, a.doneCh)

	a.log.Info("session started", "session", rec.ID, "source", rec.Source)
	return rec.ID, nil
}

// Stop ends the running session: the active trial is closed, the pipeline is stopped and
// the source released. It returns the session summary.
func (a *App) Stop() (scoring.SessionSummary, error) {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return scoring.SessionSummary{}, ErrNotRunning
	}
	close(a.stopCh)
	done, src, id := a.doneCh, a.source, a.sessionID
	a.stopCh, a.doneCh, a.source = nil, nil, nil
	a.sessMu.Lock()
	sess := a.session
	a.sessMu.Unlock()
	a.mu.Unlock()

	// The session and its ID stay visible until the pipeline's last frame is stored.
	<-done
	if err := src.Close(); err != nil {
		a.log.Warn("error closing source", "error", err)
	}

	a.mu.Lock()
	if a.sessionID == id {
		a.sessionID = ""
	}
	a.sessMu.Lock()
	if a.session == sess {
		a.session = nil
	}
	a.sessMu.Unlock()
	a.mu.Unlock()

	if sum, ok := sess.StopTrial(); ok {
		a.persistSet(id, sum)
		a.publish(Event{Type: EventSet, SessionID: id, Set: &sum})
	}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().End(id, time.Now().UTC()); err != nil {
			a.log.Warn("failed to end session", "session", id, "error", err)
		}
	}

	summary := sess.Summary()
	a.log.Info("session stopped", "session", id, "sets", summary.TotalSets)
	return summary, nil
}

// Done is closed when the pipeline of the current session exits, including when a replay
// source runs out. It returns nil when no session is running.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.doneCh
}

// SessionID returns the running session ID, or "".
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// StartTrial begins a guided trial in the running session.
func (a *App) StartTrial(activity string) error {
	id := a.SessionID()
	var st coach.TrialStatus
	err := a.withSession(func(s *coach.Session) error {
		if err := s.StartTrial(activity); err != nil {
			return err
		}
		st, _ = s.Status()
		return nil
	})
	if err != nil {
		return err
	}
	a.publish(Event{Type: EventTrial, SessionID: id, Trial: &st})
	return nil
}

// StopTrial ends the active trial, keeping a partially completed set.
// It returns coach.ErrNoTrial when no trial is active.
func (a *App) StopTrial() (*scoring.SetSummary, error) {
	id := a.SessionID()
	var out *scoring.SetSummary
	err := a.withSession(func(s *coach.Session) error {
		if _, active := s.Status(); !active {
			return coach.ErrNoTrial
		}
		if sum, ok := s.StopTrial(); ok {
			out = &sum
		}
		return nil
	})
	if out != nil {
		a.persistSet(id, *out)
		a.publish(Event{Type: EventSet, SessionID: id, Set: out})
	}
	return out, err
}

// Status reports the active trial of the running session.
func (a *App) Status() (coach.TrialStatus, bool) {
	var (
		st coach.TrialStatus
		ok bool
	)
	a.withSession(func(s *coach.Session) error {
		st, ok = s.Status()
		return nil
	})
	return st, ok
}

// Summary aggregates the completed sets of the running session.
func (a *App) Summary() (scoring.SessionSummary, error) {
	var sum scoring.SessionSummary
	err := a.withSession(func(s *coach.Session) error {
		sum = s.Summary()
		return nil
	})
	return sum, err
}

func (a *App) withSession(fn func(*coach.Session) error) error {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()
	if a.session == nil {
		return ErrNotRunning
	}
	return fn(a.session)
}
