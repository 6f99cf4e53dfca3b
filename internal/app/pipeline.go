package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/store"
)

// runPipeline pulls one pose per tick from src and feeds it to the session until stop is
// closed or the source is exhausted.
func (a *App) runPipeline(src capture.Source, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			pose, err := src.Next(ctx)
			switch {
			case errors.Is(err, io.EOF):
				a.log.Info("source exhausted")
				return
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				a.log.Warn("error reading pose", "error", err)
				continue
			}

			a.Process(pose)
		}
	}
}

// Process ingests one pose into the running session, persists what it produced and
// publishes the resulting events. It is a no-op without a running session.
func (a *App) Process(pose detector.Pose) {
	var res coach.FrameResult
	err := a.withSession(func(s *coach.Session) error {
		res = s.Ingest(pose)
		return nil
	})
	if err != nil {
		return
	}

	id := a.SessionID()
	a.publish(Event{
		Type:      EventFrame,
		SessionID: id,
		T:         res.T,
		Angles:    res.Angles,
		Gait:      &res.Gait,
		Trial:     res.Trial,
	})
	if res.Rep != nil {
		a.persistRep(id, res.Trial, res.Rep)
		a.publish(Event{Type: EventRep, SessionID: id, T: res.T, Trial: res.Trial, Rep: res.Rep})
	}
	if res.SetDone != nil {
		a.persistSet(id, *res.SetDone)
		a.publish(Event{Type: EventSet, SessionID: id, T: res.T, Set: res.SetDone})
	}
}

func (a *App) persistRep(sessionID string, st *coach.TrialStatus, rep *coach.RepResult) {
	if a.config.Store == nil || st == nil {
		return
	}
	if err := a.config.Store.Reps().Create(store.NewRep(sessionID, st.Activity, *rep)); err != nil {
		a.log.Warn("failed to store rep", "session", sessionID, "error", err)
	}
}

func (a *App) persistSet(sessionID string, sum scoring.SetSummary) {
	if a.config.Store == nil {
		return
	}
	if _, err := a.config.Store.Sets().Create(sessionID, sum); err != nil {
		a.log.Warn("failed to store set", "session", sessionID, "error", err)
	}
}

func newID() string {
	return uuid.NewString()
}
