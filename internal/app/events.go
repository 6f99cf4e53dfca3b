package app

import (
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/gait"
	"github.com/ayusman/posecoach/internal/scoring"
)

// EventType names a published event.
type EventType string

const (
	EventFrame EventType = "frame"
	EventTrial EventType = "trial"
	EventRep   EventType = "rep"
	EventSet   EventType = "set"
)

// Event is published to listeners as the session progresses.
type Event struct {
	Type      EventType           `json:"type"`
	SessionID string              `json:"session_id,omitempty"`
	T         float64             `json:"t"`
	Angles    map[string]float64  `json:"angles,omitempty"`
	Gait      *gait.Metrics       `json:"gait,omitempty"`
	Trial     *coach.TrialStatus  `json:"trial,omitempty"`
	Rep       *coach.RepResult    `json:"rep,omitempty"`
	Set       *scoring.SetSummary `json:"set,omitempty"`
}

// Listener receives events on the pipeline goroutine and must not block.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (a *App) Subscribe(l Listener) (unsubscribe func()) {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = l
	return func() {
		a.lmu.Lock()
		defer a.lmu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *App) publish(ev Event) {
	a.lmu.RLock()
	defer a.lmu.RUnlock()
	for _, l := range a.listeners {
		l(ev)
	}
}
