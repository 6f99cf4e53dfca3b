// Package gait estimates cadence and step timing from ankle vertical trajectories.
package gait

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/posecoach/internal/series"
)

// Config tunes the tracker.
type Config struct {
	// MaxHistory bounds the number of samples kept per signal.
	MaxHistory int
	// MinEventSeparation is the refractory period between two steps on one side, in seconds.
	MinEventSeparation float64
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{MaxHistory: 300, MinEventSeparation: 0.25}
}

// Metrics is a snapshot of the gait estimates. Step times and symmetry are nil until measurable.
type Metrics struct {
	CadenceSPM    float64  `json:"cadence_spm"`
	StepTimeL     *float64 `json:"step_time_L"`
	StepTimeR     *float64 `json:"step_time_R"`
	SymmetryIndex *float64 `json:"symmetry_index"`
}

type sample struct {
	t float64
	y series.Value
}

// side holds one ankle's bounded history and detected step times.
type side struct {
	hist   []sample
	events []float64
}

func (s *side) push(t float64, y series.Value, limit int) {
	s.hist = append(s.hist, sample{t, y})
	if len(s.hist) > limit {
		s.hist = s.hist[len(s.hist)-limit:]
	}
}

// detect records a step when the middle of the last three samples is a strict local minimum.
func (s *side) detect(minSep float64) {
	n := len(s.hist)
	if n < 3 {
		return
	}
	a, aok := s.hist[n-3].y.Get()
	b, bok := s.hist[n-2].y.Get()
	c, cok := s.hist[n-1].y.Get()
	if !aok || !bok || !cok || !(b < a && b < c) {
		return
	}
	tMid := s.hist[n-2].t
	if len(s.events) > 0 && tMid-s.events[len(s.events)-1] < minSep {
		return
	}
	s.events = append(s.events, tMid)
	if len(s.events) > 2 {
		s.events = s.events[len(s.events)-2:]
	}
}

func (s *side) stepTime() (float64, bool) {
	if len(s.events) < 2 {
		return 0, false
	}
	return s.events[len(s.events)-1] - s.events[len(s.events)-2], true
}

// Tracker detects steps as local minima of ankle y (image y grows downward, so a
// minimum is the foot at its highest). It is owned by a single session.
type Tracker struct {
	cfg     Config
	left    side
	right   side
	metrics Metrics
}

// NewTracker creates a Tracker. Zero config fields take their defaults.
func NewTracker(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.MinEventSeparation <= 0 {
		cfg.MinEventSeparation = def.MinEventSeparation
	}
	return &Tracker{cfg: cfg}
}

// Update adds one frame of ankle heights and recomputes the metrics.
func (g *Tracker) Update(t float64, ankleL, ankleR series.Value) {
	g.left.push(t, ankleL, g.cfg.MaxHistory)
	g.right.push(t, ankleR, g.cfg.MaxHistory)

	g.left.detect(g.cfg.MinEventSeparation)
	g.right.detect(g.cfg.MinEventSeparation)
	g.recompute()
}

func (g *Tracker) recompute() {
	var m Metrics
	var steps []float64
	if st, ok := g.left.stepTime(); ok {
		m.StepTimeL = &st
		if st > 0 {
			steps = append(steps, st)
		}
	}
	if st, ok := g.right.stepTime(); ok {
		m.StepTimeR = &st
		if st > 0 {
			steps = append(steps, st)
		}
	}
	if len(steps) > 0 {
		m.CadenceSPM = 60 / stat.Mean(steps, nil)
	}
	if m.StepTimeL != nil && m.StepTimeR != nil && *m.StepTimeL > 0 && *m.StepTimeR > 0 {
		l, r := *m.StepTimeL, *m.StepTimeR
		si := 100 * math.Abs(l-r) / (0.5*(l+r) + 1e-6)
		m.SymmetryIndex = &si
	}
	g.metrics = m
}

// Metrics returns the latest estimates.
func (g *Tracker) Metrics() Metrics {
	return g.metrics
}
