// Package repcycle detects repetition cycles in a single joint-angle signal.
package repcycle

import (
	"math"

	"github.com/ayusman/posecoach/internal/series"
)

// State is the detector's position within a cycle.
type State int

const (
	Init State = iota
	AtBaseline
	GoingUp
	Above
	GoingDown
)

var stateNames = [...]string{"INIT", "AT_BASELINE", "GOING_UP", "ABOVE", "GOING_DOWN"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Params configures cycle detection. Angles are in degrees, durations in seconds.
type Params struct {
	BaselineBand float64 `yaml:"baseline_band" json:"baseline_band"`
	UpThresh     float64 `yaml:"up_thresh" json:"up_thresh"`
	MinDuration  float64 `yaml:"min_duration" json:"min_duration"`
	MaxDuration  float64 `yaml:"max_duration" json:"max_duration"`
	PeakHold     float64 `yaml:"peak_hold" json:"peak_hold"`
}

// DefaultParams returns the general-purpose detection parameters.
func DefaultParams() Params {
	return Params{
		BaselineBand: 6,
		UpThresh:     25,
		MinDuration:  0.40,
		MaxDuration:  6.00,
		PeakHold:     0.08,
	}
}

// Event marks one completed repetition.
type Event struct {
	T0 float64 `json:"t0"`
	T1 float64 `json:"t1"`
}

// Duration returns the length of the repetition in seconds.
func (e Event) Duration() float64 {
	return e.T1 - e.T0
}

const baselineAlpha = 0.02

// Detector is a rise-from-baseline state machine. It is not safe for concurrent use;
// each trial owns its own Detector.
type Detector struct {
	p     Params
	state State

	baseline    float64
	hasBaseline bool

	cycleStart float64
	inCycle    bool
	aboveStart float64
	holding    bool

	// set by the timeout; a new cycle may only start once the signal and baseline meet again
	rearm bool
}

// New creates a Detector in the INIT state.
func New(p Params) *Detector {
	return &Detector{p: p}
}

// Reset returns the detector to INIT and forgets the baseline.
func (d *Detector) Reset() {
	*d = Detector{p: d.p}
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Baseline returns the adapted baseline, if one has been seeded.
func (d *Detector) Baseline() series.Value {
	return series.FromOK(d.baseline, d.hasBaseline)
}

func (d *Detector) nearBaseline(v float64) bool {
	return d.hasBaseline && math.Abs(v-d.baseline) <= d.p.BaselineBand
}

func (d *Detector) clearCycle() {
	d.inCycle = false
	d.holding = false
}

// Update feeds one sample. It returns an event when a valid cycle completes at t.
// Unavailable samples are skipped without disturbing the cycle timing.
func (d *Detector) Update(t float64, v series.Value) (Event, bool) {
	a, ok := v.Get()
	if !ok {
		return Event{}, false
	}
	if !d.hasBaseline {
		d.baseline, d.hasBaseline = a, true
	}

	switch d.state {
	case Init:
		if d.nearBaseline(a) {
			d.adapt(a)
			d.state = AtBaseline
		}

	case AtBaseline:
		// The baseline follows every resting sample so a posture shift is absorbed.
		d.adapt(a)
		if d.nearBaseline(a) {
			d.rearm = false
		}
		if a-d.baseline >= d.p.UpThresh && !d.rearm {
			d.state = GoingUp
			d.cycleStart, d.inCycle = t, true
			d.aboveStart, d.holding = t, true
		}

	case GoingUp:
		switch {
		case a-d.baseline >= d.p.UpThresh:
			if !d.holding {
				d.aboveStart, d.holding = t, true
			}
			if t-d.aboveStart >= d.p.PeakHold {
				d.state = Above
			}
		case d.nearBaseline(a):
			d.state = AtBaseline
			d.clearCycle()
		default:
			d.holding = false
		}

	case Above:
		if a-d.baseline < d.p.UpThresh/2 {
			d.state = GoingDown
		}
	}

	// A sample that ends the descent may also land back in the band.
	var (
		ev      Event
		emitted bool
	)
	if d.state == GoingDown && d.nearBaseline(a) {
		d.state = AtBaseline
		if d.inCycle {
			dur := t - d.cycleStart
			if dur >= d.p.MinDuration && dur <= d.p.MaxDuration {
				ev, emitted = Event{T0: d.cycleStart, T1: t}, true
			}
		}
		d.clearCycle()
	}

	if d.inCycle && t-d.cycleStart > d.p.MaxDuration {
		d.state = AtBaseline
		d.clearCycle()
		d.rearm = true
	}

	return ev, emitted
}

func (d *Detector) adapt(v float64) {
	d.baseline = (1-baselineAlpha)*d.baseline + baselineAlpha*v
}
