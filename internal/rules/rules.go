// Package rules decides whether a detected repetition counts and grades its form.
//
// Each activity has an Assessor chosen once at trial start. Assessors read the shared
// joint-angle history and keypoint snapshots for the repetition window and never modify them.
package rules

import (
	"strings"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/series"
)

// Snapshot is the keypoint map of one frame.
type Snapshot struct {
	T         float64
	Keypoints detector.KeypointMap
}

// Window is the input to an assessment: one repetition [T0, T1] plus its context.
type Window struct {
	T0, T1    float64
	Series    series.History
	Snapshots []Snapshot
	Targets   map[string]float64
}

// InWindow returns the snapshots taken within [T0, T1].
func (w Window) InWindow() []Snapshot {
	var out []Snapshot
	for _, s := range w.Snapshots {
		if s.T >= w.T0 && s.T <= w.T1 {
			out = append(out, s)
		}
	}
	return out
}

// peak scores the window peak of key against its target, or def when no target is set.
func (w Window) peak(key string, def float64) scoring.JointScore {
	target, ok := w.Targets[key]
	if !ok {
		target = def
	}
	return scoring.ScoreBand(w.Series[key].Peak(w.T0, w.T1), target)
}

// Assessment is the verdict for one repetition.
type Assessment struct {
	Counted bool                          `json:"counted"`
	Bands   map[string]scoring.JointScore `json:"bands"`
	Message string                        `json:"message"`
}

// Score is the mean score of the measured bands. Joints with no angle in the window
// are left out; an assessment with no measured band scores 1 when counted and 0 otherwise.
func (a Assessment) Score() float64 {
	var sum float64
	var n int
	for _, b := range a.Bands {
		if b.Measured {
			sum += b.Score
			n++
		}
	}
	if n == 0 {
		if a.Counted {
			return 1
		}
		return 0
	}
	return sum / float64(n)
}

// Assessor grades repetitions of one activity.
type Assessor interface {
	Assess(w Window) Assessment
}

// Thresholds holds the empirical geometric cut-offs used by the assessors.
// Distances are in normalized image units or multiples of hip width.
type Thresholds struct {
	// HipDrop is the minimum vertical range of the hip center during a squat.
	HipDrop float64 `yaml:"hip_drop" json:"hip_drop"`
	// WristConfidence is the confidence both wrists need to join the midline-crossing check.
	WristConfidence float64 `yaml:"wrist_confidence" json:"wrist_confidence"`
	// Reach is the maximum wrist-to-foot distance, in hip widths, for a forward flexion.
	Reach float64 `yaml:"reach" json:"reach"`
	// Rise is the minimum ankle excursion, in hip widths, for a calf raise.
	Rise float64 `yaml:"rise" json:"rise"`
	// Rhythm is the minimum arm/leg velocity correlation for a jumping jack.
	Rhythm float64 `yaml:"rhythm" json:"rhythm"`
}

// DefaultThresholds returns the default cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HipDrop:         0.03,
		WristConfidence: 0.4,
		Reach:           0.60,
		Rise:            0.05,
		Rhythm:          0.2,
	}
}

// For returns the assessor for an activity key. Unknown keys get Fallback.
func For(key string, th Thresholds) Assessor {
	switch key {
	case activity.Squat:
		return Squat{th}
	case activity.ArmAbduction:
		return ArmAbduction{th}
	case activity.ForwardFlexion:
		return ForwardFlexion{th}
	case activity.CalfRaise:
		return CalfRaise{th}
	case activity.JumpingJack:
		return JumpingJack{th}
	}
	return Fallback{}
}

// Fallback counts every repetition without grading it.
type Fallback struct{}

// Assess implements Assessor.
func (Fallback) Assess(Window) Assessment {
	return Assessment{Counted: true, Bands: map[string]scoring.JointScore{}, Message: "ok"}
}

// hints collects feedback for unmet criteria.
type hints []string

func (h *hints) add(cond bool, msg string) {
	if cond {
		*h = append(*h, msg)
	}
}

func (h hints) String() string {
	if len(h) == 0 {
		return "ok"
	}
	return strings.Join(h, "; ")
}

// downgrade adjusts a band for a geometric cue: unmeasurable turns it Red,
// weak turns a Green into Amber.
func downgrade(js scoring.JointScore, measurable, ok bool) scoring.JointScore {
	switch {
	case !measurable:
		js.Band = scoring.Red
	case !ok && js.Band == scoring.Green:
		js.Score, js.Band = 0.5, scoring.Amber
	}
	return js
}
