package rules

import (
	"math"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
)

var squatJoints = []string{"knee_L_flex", "knee_R_flex", "hip_L_flex", "hip_R_flex", "ankle_L_pf", "ankle_R_pf"}

// Squat requires a deep enough knee bend and a visible drop of the hips.
type Squat struct {
	Th Thresholds
}

// Assess implements Assessor.
func (s Squat) Assess(w Window) Assessment {
	bands := make(map[string]scoring.JointScore, len(squatJoints))
	for _, k := range squatJoints {
		bands[k] = w.peak(k, 90)
	}

	var ys []float64
	for _, snap := range w.InWindow() {
		lh, lok := snap.Keypoints.Point(detector.LeftHip)
		rh, rok := snap.Keypoints.Point(detector.RightHip)
		if lok && rok {
			ys = append(ys, (lh.Y+rh.Y)/2)
		}
	}
	dropped := len(ys) >= 3 && spread(ys) >= s.Th.HipDrop

	bestKnee := math.Max(bands["knee_L_flex"].Score, bands["knee_R_flex"].Score)

	var h hints
	h.add(bestKnee < 0.5, "bend knees deeper")
	h.add(!dropped, "lower hips more")
	return Assessment{
		Counted: bestKnee >= 0.5 && dropped,
		Bands:   bands,
		Message: h.String(),
	}
}

// spread returns max - min of xs, which must be non-empty.
func spread(xs []float64) float64 {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return hi - lo
}
