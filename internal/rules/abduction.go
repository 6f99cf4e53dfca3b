package rules

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/series"
)

// ArmAbduction requires a wide arm raise. When the wrists can be tracked it also
// expects them to cross the body midline during the repetition.
type ArmAbduction struct {
	Th Thresholds
}

// Assess implements Assessor.
func (a ArmAbduction) Assess(w Window) Assessment {
	bands := map[string]scoring.JointScore{
		"shoulder_L_abd": w.peak("shoulder_L_abd", 175),
		"shoulder_R_abd": w.peak("shoulder_R_abd", 175),
	}
	best := math.Max(bands["shoulder_L_abd"].Score, bands["shoulder_R_abd"].Score)

	var dx []float64
	for _, snap := range w.InWindow() {
		lw, lok := snap.Keypoints.PointMin(detector.LeftWrist, a.Th.WristConfidence)
		rw, rok := snap.Keypoints.PointMin(detector.RightWrist, a.Th.WristConfidence)
		if lok && rok {
			dx = append(dx, lw.X-rw.X)
		}
	}
	judged := len(dx) >= 3
	crossed := judged && signChanges(dx)

	var h hints
	h.add(best < 0.5, "raise arms wider")
	h.add(judged && !crossed, "wrists didn't cross midline")
	return Assessment{
		Counted: best >= 0.5 && (crossed || !judged),
		Bands:   bands,
		Message: h.String(),
	}
}

// signChanges reports whether consecutive values change sign or touch zero.
func signChanges(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		a, b := sign(xs[i-1]), sign(xs[i])
		if a == 0 || b == 0 || a != b {
			return true
		}
	}
	return false
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

const rhythmGrid = 20

// JumpingJack requires arm and leg abduction moving in rhythm.
type JumpingJack struct {
	Th Thresholds
}

// Assess implements Assessor.
func (j JumpingJack) Assess(w Window) Assessment {
	bands := map[string]scoring.JointScore{
		"shoulder_L_abd": w.peak("shoulder_L_abd", 175),
		"shoulder_R_abd": w.peak("shoulder_R_abd", 175),
		"hip_L_abd":      w.peak("hip_L_abd", 30),
		"hip_R_abd":      w.peak("hip_R_abd", 30),
	}
	bestArm := math.Max(bands["shoulder_L_abd"].Score, bands["shoulder_R_abd"].Score)
	bestLeg := math.Max(bands["hip_L_abd"].Score, bands["hip_R_abd"].Score)

	rhythmOK := j.rhythm(w)

	var h hints
	h.add(bestArm < 0.5, "raise arms higher")
	h.add(bestLeg < 0.5, "spread legs wider")
	h.add(!rhythmOK, "sync arms/legs rhythm")
	return Assessment{
		Counted: bestArm >= 0.5 && bestLeg >= 0.5 && rhythmOK,
		Bands:   bands,
		Message: h.String(),
	}
}

// rhythm correlates the frame-to-frame change of the mean arm and leg trajectories.
// It passes when there is too little data or motion to judge.
func (j JumpingJack) rhythm(w Window) bool {
	ta, va := meanTrajectory(w, "shoulder_L_abd", "shoulder_R_abd")
	tl, vl := meanTrajectory(w, "hip_L_abd", "hip_R_abd")
	if len(ta) < 4 || len(tl) < 4 {
		return true
	}

	lo := math.Max(ta[0], tl[0])
	hi := math.Min(ta[len(ta)-1], tl[len(tl)-1])
	grid := series.Linspace(lo, hi, rhythmGrid)
	arms, err := series.Resample(ta, va, grid)
	if err != nil {
		return true
	}
	legs, err := series.Resample(tl, vl, grid)
	if err != nil {
		return true
	}

	da, dl := diff(arms), diff(legs)
	_, sa := stat.PopMeanStdDev(da, nil)
	_, sl := stat.PopMeanStdDev(dl, nil)
	if sa <= 1e-3 || sl <= 1e-3 {
		return true
	}
	return stat.Correlation(da, dl, nil) >= j.Th.Rhythm
}

// meanTrajectory averages the in-window samples of keys that share a timestamp.
func meanTrajectory(w Window, keys ...string) (ts, vs []float64) {
	sums := make(map[float64]float64)
	counts := make(map[float64]int)
	for _, k := range keys {
		for _, smp := range w.Series[k].Window(w.T0, w.T1) {
			if v, ok := smp.V.Get(); ok {
				sums[smp.T] += v
				counts[smp.T]++
			}
		}
	}
	for t := range sums {
		ts = append(ts, t)
	}
	sort.Float64s(ts)
	vs = make([]float64, len(ts))
	for i, t := range ts {
		vs[i] = sums[t] / float64(counts[t])
	}
	return ts, vs
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := range out {
		out[i] = xs[i+1] - xs[i]
	}
	return out
}
