package rules

import (
	"sort"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/geometry"
	"github.com/ayusman/posecoach/internal/scoring"
)

// ForwardFlexion grades a one-sided reach toward the feet.
type ForwardFlexion struct {
	Th Thresholds
}

// Assess implements Assessor.
func (f ForwardFlexion) Assess(w Window) Assessment {
	side := activity.DetectSide(w.Series.Populated())
	sj := geometry.ShoulderFlex.Key(side)
	hj := geometry.HipFlex.Key(side)

	sh := w.peak(sj, 90)
	hip := w.peak(hj, 30)

	reach, measurable := minWristToFoot(w.InWindow(), side)
	reachOK := measurable && reach <= f.Th.Reach

	var h hints
	h.add(sh.Score < 0.5, "flex shoulder more")
	h.add(!reachOK, "reach closer to feet")
	return Assessment{
		Counted: sh.Score >= 0.5 && reachOK,
		Bands: map[string]scoring.JointScore{
			sj: downgrade(sh, measurable, reachOK),
			hj: hip,
		},
		Message: h.String(),
	}
}

// minWristToFoot is the smallest wrist-to-foot distance in hip widths over the snapshots.
// The foot is the toe, else the ankle, else the heel.
func minWristToFoot(snaps []Snapshot, side geometry.Side) (float64, bool) {
	p := side.Prefix()
	var (
		best  float64
		found bool
	)
	for _, snap := range snaps {
		kp := snap.Keypoints
		wrist, ok := kp.Point(p + "_wrist")
		if !ok {
			continue
		}
		foot, ok := kp.Point(p + "_toe")
		if !ok {
			foot, ok = kp.Point(p + "_ankle")
		}
		if !ok {
			foot, ok = kp.Point(p + "_heel")
		}
		if !ok {
			continue
		}
		hw, ok := geometry.HipWidth(kp)
		if !ok || hw <= 1e-6 {
			continue
		}
		d := geometry.Distance(wrist, foot) / hw
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}

// CalfRaise grades a one-sided heel raise.
type CalfRaise struct {
	Th Thresholds
}

// Assess implements Assessor.
func (c CalfRaise) Assess(w Window) Assessment {
	side := activity.DetectSide(w.Series.Populated())
	aj := geometry.AnklePF.Key(side)
	ank := w.peak(aj, 25)

	rise, measurable := ankleRise(w.InWindow(), side)
	riseOK := measurable && rise >= c.Th.Rise

	var h hints
	h.add(ank.Score < 0.5, "plantarflex more")
	h.add(!riseOK, "rise onto toes more")
	return Assessment{
		Counted: ank.Score >= 0.5 && riseOK,
		Bands:   map[string]scoring.JointScore{aj: downgrade(ank, measurable, riseOK)},
		Message: h.String(),
	}
}

// ankleRise is the vertical range of the ankle divided by the median hip width.
// It needs at least two usable snapshots.
func ankleRise(snaps []Snapshot, side geometry.Side) (float64, bool) {
	name := side.Prefix() + "_ankle"
	var ys, widths []float64
	for _, snap := range snaps {
		a, ok := snap.Keypoints.Point(name)
		if !ok {
			continue
		}
		hw, ok := geometry.HipWidth(snap.Keypoints)
		if !ok || hw <= 1e-6 {
			continue
		}
		ys = append(ys, a.Y)
		widths = append(widths, hw)
	}
	if len(ys) < 2 {
		return 0, false
	}
	return spread(ys) / median(widths), true
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
