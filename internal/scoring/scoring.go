// Package scoring maps measured angles to scores and bands and aggregates them
// into set and session results.
package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/posecoach/internal/series"
)

// Band is a qualitative quality tier.
type Band string

const (
	Green Band = "Green"
	Amber Band = "Amber"
	Red   Band = "Red"
)

// BandFor bands a deviation in degrees using the 5°/10° cutoffs.
func BandFor(deviation float64) Band {
	switch {
	case math.IsNaN(deviation):
		return Red
	case deviation <= 5:
		return Green
	case deviation <= 10:
		return Amber
	}
	return Red
}

// JointScore is the score and band of one joint for one repetition.
// Measured is false when the joint had no angle in the window.
type JointScore struct {
	Score    float64 `json:"score"`
	Band     Band    `json:"band"`
	Measured bool    `json:"measured"`
}

// ScoreBand compares a measured peak angle with its target.
func ScoreBand(measured series.Value, target float64) JointScore {
	v, ok := measured.Get()
	if !ok {
		return JointScore{Score: 0, Band: Red}
	}
	switch BandFor(math.Abs(v - target)) {
	case Green:
		return JointScore{Score: 1, Band: Green, Measured: true}
	case Amber:
		return JointScore{Score: 0.5, Band: Amber, Measured: true}
	}
	return JointScore{Score: 0, Band: Red, Measured: true}
}

const (
	stabilityMinSamples = 5
	stabilityTopShare   = 0.2
	stabilitySpread     = 15.0
)

// FormStability rewards consistently high peak angles across a set.
// It needs at least five available samples and returns 0 otherwise.
func FormStability(values []series.Value) float64 {
	var finite []float64
	for _, v := range values {
		if f, ok := v.Get(); ok {
			finite = append(finite, f)
		}
	}
	if len(finite) < stabilityMinSamples {
		return 0
	}

	sort.Float64s(finite)
	k := max(1, int(stabilityTopShare*float64(len(finite))))
	_, std := stat.PopMeanStdDev(finite[len(finite)-k:], nil)
	return clamp01(1 - std/stabilitySpread)
}

// SymmetryIndex is the percent difference between left and right. Lower is better.
// Missing sides or a zero sum yield 0.
func SymmetryIndex(l, r series.Value) float64 {
	lv, lok := l.Get()
	rv, rok := r.Get()
	if !lok || !rok || lv+rv == 0 {
		return 0
	}
	return 100 * math.Abs(lv-rv) / (0.5*(lv+rv) + 1e-6)
}

// FinalScore blends rep scores and stability into a 0-100 value rounded to one decimal.
// Sets with a symmetry index above 15 are penalised by 10%.
func FinalScore(repScores []float64, stability, symmetry float64) float64 {
	var mean float64
	if len(repScores) > 0 {
		mean = stat.Mean(repScores, nil)
	}
	score := 0.7*mean + 0.3*stability
	if symmetry > 15 {
		score *= 0.9
	}
	return math.Round(1000*score) / 10
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
