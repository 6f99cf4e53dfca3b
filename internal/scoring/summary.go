package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SetSummary is the result of one completed set.
type SetSummary struct {
	Activity      string    `json:"activity"`
	SetIndex      int       `json:"set_idx"`
	RepsTarget    int       `json:"reps_target"`
	RepsCounted   int       `json:"reps_counted"`
	RepScores     []float64 `json:"rep_scores"`
	FormStability float64   `json:"form_stability"`
	SymmetryIndex float64   `json:"symmetry_index"`
	FinalPercent  float64   `json:"final_percent"`
}

// NewSetSummary computes the final percent for a set from its parts.
func NewSetSummary(activity string, setIdx, target int, repScores []float64, stability, symmetry float64) SetSummary {
	return SetSummary{
		Activity:      activity,
		SetIndex:      setIdx,
		RepsTarget:    target,
		RepsCounted:   len(repScores),
		RepScores:     repScores,
		FormStability: stability,
		SymmetryIndex: symmetry,
		FinalPercent:  FinalScore(repScores, stability, symmetry),
	}
}

// ActivitySummary aggregates the sets of one activity.
type ActivitySummary struct {
	Sets             int      `json:"sets"`
	MeanFinalPercent *float64 `json:"mean_final_percent"`
}

// SessionSummary aggregates every set of a session.
type SessionSummary struct {
	TotalSets               int                        `json:"total_sets"`
	OverallMeanFinalPercent *float64                   `json:"overall_mean_final_percent"`
	Activities              map[string]ActivitySummary `json:"activities"`
}

// SummarizeSession groups sets by activity. Means over no finite values are nil.
func SummarizeSession(sets []SetSummary) SessionSummary {
	sum := SessionSummary{
		TotalSets:  len(sets),
		Activities: make(map[string]ActivitySummary),
	}

	byActivity := make(map[string][]float64)
	var all []float64
	for _, s := range sets {
		byActivity[s.Activity] = append(byActivity[s.Activity], s.FinalPercent)
		all = append(all, s.FinalPercent)
	}
	sum.OverallMeanFinalPercent = nanMean(all)

	for k, finals := range byActivity {
		sum.Activities[k] = ActivitySummary{
			Sets:             len(finals),
			MeanFinalPercent: nanMean(finals),
		}
	}
	return sum
}

func nanMean(xs []float64) *float64 {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return nil
	}
	m := stat.Mean(finite, nil)
	return &m
}
