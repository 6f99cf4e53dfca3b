package reference

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/series"
)

// minUserSamples is the fewest measured samples a repetition needs to be matched.
const minUserSamples = 4

// scalarOrder lists, per activity, the template curves to compare against in preference order.
var scalarOrder = map[string][]string{
	activity.Squat:          {"knee_ANY_flex", "knee_L_flex", "knee_R_flex"},
	activity.ArmAbduction:   {"shoulder_ANY_abd", "shoulder_L_abd", "shoulder_R_abd"},
	activity.ForwardFlexion: {"shoulder_ANY_flex", "shoulder_L_flex", "shoulder_R_flex"},
	activity.CalfRaise:      {"ankle_ANY_pf", "ankle_L_pf", "ankle_R_pf"},
	activity.JumpingJack:    {"shoulder_ANY_abd", "shoulder_L_abd", "shoulder_R_abd"},
}

// Result is the outcome of matching one repetition against the reference.
type Result struct {
	MeanAbsErr float64      `json:"mean_abs_err"`
	PhaseCorr  float64      `json:"phase_corr"`
	Band       scoring.Band `json:"band"`
}

// MarshalJSON writes an undefined error as null.
func (r Result) MarshalJSON() ([]byte, error) {
	var mae *float64
	if !math.IsNaN(r.MeanAbsErr) && !math.IsInf(r.MeanAbsErr, 0) {
		mae = &r.MeanAbsErr
	}
	return json.Marshal(struct {
		MeanAbsErr *float64     `json:"mean_abs_err"`
		PhaseCorr  float64      `json:"phase_corr"`
		Band       scoring.Band `json:"band"`
	}{mae, r.PhaseCorr, r.Band})
}

func unmatched() Result {
	return Result{MeanAbsErr: math.NaN(), PhaseCorr: 0, Band: scoring.Red}
}

// Matcher compares user repetitions with each activity's reference template.
type Matcher struct {
	loader *Loader
	names  map[string]string
}

// NewMatcher creates a Matcher. Template names come from the registry's reference field,
// falling back to the activity key.
func NewMatcher(loader *Loader, reg *activity.Registry) *Matcher {
	m := &Matcher{loader: loader, names: make(map[string]string)}
	if reg != nil {
		for _, d := range reg.All() {
			if d.Reference != "" {
				m.names[d.Key] = d.Reference
			}
		}
	}
	return m
}

// Template loads the reference for an activity key.
func (m *Matcher) Template(key string) (Template, error) {
	name, ok := m.names[key]
	if !ok {
		name = key
	}
	return m.loader.Load(name)
}

// Match phase-aligns the user samples in [t0, t1] with the reference curve.
// Too little data or a missing reference yields the unmatched result, never an error.
func (m *Matcher) Match(key string, samples series.Series, t0, t1 float64) Result {
	tpl, _ := m.Template(key)
	return MatchTemplate(tpl, key, samples, t0, t1)
}

// MatchTemplate is Match against an already loaded template.
func MatchTemplate(tpl Template, key string, samples series.Series, t0, t1 float64) Result {
	ref := Scalar(tpl, key)
	user := samples.Window(t0, t1).Measured()
	if len(ref) == 0 || len(user) < minUserSamples {
		return unmatched()
	}

	span := math.Max(1e-6, t1-t0)
	phase := user.Times()
	for i, t := range phase {
		phase[i] = (t - t0) / span
	}

	grid := tpl.Phase
	if !validPhase(grid, len(ref)) {
		grid = series.Linspace(0, 1, len(ref))
	}
	aligned, err := series.Resample(phase, user.Values(), grid)
	if err != nil {
		return unmatched()
	}

	var mae float64
	for i := range ref {
		mae += math.Abs(aligned[i] - ref[i])
	}
	mae /= float64(len(ref))

	zu, zr := zscore(aligned), zscore(ref)
	var dev float64
	for i := range zr {
		dev += math.Abs(zu[i] - zr[i])
	}
	corr := 1 - dev/float64(len(zr))

	return Result{
		MeanAbsErr: mae,
		PhaseCorr:  math.Max(0, math.Min(1, corr)),
		Band:       scoring.BandFor(mae),
	}
}

// Scalar picks the reference curve for an activity, falling back to the mean of all curves
// truncated to the shortest one. It returns nil when the template has no curves.
func Scalar(tpl Template, key string) []float64 {
	for _, name := range scalarOrder[key] {
		if s, ok := tpl.Series[name]; ok && len(s) > 0 {
			return s
		}
	}
	if len(tpl.Series) == 0 {
		return nil
	}

	names := make([]string, 0, len(tpl.Series))
	n := math.MaxInt
	for name, s := range tpl.Series {
		names = append(names, name)
		n = min(n, len(s))
	}
	sort.Strings(names)
	if n == 0 {
		return nil
	}
	mean := make([]float64, n)
	for _, name := range names {
		for i := 0; i < n; i++ {
			mean[i] += tpl.Series[name][i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(names))
	}
	return mean
}

// validPhase reports whether phase can serve as the grid for a curve of length n.
func validPhase(phase []float64, n int) bool {
	if len(phase) != n || n == 0 {
		return false
	}
	for i, p := range phase {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return false
		}
		if i > 0 && p < phase[i-1] {
			return false
		}
	}
	return true
}

func zscore(xs []float64) []float64 {
	mean, std := stat.PopMeanStdDev(xs, nil)
	std += 1e-6
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}
