package reference

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/series"
)

func kneeCurve(p float64) float64 {
	return 10 + 45*(1-math.Cos(2*math.Pi*p))
}

// writeTemplate writes name.json and name.csv with n samples of curve under joint.
func writeTemplate(t *testing.T, dir, name, joint string, n int, curve func(float64) float64, withPhase bool) {
	t.Helper()
	phase := series.Linspace(0, 1, n)
	var b strings.Builder
	b.WriteString("frame,phase,joint,value\n")
	for i, p := range phase {
		fmt.Fprintf(&b, "%d,%.6f,%s,%.9f\n", i, p, joint, curve(p))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(b.String()), 0644))
	if withPhase {
		data, err := json.Marshal(map[string]any{"phase": phase})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0644))
	}
}

// userSamples samples curve at n evenly spaced phases of [t0, t1].
func userSamples(t0, t1 float64, n int, curve func(float64) float64) series.Series {
	var s series.Series
	for _, p := range series.Linspace(0, 1, n) {
		s = append(s, series.Sample{T: t0 + p*(t1-t0), V: series.Measured(curve(p))})
	}
	return s
}

func newMatcher(t *testing.T, dirs ...string) *Matcher {
	reg, err := activity.Load()
	require.NoError(t, err)
	return NewMatcher(NewLoader(dirs...), reg)
}

func TestMatch_IdenticalCurve(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "squat_rule", "knee_ANY_flex", 50, kneeCurve, true)
	m := newMatcher(t, dir)

	res := m.Match(activity.Squat, userSamples(2, 3.2, 50, kneeCurve), 2, 3.2)
	assert.InDelta(t, 0, res.MeanAbsErr, 1e-6)
	assert.InDelta(t, 1, res.PhaseCorr, 1e-6)
	assert.Equal(t, scoring.Green, res.Band)
}

func TestMatch_LinspaceGridWithoutPhase(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "squat_rule", "knee_L_flex", 40, kneeCurve, false)
	m := newMatcher(t, dir)

	// Denser user sampling is interpolated onto the reference grid.
	res := m.Match(activity.Squat, userSamples(0, 1, 400, kneeCurve), 0, 1)
	assert.Less(t, res.MeanAbsErr, 0.5)
	assert.Equal(t, scoring.Green, res.Band)
}

func TestMatch_OffsetCurve(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "arm_abduction", "shoulder_ANY_abd", 30, kneeCurve, true)
	m := newMatcher(t, dir)

	shifted := func(p float64) float64 { return kneeCurve(p) + 7 }
	res := m.Match(activity.ArmAbduction, userSamples(0, 1, 30, shifted), 0, 1)
	assert.InDelta(t, 7, res.MeanAbsErr, 1e-6)
	assert.Equal(t, scoring.Amber, res.Band)
	assert.InDelta(t, 1, res.PhaseCorr, 1e-6, "z-scores ignore offset")
}

func TestMatch_Degenerate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "squat_rule", "knee_ANY_flex", 50, kneeCurve, true)
	m := newMatcher(t, dir)

	res := m.Match(activity.Squat, userSamples(0, 1, 3, kneeCurve), 0, 1)
	assert.True(t, math.IsNaN(res.MeanAbsErr))
	assert.Equal(t, 0.0, res.PhaseCorr)
	assert.Equal(t, scoring.Red, res.Band)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean_abs_err":null,"phase_corr":0,"band":"Red"}`, string(data))

	// No template files at all.
	res = m.Match(activity.CalfRaise, userSamples(0, 1, 20, kneeCurve), 0, 1)
	assert.True(t, math.IsNaN(res.MeanAbsErr))
	assert.Equal(t, scoring.Red, res.Band)
}

func TestMatch_UnavailableSamplesDoNotCount(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "squat_rule", "knee_ANY_flex", 50, kneeCurve, true)
	m := newMatcher(t, dir)

	s := userSamples(0, 1, 3, kneeCurve)
	s = append(s, series.Sample{T: 0.9, V: series.Unavailable()})
	res := m.Match(activity.Squat, s, 0, 1)
	assert.Equal(t, scoring.Red, res.Band)
}

func TestLoader_DirectoryOrder(t *testing.T) {
	primary, fallback := t.TempDir(), t.TempDir()
	writeTemplate(t, fallback, "calf_raise", "ankle_ANY_pf", 10, func(float64) float64 { return 1 }, true)

	l := NewLoader(primary, fallback)
	tpl, err := l.Load("calf_raise")
	require.NoError(t, err)
	assert.Equal(t, 1.0, tpl.Series["ankle_ANY_pf"][0])

	writeTemplate(t, primary, "calf_raise", "ankle_ANY_pf", 10, func(float64) float64 { return 2 }, true)
	tpl, err = l.Load("calf_raise")
	require.NoError(t, err)
	assert.Equal(t, 2.0, tpl.Series["ankle_ANY_pf"][0], "earlier directory wins and is re-read")
}

func TestLoader_CorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.csv"), []byte("a,b\n1,2\n"), 0644))

	tpl, err := NewLoader(dir).Load("x")
	assert.Error(t, err)
	assert.True(t, tpl.Empty())

	res := MatchTemplate(tpl, "x", userSamples(0, 1, 10, kneeCurve), 0, 1)
	assert.Equal(t, scoring.Red, res.Band)
}

func TestLoader_SkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	doc := "joint,value\nknee_L_flex,10\nknee_L_flex,oops\n,5\nknee_L_flex,20\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.csv"), []byte(doc), 0644))

	tpl, err := NewLoader(dir).Load("s")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, tpl.Series["knee_L_flex"])
	assert.Nil(t, tpl.Phase)
}

func TestScalar(t *testing.T) {
	tpl := Template{Series: map[string][]float64{
		"knee_R_flex": {1, 2, 3},
		"knee_L_flex": {4, 5, 6},
	}}
	assert.Equal(t, []float64{4, 5, 6}, Scalar(tpl, activity.Squat), "left preferred over right")

	fallback := Scalar(Template{Series: map[string][]float64{
		"a": {1, 2, 3, 4},
		"b": {3, 4},
	}}, "unknown")
	assert.Equal(t, []float64{2, 3}, fallback)

	assert.Nil(t, Scalar(Template{}, activity.Squat))
}

func TestValidPhase(t *testing.T) {
	assert.True(t, validPhase([]float64{0, 0.5, 1}, 3))
	assert.False(t, validPhase([]float64{0, 0.5, 1}, 4))
	assert.False(t, validPhase([]float64{0, 0.6, 0.5}, 3))
	assert.False(t, validPhase([]float64{0, 1.5, 2}, 3))
}

func TestBundledTemplates(t *testing.T) {
	reg, err := activity.Load()
	require.NoError(t, err)
	m := NewMatcher(NewLoader(filepath.Join("..", "..", "assets", "templates")), reg)

	for _, key := range reg.Keys() {
		tpl, err := m.Template(key)
		require.NoError(t, err, key)
		ref := Scalar(tpl, key)
		require.NotEmpty(t, ref, key)
		assert.True(t, validPhase(tpl.Phase, len(ref)), key)
	}
}
