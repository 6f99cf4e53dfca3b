package reference

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/geometry"
	"github.com/ayusman/posecoach/internal/series"
)

var (
	// ErrTooFewFrames is returned by Build for recordings shorter than two frames.
	ErrTooFewFrames = errors.New("reference: need at least two frames")
	// ErrNoCurves is returned by Build when no joint was measured in two or more frames.
	ErrNoCurves = errors.New("reference: no joint measured in the recording")
)

// bilateral joints also get a combined curve, e.g. knee_ANY_flex.
var bilateral = []geometry.Joint{
	geometry.ElbowFlex,
	geometry.KneeFlex,
	geometry.HipFlex,
	geometry.HipAbd,
	geometry.ShoulderAbd,
	geometry.ShoulderFlex,
	geometry.AnklePF,
}

// NormalizePhase maps timestamps onto [0, 1] using the first and last entries.
// A single timestamp maps to 0.
func NormalizePhase(times []float64) []float64 {
	if len(times) == 0 {
		return nil
	}
	t0 := times[0]
	t1 := t0 + 1
	if len(times) > 1 {
		t1 = times[len(times)-1]
	}
	span := math.Max(1e-6, t1-t0)
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = (t - t0) / span
	}
	return out
}

// Build extracts a template from a recorded pose sequence, one curve value per frame.
// Joints measured in fewer than two frames are dropped; gaps in the others are filled
// by linear interpolation in time.
func Build(poses []detector.Pose) (Template, error) {
	if len(poses) < 2 {
		return Template{}, ErrTooFewFrames
	}

	times := make([]float64, len(poses))
	h := series.History{}
	for i, p := range poses {
		times[i] = p.T
		angles := geometry.Angles(detector.ToMap(p.Keypoints))
		for _, j := range bilateral {
			if v, ok := geometry.Combined(angles, j, geometry.Both); ok {
				angles[j.Any()] = v
			}
		}
		for name, v := range angles {
			h.Append(name, p.T, series.Measured(v))
		}
	}

	tpl := Template{Phase: NormalizePhase(times), Series: make(map[string][]float64)}
	for _, name := range h.Populated() {
		measured := h[name].Measured()
		curve, err := series.Resample(measured.Times(), measured.Values(), times)
		if err != nil {
			continue
		}
		tpl.Series[name] = curve
	}
	if tpl.Empty() {
		return Template{}, ErrNoCurves
	}
	return tpl, nil
}

// Write stores tpl as <dir>/<name>.json (phase) and <dir>/<name>.csv
// (frame, joint, phase, value rows) in the layout Load reads.
func Write(dir, name string, tpl Template) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}

	data, err := json.MarshalIndent(struct {
		Frames int       `json:"frames"`
		Phase  []float64 `json:"phase"`
	}{len(tpl.Phase), tpl.Phase}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode phase: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write phase: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name+".csv"))
	if err != nil {
		return fmt.Errorf("create curves: %w", err)
	}
	defer f.Close()

	joints := make([]string, 0, len(tpl.Series))
	for j := range tpl.Series {
		joints = append(joints, j)
	}
	sort.Strings(joints)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "joint", "phase", "value"}); err != nil {
		return fmt.Errorf("write curves: %w", err)
	}
	for _, j := range joints {
		for i, v := range tpl.Series[j] {
			phase := ""
			if i < len(tpl.Phase) {
				phase = strconv.FormatFloat(tpl.Phase[i], 'g', -1, 64)
			}
			rec := []string{strconv.Itoa(i), j, phase, strconv.FormatFloat(v, 'g', -1, 64)}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write curves: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write curves: %w", err)
	}
	return f.Close()
}
