// Package coach drives a guided exercise trial frame by frame.
//
// A Session owns every piece of mutable analysis state (cycle detector, angle history,
// snapshots, gait tracker) and must be used from a single goroutine.
package coach

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/gait"
	"github.com/ayusman/posecoach/internal/geometry"
	"github.com/ayusman/posecoach/internal/reference"
	"github.com/ayusman/posecoach/internal/repcycle"
	"github.com/ayusman/posecoach/internal/rules"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/series"
)

// DefaultSnapshotLimit is the number of keypoint snapshots kept for rule checks.
const DefaultSnapshotLimit = 400

// ErrUnknownActivity is returned when a trial is started for a key missing from the registry.
var ErrUnknownActivity = errors.New("unknown activity")

// ErrNoTrial is returned by operations that need an active trial.
var ErrNoTrial = errors.New("no active trial")

// Config holds the collaborators of a Session.
type Config struct {
	Registry   *activity.Registry
	Thresholds rules.Thresholds
	// Matcher is optional; without it repetitions carry no reference match.
	Matcher       *reference.Matcher
	Gait          gait.Config
	SnapshotLimit int
	Logger        *slog.Logger
}

// RepResult describes one detected repetition.
type RepResult struct {
	Index      int               `json:"index"`
	SetIndex   int               `json:"set_idx"`
	Event      repcycle.Event    `json:"event"`
	Assessment rules.Assessment  `json:"assessment"`
	Match      *reference.Result `json:"match,omitempty"`
	Score      float64           `json:"score"`
}

// FrameResult is everything a single frame produced.
type FrameResult struct {
	T       float64             `json:"t"`
	Angles  map[string]float64  `json:"angles"`
	Gait    gait.Metrics        `json:"gait"`
	Trial   *TrialStatus        `json:"trial,omitempty"`
	Rep     *RepResult          `json:"rep,omitempty"`
	SetDone *scoring.SetSummary `json:"set_done,omitempty"`
}

// TrialStatus is a snapshot of the active trial.
type TrialStatus struct {
	Activity   string        `json:"activity"`
	Label      string        `json:"label"`
	SetIndex   int           `json:"set_idx"`
	RepsDone   int           `json:"reps_done"`
	RepsTarget int           `json:"reps_target"`
	Side       geometry.Side `json:"side"`
	SideLocked bool          `json:"side_locked"`
	State      string        `json:"state"`
}

// trial is the per-activity state, recreated by StartTrial.
type trial struct {
	def      activity.Definition
	assessor rules.Assessor
	det      *repcycle.Detector

	side       geometry.Side
	sideLocked bool

	setIdx    int
	history   series.History
	snapshots []rules.Snapshot
	reps      []RepResult
	counted   int
	repScores []float64
}

// Session is a single user's coaching session: a sequence of trials and completed sets.
type Session struct {
	cfg    Config
	log    *slog.Logger
	gait   *gait.Tracker
	trial  *trial
	sets   []scoring.SetSummary
	repSeq int
}

// NewSession creates a Session. A nil registry falls back to the built-in activities.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Registry == nil {
		reg, err := activity.Load()
		if err != nil {
			return nil, fmt.Errorf("load activities: %w", err)
		}
		cfg.Registry = reg
	}
	if cfg.Thresholds == (rules.Thresholds{}) {
		cfg.Thresholds = rules.DefaultThresholds()
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = DefaultSnapshotLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		cfg:  cfg,
		log:  cfg.Logger.With("component", "coach"),
		gait: gait.NewTracker(cfg.Gait),
	}, nil
}

// Registry returns the activity registry used by the session.
func (s *Session) Registry() *activity.Registry {
	return s.cfg.Registry
}

// StartTrial begins a guided trial, discarding any trial in progress.
func (s *Session) StartTrial(key string) error {
	def, ok := s.cfg.Registry.Get(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActivity, key)
	}
	s.trial = &trial{
		def:      def,
		assessor: rules.For(def.Key, s.cfg.Thresholds),
		det:      repcycle.New(def.Cycle),
		side:     geometry.Both,
		setIdx:   1,
		history:  series.History{},
	}
	if !def.SingleSide {
		s.trial.sideLocked = true
	}
	s.log.Info("trial started", "activity", def.Key, "reps", def.Reps)
	return nil
}

// StopTrial ends the active trial. A partial set with counted repetitions is kept and returned.
func (s *Session) StopTrial() (scoring.SetSummary, bool) {
	if s.trial == nil {
		return scoring.SetSummary{}, false
	}
	var (
		sum  scoring.SetSummary
		done bool
	)
	if s.trial.counted > 0 {
		sum, done = s.FinishSet()
	}
	s.log.Info("trial stopped", "activity", s.trial.def.Key)
	s.trial = nil
	return sum, done
}

// Status reports the active trial, if any.
func (s *Session) Status() (TrialStatus, bool) {
	if s.trial == nil {
		return TrialStatus{}, false
	}
	tr := s.trial
	return TrialStatus{
		Activity:   tr.def.Key,
		Label:      tr.def.Label,
		SetIndex:   tr.setIdx,
		RepsDone:   tr.counted,
		RepsTarget: tr.def.Reps,
		Side:       tr.side,
		SideLocked: tr.sideLocked,
		State:      tr.det.State().String(),
	}, true
}

// Sets returns the completed sets of the session.
func (s *Session) Sets() []scoring.SetSummary {
	out := make([]scoring.SetSummary, len(s.sets))
	copy(out, s.sets)
	return out
}

// Summary aggregates the completed sets.
func (s *Session) Summary() scoring.SessionSummary {
	return scoring.SummarizeSession(s.sets)
}

// Ingest processes one frame. It never fails: missing keypoints only remove measurements.
func (s *Session) Ingest(p detector.Pose) FrameResult {
	kp := detector.ToMap(p.Keypoints)
	angles := geometry.Angles(kp)
	s.updateGait(p.T, kp)

	res := FrameResult{T: p.T, Angles: angles, Gait: s.gait.Metrics()}
	tr := s.trial
	if tr == nil {
		return res
	}

	if !tr.sideLocked {
		side, ok := lockSide(kp, angles, tr.def)
		if !ok {
			res.Trial = s.status()
			return res
		}
		tr.side, tr.sideLocked = side, true
		s.log.Debug("side locked", "activity", tr.def.Key, "side", side)
	}

	scalar := s.record(p.T, kp, angles)
	if ev, ok := tr.det.Update(p.T, scalar); ok {
		res.Rep = s.completeRep(ev)
		if tr.counted >= tr.def.Reps {
			if sum, ok := s.FinishSet(); ok {
				res.SetDone = &sum
			}
		}
	}
	res.Trial = s.status()
	return res
}

func (s *Session) status() *TrialStatus {
	st, ok := s.Status()
	if !ok {
		return nil
	}
	return &st
}

func (s *Session) updateGait(t float64, kp detector.KeypointMap) {
	var l, r series.Value
	if p, ok := kp.Point(detector.LeftAnkle); ok {
		l = series.Measured(p.Y)
	}
	if p, ok := kp.Point(detector.RightAnkle); ok {
		r = series.Measured(p.Y)
	}
	s.gait.Update(t, l, r)
}

// record appends this frame's tracked angles, score scalar and snapshot, and returns the scalar.
func (s *Session) record(t float64, kp detector.KeypointMap, angles map[string]float64) series.Value {
	tr := s.trial
	tracked := tr.def.TrackedJoints(tr.side)
	for _, key := range tracked {
		v, ok := angles[key]
		tr.history.Append(key, t, series.FromOK(v, ok))
	}

	j, side := tr.def.ScoreJointFor(tr.side)
	scalar := series.FromOK(geometry.Combined(angles, j, side))
	if !slices.Contains(tracked, tr.def.ScoreJoint) {
		tr.history.Append(tr.def.ScoreJoint, t, scalar)
	}

	tr.snapshots = append(tr.snapshots, rules.Snapshot{T: t, Keypoints: kp})
	if over := len(tr.snapshots) - s.cfg.SnapshotLimit; over > 0 {
		tr.snapshots = append(tr.snapshots[:0], tr.snapshots[over:]...)
	}
	return scalar
}

func (s *Session) completeRep(ev repcycle.Event) *RepResult {
	tr := s.trial
	a := tr.assessor.Assess(rules.Window{
		T0:        ev.T0,
		T1:        ev.T1,
		Series:    tr.history,
		Snapshots: tr.snapshots,
		Targets:   tr.def.Targets,
	})

	s.repSeq++
	rep := RepResult{
		Index:      s.repSeq,
		SetIndex:   tr.setIdx,
		Event:      ev,
		Assessment: a,
		Score:      a.Score(),
	}
	if s.cfg.Matcher != nil {
		m := s.cfg.Matcher.Match(tr.def.Key, tr.history[tr.def.ScoreJoint], ev.T0, ev.T1)
		rep.Match = &m
	}

	tr.reps = append(tr.reps, rep)
	if a.Counted {
		tr.counted++
		tr.repScores = append(tr.repScores, rep.Score)
	}
	s.log.Debug("repetition",
		"activity", tr.def.Key,
		"t0", ev.T0,
		"t1", ev.T1,
		"counted", a.Counted,
		"message", a.Message,
	)
	return &rep
}

// FinishSet closes the current set and starts the next one. It reports false when
// there is no trial or the set has no repetitions.
func (s *Session) FinishSet() (scoring.SetSummary, bool) {
	tr := s.trial
	if tr == nil || len(tr.reps) == 0 {
		return scoring.SetSummary{}, false
	}

	stability := scoring.FormStability(values(tr.history[tr.def.ScoreJoint]))
	sum := scoring.NewSetSummary(tr.def.Key, tr.setIdx, tr.def.Reps, tr.repScores, stability, s.symmetry())
	s.sets = append(s.sets, sum)
	s.log.Info("set complete",
		"activity", sum.Activity,
		"set", sum.SetIndex,
		"reps", sum.RepsCounted,
		"final_percent", sum.FinalPercent,
	)

	tr.setIdx++
	tr.history = series.History{}
	tr.snapshots = nil
	tr.reps = nil
	tr.counted = 0
	tr.repScores = nil
	return sum, true
}

// symmetry compares the mean per-repetition peaks of the first joint tracked on both sides.
func (s *Session) symmetry() float64 {
	tr := s.trial
	for _, key := range tr.def.TrackedJoints(tr.side) {
		j, side, ok := geometry.ParseKey(key)
		if !ok || side != geometry.Left {
			continue
		}
		right := j.Key(geometry.Right)
		if _, tracked := tr.history[right]; !tracked {
			continue
		}
		return scoring.SymmetryIndex(meanPeak(tr.history[key], tr.reps), meanPeak(tr.history[right], tr.reps))
	}
	return 0
}

func meanPeak(s series.Series, reps []RepResult) series.Value {
	var sum float64
	var n int
	for _, r := range reps {
		if v, ok := s.Peak(r.Event.T0, r.Event.T1).Get(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return series.Unavailable()
	}
	return series.Measured(sum / float64(n))
}

func values(s series.Series) []series.Value {
	out := make([]series.Value, len(s))
	for i, smp := range s {
		out[i] = smp.V
	}
	return out
}
