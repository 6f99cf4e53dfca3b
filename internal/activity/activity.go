// Package activity defines the guided exercises and their registry.
package activity

import (
	"github.com/ayusman/posecoach/internal/geometry"
	"github.com/ayusman/posecoach/internal/repcycle"
)

// Well-known activity keys.
const (
	Squat          = "squat"
	ArmAbduction   = "arm_abduction"
	ForwardFlexion = "forward_flexion"
	CalfRaise      = "calf_raise"
	JumpingJack    = "jumping_jack"
)

// Definition is the static description of one guided activity.
type Definition struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	Reps  int    `yaml:"reps" json:"reps"`

	// SingleSide activities lock onto one visible side at the start of a trial.
	SingleSide bool `yaml:"single_side" json:"single_side"`

	PrimaryJoints []string           `yaml:"primary_joints" json:"primary_joints"`
	ScoreJoint    string             `yaml:"score_joint" json:"score_joint"`
	Targets       map[string]float64 `yaml:"targets" json:"targets"`

	// Reference is the base name of the reference template files.
	Reference string `yaml:"reference" json:"reference"`

	Cycle repcycle.Params `yaml:"cycle" json:"cycle"`
}

// TrackedJoints expands the primary joints into concrete per-side series keys.
// With a locked side only that side is returned; otherwise combined keys expand to both sides.
func (d Definition) TrackedJoints(side geometry.Side) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	for _, key := range d.PrimaryJoints {
		j, s, ok := geometry.ParseKey(key)
		if !ok {
			add(key)
			continue
		}
		switch {
		case side != geometry.Both:
			add(j.Key(side))
		case s == geometry.Both:
			add(j.Key(geometry.Left))
			add(j.Key(geometry.Right))
		default:
			add(key)
		}
	}
	return out
}

// ScoreJointFor returns the joint and side that drive cycle detection.
// A combined score joint follows the locked side when there is one.
func (d Definition) ScoreJointFor(side geometry.Side) (geometry.Joint, geometry.Side) {
	j, s, ok := geometry.ParseKey(d.ScoreJoint)
	if !ok {
		return geometry.Joint{}, geometry.Both
	}
	if s == geometry.Both {
		return j, side
	}
	return j, s
}

// DetectSide infers the tracked side from the populated series keys.
// It returns Left when only left keys are present, Right when only right keys are present,
// and Left when both or neither are.
func DetectSide(keys []string) geometry.Side {
	var hasL, hasR bool
	for _, k := range keys {
		if _, s, ok := geometry.ParseKey(k); ok {
			hasL = hasL || s == geometry.Left
			hasR = hasR || s == geometry.Right
		}
	}
	if hasR && !hasL {
		return geometry.Right
	}
	return geometry.Left
}
