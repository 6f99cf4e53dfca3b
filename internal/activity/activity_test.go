package activity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/geometry"
	"github.com/ayusman/posecoach/internal/repcycle"
)

func TestLoad_BuiltIn(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{Squat, ArmAbduction, ForwardFlexion, CalfRaise, JumpingJack}, r.Keys())

	squat, ok := r.Get(Squat)
	require.True(t, ok)
	assert.Equal(t, 5, squat.Reps)
	assert.Equal(t, "knee_ANY_flex", squat.ScoreJoint)
	assert.Equal(t, 100.0, squat.Targets["knee_L_flex"])
	assert.Equal(t, 30.0, squat.Cycle.UpThresh)
	assert.Equal(t, 0.8, squat.Cycle.MinDuration)

	jj, _ := r.Get(JumpingJack)
	assert.Equal(t, repcycle.DefaultParams(), jj.Cycle, "unset cycle uses defaults")

	_, ok = r.Get("yoga")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing key": "activities:\n  - reps: 3\n    score_joint: a\n    primary_joints: [a]\n",
		"zero reps":   "activities:\n  - key: x\n    score_joint: a\n    primary_joints: [a]\n",
		"duplicate": "activities:\n" +
			"  - {key: x, reps: 1, score_joint: a, primary_joints: [a]}\n" +
			"  - {key: x, reps: 1, score_joint: a, primary_joints: [a]}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}

	_, err := Parse([]byte("activities: [:"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acts.yaml")
	doc := "activities:\n  - {key: lunge, reps: 8, score_joint: knee_ANY_flex, primary_joints: [knee_L_flex], cycle: {up_thresh: 40}}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	d, ok := r.Get("lunge")
	require.True(t, ok)
	assert.Equal(t, "lunge", d.Label)
	assert.Equal(t, 40.0, d.Cycle.UpThresh)
	assert.Equal(t, 6.0, d.Cycle.BaselineBand)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDetectSide(t *testing.T) {
	tests := []struct {
		keys []string
		want geometry.Side
	}{
		{[]string{"shoulder_L_flex", "hip_L_flex"}, geometry.Left},
		{[]string{"shoulder_R_flex"}, geometry.Right},
		{[]string{"shoulder_L_flex", "shoulder_R_flex"}, geometry.Left},
		{nil, geometry.Left},
		{[]string{"neck_flex", "ankle_ANY_pf"}, geometry.Left},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSide(tt.keys), "%v", tt.keys)
	}
}

func TestTrackedJoints(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	ff, _ := r.Get(ForwardFlexion)
	assert.Equal(t, []string{"shoulder_R_flex", "hip_R_flex"}, ff.TrackedJoints(geometry.Right))
	assert.Equal(t, []string{"shoulder_L_flex", "shoulder_R_flex", "hip_L_flex", "hip_R_flex"}, ff.TrackedJoints(geometry.Both))

	calf, _ := r.Get(CalfRaise)
	assert.Equal(t, []string{"ankle_L_pf"}, calf.TrackedJoints(geometry.Left))

	j, s := calf.ScoreJointFor(geometry.Right)
	assert.Equal(t, geometry.AnklePF, j)
	assert.Equal(t, geometry.Right, s)
}
