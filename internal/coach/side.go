package coach

import (
	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/geometry"
)

var sideKeypoints = []string{"shoulder", "elbow", "wrist", "hip", "knee", "ankle"}

// lockSide picks the side to track for a single-side activity. A side whose score joint
// is measurable wins outright; when both are measurable the side with the higher summed
// keypoint confidence wins, and ties go left. ok is false while neither side is measurable.
func lockSide(kp detector.KeypointMap, angles map[string]float64, def activity.Definition) (geometry.Side, bool) {
	j, _ := def.ScoreJointFor(geometry.Both)
	_, lok := angles[j.Key(geometry.Left)]
	_, rok := angles[j.Key(geometry.Right)]
	switch {
	case lok && !rok:
		return geometry.Left, true
	case rok && !lok:
		return geometry.Right, true
	case !lok && !rok:
		return geometry.Both, false
	}

	if sideConfidence(kp, geometry.Right) > sideConfidence(kp, geometry.Left) {
		return geometry.Right, true
	}
	return geometry.Left, true
}

func sideConfidence(kp detector.KeypointMap, s geometry.Side) float64 {
	var sum float64
	for _, name := range sideKeypoints {
		sum += kp.Conf(s.Prefix() + "_" + name)
	}
	return sum
}
