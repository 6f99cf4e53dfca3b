// Package geometry converts keypoint maps into joint angles and body anchors.
// All functions are pure; missing keypoints yield missing angles, never zeros.
package geometry

import (
	"math"

	"github.com/ayusman/posecoach/internal/detector"
)

const epsilon = 1e-6

// AngleAt returns the angle in degrees at vertex between the rays to a and b.
// ok is false when either ray is degenerate.
func AngleAt(a, vertex, b detector.Point2D) (float64, bool) {
	return angleBetween(sub(a, vertex), sub(b, vertex))
}

func angleBetween(v1, v2 detector.Point2D) (float64, bool) {
	n1 := math.Hypot(v1.X, v1.Y)
	n2 := math.Hypot(v2.X, v2.Y)
	if n1 < epsilon || n2 < epsilon {
		return 0, false
	}
	cos := (v1.X*v2.X + v1.Y*v2.Y) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

func sub(a, b detector.Point2D) detector.Point2D {
	return detector.Point2D{X: a.X - b.X, Y: a.Y - b.Y}
}

func midpoint(a, b detector.Point2D) detector.Point2D {
	return detector.Point2D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Anchors are body reference points derived from the raw keypoints.
// Each Has* flag reports whether the matching field is valid.
type Anchors struct {
	ShoulderCenter detector.Point2D
	HipCenter      detector.Point2D
	Neck           detector.Point2D
	TorsoAxis      detector.Point2D // shoulder center -> hip center

	HasShoulderCenter bool
	HasHipCenter      bool
	HasNeck           bool
	HasTorsoAxis      bool
}

// Derive computes the anchors available in kp.
func Derive(kp detector.KeypointMap) Anchors {
	var a Anchors
	ls, lok := kp.Point(detector.LeftShoulder)
	rs, rok := kp.Point(detector.RightShoulder)
	if lok && rok {
		a.ShoulderCenter, a.HasShoulderCenter = midpoint(ls, rs), true
	}

	lh, lok := kp.Point(detector.LeftHip)
	rh, rok := kp.Point(detector.RightHip)
	if lok && rok {
		a.HipCenter, a.HasHipCenter = midpoint(lh, rh), true
	}

	if nose, ok := kp.Point(detector.Nose); ok && a.HasShoulderCenter {
		a.Neck, a.HasNeck = midpoint(a.ShoulderCenter, nose), true
	}

	if a.HasShoulderCenter && a.HasHipCenter {
		a.TorsoAxis, a.HasTorsoAxis = sub(a.HipCenter, a.ShoulderCenter), true
	}
	return a
}

// HipWidth returns the distance between the hips, the body scale used to normalize
// image-space distances.
func HipWidth(kp detector.KeypointMap) (float64, bool) {
	lh, lok := kp.Point(detector.LeftHip)
	rh, rok := kp.Point(detector.RightHip)
	if !lok || !rok {
		return 0, false
	}
	return Distance(lh, rh), true
}

// Distance is the Euclidean distance between two points.
func Distance(a, b detector.Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Angles computes every joint angle measurable in kp, keyed by series name.
//
// Flexion is reported as 180 minus the interior angle, so a straight limb reads 0
// and bending increases the value.
func Angles(kp detector.KeypointMap) map[string]float64 {
	out := make(map[string]float64)
	anc := Derive(kp)

	for _, s := range []Side{Left, Right} {
		p := s.Prefix()
		shoulder, hasShoulder := kp.Point(p + "_shoulder")
		elbow, hasElbow := kp.Point(p + "_elbow")
		wrist, hasWrist := kp.Point(p + "_wrist")
		hip, hasHip := kp.Point(p + "_hip")
		knee, hasKnee := kp.Point(p + "_knee")
		ankle, hasAnkle := kp.Point(p + "_ankle")
		toe, hasToe := kp.Point(p + "_toe")

		if hasWrist && hasElbow && hasShoulder {
			if a, ok := AngleAt(wrist, elbow, shoulder); ok {
				out[ElbowFlex.Key(s)] = 180 - a
			}
		}
		if hasAnkle && hasKnee && hasHip {
			if a, ok := AngleAt(ankle, knee, hip); ok {
				out[KneeFlex.Key(s)] = 180 - a
			}
		}
		if hasKnee && hasHip && anc.HasShoulderCenter {
			if a, ok := AngleAt(knee, hip, anc.ShoulderCenter); ok {
				out[HipFlex.Key(s)] = 180 - a
			}
		}
		if hasKnee && hasHip && anc.HasTorsoAxis {
			if a, ok := angleBetween(anc.TorsoAxis, sub(knee, hip)); ok {
				out[HipAbd.Key(s)] = a
			}
		}
		if hasHip && hasShoulder && hasElbow {
			if a, ok := AngleAt(hip, shoulder, elbow); ok {
				out[ShoulderAbd.Key(s)] = a
			}
		}
		if hasHip && hasShoulder && hasWrist {
			if a, ok := AngleAt(hip, shoulder, wrist); ok {
				out[ShoulderFlex.Key(s)] = a
			}
		}
		if hasKnee && hasAnkle && hasToe {
			if a, ok := AngleAt(knee, ankle, toe); ok {
				out[AnklePF.Key(s)] = a - 90
			}
		}
	}

	if nose, ok := kp.Point(detector.Nose); ok && anc.HasNeck && anc.HasTorsoAxis {
		up := detector.Point2D{X: -anc.TorsoAxis.X, Y: -anc.TorsoAxis.Y}
		if a, ok := angleBetween(up, sub(nose, anc.Neck)); ok {
			out[NeckFlex] = a
		}
	}
	return out
}
