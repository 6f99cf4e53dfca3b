package geometry

import "strings"

// Side selects one half of the body.
type Side string

const (
	// Both means no side is locked; bilateral values are combined.
	Both  Side = ""
	Left  Side = "L"
	Right Side = "R"
)

// anySide is the side token used by combined keys such as knee_ANY_flex.
const anySide = "ANY"

// Prefix returns the keypoint name prefix ("left" or "right") for the side.
func (s Side) Prefix() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Joint names a measured motion of a joint, e.g. knee flexion.
// Its series keys have the form <name>_<side>_<motion>.
type Joint struct {
	Name   string
	Motion string
}

// Joints measured by Angles.
var (
	ElbowFlex    = Joint{"elbow", "flex"}
	KneeFlex     = Joint{"knee", "flex"}
	HipFlex      = Joint{"hip", "flex"}
	HipAbd       = Joint{"hip", "abd"}
	ShoulderAbd  = Joint{"shoulder", "abd"}
	ShoulderFlex = Joint{"shoulder", "flex"}
	AnklePF      = Joint{"ankle", "pf"}
)

// NeckFlex is the only unilateral angle key.
const NeckFlex = "neck_flex"

// Key returns the series key for one side, e.g. knee_L_flex.
// Both yields the combined key.
func (j Joint) Key(s Side) string {
	if s == Both {
		return j.Any()
	}
	return j.Name + "_" + string(s) + "_" + j.Motion
}

// Any returns the combined key, e.g. knee_ANY_flex.
func (j Joint) Any() string {
	return j.Name + "_" + anySide + "_" + j.Motion
}

// ParseKey splits a series key into its joint and side.
// Combined keys parse with side Both. ok is false for keys without a side token.
func ParseKey(key string) (j Joint, s Side, ok bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return Joint{}, Both, false
	}
	j = Joint{Name: parts[0], Motion: parts[2]}
	switch parts[1] {
	case string(Left):
		return j, Left, true
	case string(Right):
		return j, Right, true
	case anySide:
		return j, Both, true
	}
	return Joint{}, Both, false
}

// Combined returns the value of joint for a locked side, or the mean of the
// available left and right values when s is Both.
func Combined(angles map[string]float64, j Joint, s Side) (float64, bool) {
	if s != Both {
		v, ok := angles[j.Key(s)]
		return v, ok
	}
	l, lok := angles[j.Key(Left)]
	r, rok := angles[j.Key(Right)]
	switch {
	case lok && rok:
		return (l + r) / 2, true
	case lok:
		return l, true
	case rok:
		return r, true
	}
	return 0, false
}
