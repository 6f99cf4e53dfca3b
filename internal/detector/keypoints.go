// Package detector provides pose detection interfaces and keypoint types.
package detector

// Keypoint names following the COCO 17-point body convention used by MoveNet-style backends.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Foot keypoints supplied only by richer backends.
const (
	LeftHeel  = "left_heel"
	RightHeel = "right_heel"
	LeftToe   = "left_toe"
	RightToe  = "right_toe"
)

// NumKeypoints is the size of the base body vocabulary.
const NumKeypoints = 17

// Vocabulary lists the base keypoint names in backend output order.
var Vocabulary = [NumKeypoints]string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// MinConfidence is the confidence below which a keypoint is treated as absent for geometry.
const MinConfidence = 0.3

// aliases maps alternative backend names onto the vocabulary used here.
var aliases = map[string]string{
	"left_foot_index":  LeftToe,
	"right_foot_index": RightToe,
}

// Point2D is a 2D image-space point. Coordinates are normalized to [0,1], y grows downward.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is a named, confidence-scored landmark from a pose backend.
type Keypoint struct {
	Name string   `json:"name"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Z    *float64 `json:"z,omitempty"`
	Conf float64  `json:"conf"`
}

// KeypointMap holds the keypoints of one frame keyed by name.
// Undetected keypoints are absent from the map.
type KeypointMap map[string]Keypoint

// ToMap folds a backend keypoint list into a KeypointMap.
// Entries with zero confidence are dropped so absence is always represented by a missing key.
func ToMap(kps []Keypoint) KeypointMap {
	m := make(KeypointMap, len(kps))
	for _, kp := range kps {
		if kp.Conf <= 0 {
			continue
		}
		if alias, ok := aliases[kp.Name]; ok {
			kp.Name = alias
		}
		m[kp.Name] = kp
	}
	return m
}

// Point returns the position of a keypoint usable for geometry (conf >= MinConfidence).
func (m KeypointMap) Point(name string) (Point2D, bool) {
	return m.PointMin(name, MinConfidence)
}

// PointMin is Point with a caller-provided confidence floor.
func (m KeypointMap) PointMin(name string, minConf float64) (Point2D, bool) {
	kp, ok := m[name]
	if !ok || kp.Conf < minConf {
		return Point2D{}, false
	}
	return Point2D{X: kp.X, Y: kp.Y}, true
}

// Conf returns the confidence of a keypoint, 0 if absent.
func (m KeypointMap) Conf(name string) float64 {
	return m[name].Conf
}

// Pose is one frame of backend output. T is the capture time in seconds; the pose
// service leaves it zero and callers stamp it.
type Pose struct {
	T         float64    `json:"t"`
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score,omitempty"`
}
