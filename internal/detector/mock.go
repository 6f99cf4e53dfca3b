package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It replays a queue of poses, repeating the last one when the queue is drained.
type MockDetector struct {
	mu    sync.Mutex
	queue [][]Keypoint
	last  []Keypoint
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetKeypoints sets the keypoints returned by every subsequent Detect call.
func (m *MockDetector) SetKeypoints(kps []Keypoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.last = kps
}

// Enqueue appends poses to be returned by successive Detect calls.
func (m *MockDetector) Enqueue(poses ...[]Keypoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, poses...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued pose, the last pose, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Keypoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		m.last = m.queue[0]
		m.queue = m.queue[1:]
	}
	return m.last, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SquatPose returns a side-view body whose knees are flexed by flexDeg.
// Shins stay vertical and the thighs swing backward, so knee flexion equals flexDeg and the
// hips drop as the squat deepens.
func SquatPose(flexDeg float64) []Keypoint {
	const (
		shin   = 0.2
		thigh  = 0.2
		torso  = 0.3
		ankleY = 0.9
	)

	rad := flexDeg * math.Pi / 180
	kps := make([]Keypoint, 0, NumKeypoints)
	add := func(name string, x, y float64) {
		kps = append(kps, Keypoint{Name: name, X: x, Y: y, Conf: 0.9})
	}

	kneeY := ankleY - shin
	hipY := kneeY - thigh*math.Cos(rad)
	for _, side := range []struct {
		ankle, knee, hip, shoulder, elbow, wrist string
		x                                        float64
	}{
		{LeftAnkle, LeftKnee, LeftHip, LeftShoulder, LeftElbow, LeftWrist, 0.44},
		{RightAnkle, RightKnee, RightHip, RightShoulder, RightElbow, RightWrist, 0.56},
	} {
		hipX := side.x + thigh*math.Sin(rad)
		add(side.ankle, side.x, ankleY)
		add(side.knee, side.x, kneeY)
		add(side.hip, hipX, hipY)
		add(side.shoulder, hipX, hipY-torso)
		add(side.elbow, hipX, hipY-torso+0.15)
		add(side.wrist, hipX, hipY-torso+0.28)
	}
	add(Nose, 0.5+thigh*math.Sin(rad), hipY-torso-0.12)
	return kps
}

// ArmRaisePose returns a front-facing standing body with both arms abducted by abdDeg.
// Set crossed to place the wrists on the opposite side of the body midline.
func ArmRaisePose(abdDeg float64, crossed bool) []Keypoint {
	rad := abdDeg * math.Pi / 180
	kps := []Keypoint{
		{Name: Nose, X: 0.5, Y: 0.18, Conf: 0.9},
		{Name: LeftShoulder, X: 0.42, Y: 0.3, Conf: 0.9},
		{Name: RightShoulder, X: 0.58, Y: 0.3, Conf: 0.9},
		{Name: LeftHip, X: 0.44, Y: 0.6, Conf: 0.9},
		{Name: RightHip, X: 0.56, Y: 0.6, Conf: 0.9},
		{Name: LeftKnee, X: 0.44, Y: 0.75, Conf: 0.9},
		{Name: RightKnee, X: 0.56, Y: 0.75, Conf: 0.9},
		{Name: LeftAnkle, X: 0.44, Y: 0.9, Conf: 0.9},
		{Name: RightAnkle, X: 0.56, Y: 0.9, Conf: 0.9},
	}
	for _, side := range []struct {
		shoulder, elbow, wrist string
		x, dir                 float64
	}{
		{LeftShoulder, LeftElbow, LeftWrist, 0.42, -1},
		{RightShoulder, RightElbow, RightWrist, 0.58, 1},
	} {
		dx, dy := side.dir*math.Sin(rad), math.Cos(rad)
		kps = append(kps, Keypoint{Name: side.elbow, X: side.x + 0.13*dx, Y: 0.3 + 0.13*dy, Conf: 0.9})
		wx := side.x + 0.26*dx
		if crossed {
			wx = 1 - wx
		}
		kps = append(kps, Keypoint{Name: side.wrist, X: wx, Y: 0.3 + 0.26*dy, Conf: 0.9})
	}
	return kps
}
