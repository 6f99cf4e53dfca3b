package detector

import "gocv.io/x/gocv"

// Detector defines the interface for pose estimation backends.
type Detector interface {
	// Detect analyzes a video frame and returns the keypoints of the most prominent person.
	// Returns an empty slice if nobody is detected.
	Detect(frame *gocv.Mat) ([]Keypoint, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Script is the pose service script path. Empty means search the default locations.
	Script string

	// Python is the interpreter used to run Script. Empty means look for a venv, then python3.
	Python string

	// Model selects the backend model variant (e.g. "lightning", "thunder").
	Model string

	// MinConfidence is the minimum keypoint confidence the service should report (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:         "lightning",
		MinConfidence: 0.1,
	}
}
