// Package testdata provides pose recordings and synthetic pose sequences for tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"math"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/recording"
)

//go:embed recordings/*.jsonl
var recordingsFS embed.FS

// LoadRecording decodes an embedded recording by file name.
func LoadRecording(name string) ([]detector.Pose, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return recording.ReadAll(bytes.NewReader(data))
}

// RecordingBytes returns the raw contents of an embedded recording.
func RecordingBytes(name string) ([]byte, error) {
	return recordingsFS.ReadFile("recordings/" + name)
}

// SquatFrames renders reps squats at fps: 0.5 s standing, then a raised-cosine dip from
// 5 to 100 degrees of knee flexion over 1.6 s. A final 0.5 s of standing follows.
func SquatFrames(reps int, fps float64) []detector.Pose {
	return cycleFrames(reps, fps, func(phase float64) []detector.Keypoint {
		return detector.SquatPose(5 + 95*(1-math.Cos(phase))/2)
	})
}

// ArmRaiseFrames renders reps arm abductions from 10 to 170 degrees, with the same timing
// as SquatFrames.
func ArmRaiseFrames(reps int, fps float64, crossed bool) []detector.Pose {
	return cycleFrames(reps, fps, func(phase float64) []detector.Keypoint {
		return detector.ArmRaisePose(10+160*(1-math.Cos(phase))/2, crossed)
	})
}

func cycleFrames(reps int, fps float64, pose func(phase float64) []detector.Keypoint) []detector.Pose {
	var out []detector.Pose
	t := 0.0
	emit := func(phase float64) {
		out = append(out, detector.Pose{T: t, Keypoints: pose(phase)})
		t += 1 / fps
	}
	rest := int(0.5 * fps)
	dip := int(1.6 * fps)
	for range reps {
		for range rest {
			emit(0)
		}
		for i := range dip {
			emit(2 * math.Pi * float64(i) / float64(dip))
		}
	}
	for range rest {
		emit(0)
	}
	return out
}
