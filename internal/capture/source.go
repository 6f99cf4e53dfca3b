package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
)

// Source yields timestamped poses. Next returns io.EOF when the source is exhausted.
type Source interface {
	Next(ctx context.Context) (detector.Pose, error)
	Close() error
}

// LiveSource runs a detector over camera frames. Pose times are seconds since the first frame.
type LiveSource struct {
	cam   Camera
	det   detector.Detector
	start time.Time
}

// NewLiveSource opens cam and pairs it with det.
func NewLiveSource(cam Camera, det detector.Detector, fps int) (*LiveSource, error) {
	if err := cam.Open(); err != nil {
		return nil, err
	}
	cam.SetFPS(fps)
	return &LiveSource{cam: cam, det: det}, nil
}

// Next captures a frame and estimates its pose.
func (s *LiveSource) Next(ctx context.Context) (detector.Pose, error) {
	if err := ctx.Err(); err != nil {
		return detector.Pose{}, err
	}
	frame, err := s.cam.Read()
	if err != nil {
		return detector.Pose{}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	if s.start.IsZero() {
		s.start = frame.At
	}
	kps, err := s.det.Detect(frame.Mat)
	if err != nil {
		return detector.Pose{}, fmt.Errorf("detect: %w", err)
	}
	return detector.Pose{T: frame.At.Sub(s.start).Seconds(), Keypoints: kps}, nil
}

// Close closes the camera and the detector.
func (s *LiveSource) Close() error {
	camErr := s.cam.Close()
	if err := s.det.Close(); err != nil {
		return err
	}
	return camErr
}

// ReplaySource plays back recorded poses.
type ReplaySource struct {
	poses []detector.Pose
	next  int
}

// NewReplaySource creates a source over poses.
func NewReplaySource(poses []detector.Pose) *ReplaySource {
	return &ReplaySource{poses: poses}
}

// Next returns the next recorded pose.
func (s *ReplaySource) Next(ctx context.Context) (detector.Pose, error) {
	if err := ctx.Err(); err != nil {
		return detector.Pose{}, err
	}
	if s.next >= len(s.poses) {
		return detector.Pose{}, io.EOF
	}
	p := s.poses[s.next]
	s.next++
	return p, nil
}

// Close is a no-op.
func (s *ReplaySource) Close() error { return nil }
