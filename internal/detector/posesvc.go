package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	poseScript      = "pose_service.py"
	poseIdleTimeout = 30 * time.Second
)

// ErrScriptNotFound is returned when the pose service script cannot be located.
var ErrScriptNotFound = errors.New("pose_service.py not found")

// ServiceDetector implements Detector by streaming frames to a pose estimation subprocess.
//
// Each request is a 4-byte big-endian length followed by a JPEG frame. The service answers
// with one JSON line: {"keypoints":[{"name":..,"x":..,"y":..,"conf":..}], "score":..}.
type ServiceDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewServiceDetector creates a detector backed by the pose service.
// The subprocess is started lazily on first detection.
func NewServiceDetector(config Config) (*ServiceDetector, error) {
	script := config.Script
	if script == "" {
		script = findScript()
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	return &ServiceDetector{config: config, script: script}, nil
}

// Detect sends a frame to the service and returns the detected keypoints.
func (d *ServiceDetector) Detect(frame *gocv.Mat) ([]Keypoint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	pose, err := readPose(d.stdout)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return pose.Keypoints, nil
}

// Close shuts down the subprocess.
func (d *ServiceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func readPose(r *bufio.Reader) (Pose, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return Pose{}, fmt.Errorf("read response: %w", err)
	}
	var pose Pose
	if err := json.Unmarshal(line, &pose); err != nil {
		return Pose{}, fmt.Errorf("parse response: %w", err)
	}
	return pose, nil
}

func (d *ServiceDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	args := []string{d.script}
	if d.config.Model != "" {
		args = append(args, "--model", d.config.Model)
	}
	args = append(args, "--min-confidence", fmt.Sprintf("%.2f", d.config.MinConfidence))
	d.cmd = exec.Command(python, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}
	slog.Info("pose service started", "python", python, "script", d.script, "model", d.config.Model)

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	return nil
}

func (d *ServiceDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *ServiceDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(poseIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			slog.Warn("pose service exited", "error", err)
		}
	})
}

func findScript() string {
	return firstExisting(
		filepath.Join("scripts", poseScript),
		filepath.Join("..", "scripts", poseScript),
		filepath.Join(execDir(), "scripts", poseScript),
		filepath.Join(os.Getenv("HOME"), ".posecoach", "scripts", poseScript),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment near the binary.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".posecoach/venv/bin/python"),
	)
}

func execDir() string {
	p, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(p)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
