// Package recording reads and writes pose recordings in JSON-lines form, one
// {"t": seconds, "keypoints": [...]} object per line.
package recording

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/posecoach/internal/detector"
)

// maxLine bounds a single recorded frame.
const maxLine = 1 << 20

// ErrOutOfOrder is returned when a frame's timestamp goes backwards.
var ErrOutOfOrder = errors.New("frames out of order")

// Reader decodes frames from a recording.
type Reader struct {
	sc    *bufio.Scanner
	line  int
	lastT float64
	seen  bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next frame, or io.EOF at the end of the recording. Blank lines are skipped.
func (r *Reader) Next() (detector.Pose, error) {
	for r.sc.Scan() {
		r.line++
		b := r.sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var p detector.Pose
		if err := json.Unmarshal(b, &p); err != nil {
			return detector.Pose{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if r.seen && p.T < r.lastT {
			return detector.Pose{}, fmt.Errorf("line %d: %w (t=%g after %g)", r.line, ErrOutOfOrder, p.T, r.lastT)
		}
		r.lastT, r.seen = p.T, true
		return p, nil
	}
	if err := r.sc.Err(); err != nil {
		return detector.Pose{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return detector.Pose{}, io.EOF
}

// ReadAll decodes every frame of a recording.
func ReadAll(r io.Reader) ([]detector.Pose, error) {
	rd := NewReader(r)
	var out []detector.Pose
	for {
		p, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

// ReadFile decodes the recording stored at path.
func ReadFile(path string) ([]detector.Pose, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return ReadAll(f)
}

// Writer appends frames to a recording.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one frame.
func (w *Writer) Write(p detector.Pose) error {
	if err := w.enc.Encode(p); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
