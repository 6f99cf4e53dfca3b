package recording

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/detector"
)

func TestReadAll(t *testing.T) {
	in := `{"t":0,"keypoints":[{"name":"left_knee","x":0.4,"y":0.7,"conf":0.9}]}

{"t":0.033,"keypoints":[{"name":"left_foot_index","x":0.4,"y":0.95,"z":-0.1,"conf":0.8}]}
`
	poses, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, poses, 2)

	assert.Equal(t, detector.LeftKnee, poses[0].Keypoints[0].Name)
	assert.InDelta(t, 0.033, poses[1].T, 1e-12)
	require.NotNil(t, poses[1].Keypoints[0].Z)
	assert.InDelta(t, -0.1, *poses[1].Keypoints[0].Z, 1e-12)
}

func TestReadAll_Errors(t *testing.T) {
	_, err := ReadAll(strings.NewReader("{\"t\":0,\"keypoints\":[]}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadAll(strings.NewReader("{\"t\":1}\n{\"t\":0.5}\n"))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestReader_EOF(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i, flex := range []float64{5, 50, 100} {
		require.NoError(t, w.Write(detector.Pose{T: float64(i) / 30, Keypoints: detector.SquatPose(flex)}))
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	path := filepath.Join(t.TempDir(), "squat.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	poses, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, poses, 3)
	assert.Equal(t, detector.SquatPose(50), poses[1].Keypoints)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
