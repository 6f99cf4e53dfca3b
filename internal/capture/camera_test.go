package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)
		require.NotNil(t, cam)
		assert.Equal(t, DefaultFPS, cam.FPS())
		assert.False(t, cam.IsOpen())
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 10", 10, 10},
		{"set to 30", 30, 30},
		{"set to 1", 1, 1},
		{"zero keeps previous", 0, 1},
		{"negative keeps previous", -5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			assert.Equal(t, tt.wantFPS, cam.FPS())
		})
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	_, err := cam.Read()
	assert.ErrorIs(t, err, ErrCameraNotOpen)
	assert.NoError(t, cam.Close())
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)
	if err := cam.Open(); err != nil {
		t.Skipf("camera not available: %v", err)
	}
	assert.True(t, cam.IsOpen())

	frame, err := cam.Read()
	require.NoError(t, err)
	assert.False(t, frame.Mat.Empty())
	assert.False(t, frame.At.IsZero())
	require.NoError(t, frame.Close())

	require.NoError(t, cam.Close())
	assert.False(t, cam.IsOpen())
}

func TestMockCamera(t *testing.T) {
	cam := NewMockCamera(3)
	var _ Camera = cam

	_, err := cam.Read()
	assert.ErrorIs(t, err, ErrCameraNotOpen)

	require.NoError(t, cam.Open())
	cam.SetFPS(10)

	var frames []Frame
	for range 3 {
		f, err := cam.Read()
		require.NoError(t, err)
		frames = append(frames, f)
	}
	for _, f := range frames {
		f.Close()
	}
	assert.Equal(t, 200, int(frames[2].At.Sub(frames[0].At).Milliseconds()))

	_, err = cam.Read()
	assert.Error(t, err, "limit reached")
	assert.Equal(t, 3, cam.Frames())

	require.NoError(t, cam.Open())
	assert.Zero(t, cam.Frames(), "reopening rewinds")
	require.NoError(t, cam.Close())
	assert.False(t, cam.IsOpen())
}
