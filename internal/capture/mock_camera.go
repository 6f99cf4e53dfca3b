package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera produces blank frames on a synthetic clock. It is meant to be paired
// with detector.MockDetector, which ignores pixel content.
type MockCamera struct {
	mu      sync.Mutex
	running bool
	fps     int
	limit   int
	read    int
	start   time.Time
}

// NewMockCamera creates a camera that yields limit frames (0 means unlimited).
func NewMockCamera(limit int) *MockCamera {
	return &MockCamera{fps: DefaultFPS, limit: limit, start: time.Unix(0, 0)}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.read = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// Read returns the next blank frame, stamped read/fps seconds after the synthetic start.
func (c *MockCamera) Read() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return Frame{}, ErrCameraNotOpen
	}
	if c.limit > 0 && c.read >= c.limit {
		return Frame{}, fmt.Errorf("no more frames")
	}

	mat := gocv.NewMatWithSize(DefaultHeight/4, DefaultWidth/4, gocv.MatTypeCV8UC3)
	at := c.start.Add(time.Duration(c.read) * time.Second / time.Duration(c.fps))
	c.read++
	return Frame{Mat: &mat, At: at}, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Frames reports how many frames have been read since Open.
func (c *MockCamera) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read
}
