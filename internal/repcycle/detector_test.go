package repcycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/series"
)

const rate = 100.0

// feed runs signal over [0, dur) at 100 Hz and returns the emitted events.
func feed(d *Detector, dur float64, signal func(t float64) float64) []Event {
	var events []Event
	for i := 0; float64(i)/rate < dur; i++ {
		t := float64(i) / rate
		if ev, ok := d.Update(t, series.Measured(signal(t))); ok {
			events = append(events, ev)
		}
	}
	return events
}

// excursion rises from base to base+30 at start, holds until end, then ramps back down over 0.1 s.
func excursion(base, start, end float64) func(float64) float64 {
	return func(t float64) float64 {
		switch {
		case t < start:
			return base
		case t < end:
			return base + 30
		case t < end+0.1:
			return base + 30*(1-(t-end)/0.1)
		}
		return base
	}
}

func TestDetector_SingleCycle(t *testing.T) {
	d := New(DefaultParams())
	signal := excursion(10, 0.5, 1.2)
	events := feed(d, 2, signal)

	require.Len(t, events, 1)
	ev := events[0]
	assert.InDelta(t, 0.5, ev.T0, 1e-9)

	// t1 is the first sample back within the baseline band.
	var reentry float64
	for i := 120; ; i++ {
		tt := float64(i) / rate
		if math.Abs(signal(tt)-10) <= 6 {
			reentry = tt
			break
		}
	}
	assert.InDelta(t, reentry, ev.T1, 1e-9)
	assert.Equal(t, AtBaseline, d.State())
}

func TestDetector_ShortHoldIsIgnored(t *testing.T) {
	d := New(DefaultParams())
	spike := func(t float64) float64 {
		if t >= 0.5 && t < 0.55 {
			return 40
		}
		return 10
	}
	assert.Empty(t, feed(d, 1.5, spike))
	assert.Equal(t, AtBaseline, d.State())

	// The detector is not stuck after the aborted attempt.
	events := feed(d, 2, excursion(10, 0.5, 1.2))
	assert.Len(t, events, 1)
}

func TestDetector_TimeoutResets(t *testing.T) {
	p := DefaultParams()
	d := New(p)
	events := feed(d, 9, excursion(10, 0.5, 7.5))
	assert.Empty(t, events)
	assert.Equal(t, AtBaseline, d.State())
}

func TestDetector_TooFast(t *testing.T) {
	p := DefaultParams()
	p.MinDuration = 0.8
	d := New(p)
	assert.Empty(t, feed(d, 2, excursion(10, 0.5, 0.7)))
	assert.Equal(t, AtBaseline, d.State())
}

func TestDetector_UnavailableSamplesDoNotBreakCycle(t *testing.T) {
	d := New(DefaultParams())
	signal := excursion(10, 0.5, 1.2)
	var events []Event
	for i := 0; i < 200; i++ {
		tt := float64(i) / rate
		v := series.Measured(signal(tt))
		if i%7 == 3 {
			v = series.Unavailable()
		}
		if ev, ok := d.Update(tt, v); ok {
			events = append(events, ev)
		}
	}
	require.Len(t, events, 1)
	assert.InDelta(t, 0.5, events[0].T0, 1e-9)
}

func TestDetector_RepeatedCycles(t *testing.T) {
	d := New(DefaultParams())
	// Three reps of a 1 s raised cosine from 5 to 95 degrees, with 0.5 s rests.
	rep := func(t float64) float64 {
		phase := math.Mod(t, 1.5)
		if phase >= 1 {
			return 5
		}
		return 5 + 45*(1-math.Cos(2*math.Pi*phase))
	}
	events := feed(d, 4.5, rep)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Greater(t, ev.Duration(), 0.4)
		assert.Less(t, ev.Duration(), 1.0)
	}
}

func TestDetector_BaselineAdaptsOnEveryRestingSample(t *testing.T) {
	d := New(DefaultParams())
	d.Update(0, series.Measured(10))
	d.Update(0.01, series.Measured(14))
	b, ok := d.Baseline().Get()
	require.True(t, ok)
	assert.InDelta(t, 10.08, b, 1e-9)

	d.Update(0.02, series.Measured(25))
	b, _ = d.Baseline().Get()
	assert.InDelta(t, 0.98*10.08+0.02*25, b, 1e-9)
}

func TestDetector_FollowsPostureShift(t *testing.T) {
	d := New(DefaultParams())
	// Rest at 10 for 1 s, settle at 18 for 1 s, then ten 1.5 s reps 18 -> 68 -> 18, sampled at 30 fps.
	signal := func(t float64) float64 {
		switch {
		case t < 1:
			return 10
		case t < 2 || t >= 17:
			return 18
		}
		phase := math.Mod(t-2, 1.5) / 1.5
		return 18 + 25*(1-math.Cos(2*math.Pi*phase))
	}
	const fps = 30.0
	var events []Event
	for i := 0; float64(i)/fps < 17.5; i++ {
		tt := float64(i) / fps
		if ev, ok := d.Update(tt, series.Measured(signal(tt))); ok {
			events = append(events, ev)
		}
	}
	assert.Len(t, events, 10)
	b, ok := d.Baseline().Get()
	require.True(t, ok)
	assert.Greater(t, b, 18.0)
	assert.Less(t, b, 30.0)
	assert.Equal(t, AtBaseline, d.State())
}

func TestDetector_TimeoutRearmsAfterBaselineCatchesUp(t *testing.T) {
	d := New(DefaultParams())
	// A 7 s hold at 40 times out; the following real rep from the new rest level still counts.
	signal := func(t float64) float64 {
		switch {
		case t < 0.5:
			return 10
		case t < 10:
			return 40
		case t < 11:
			return 75
		}
		return 40
	}
	events := feed(d, 12, signal)
	require.Len(t, events, 1)
	assert.InDelta(t, 10, events[0].T0, 1e-9)
}

func TestDetector_Reset(t *testing.T) {
	d := New(DefaultParams())
	feed(d, 0.8, excursion(10, 0.5, 1.2))
	require.Equal(t, Above, d.State())

	d.Reset()
	assert.Equal(t, Init, d.State())
	assert.False(t, d.Baseline().OK())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "GOING_DOWN", GoingDown.String())
}
