// Package series provides optional measurements and time-ordered angle series.
package series

import (
	"math"
	"sort"
)

// Value is a measurement that may be unavailable. The zero Value is unavailable.
type Value struct {
	v  float64
	ok bool
}

// Measured wraps a finite measurement. Non-finite inputs become Unavailable.
func Measured(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Unavailable returns a Value carrying no measurement.
func Unavailable() Value {
	return Value{}
}

// FromOK builds a Value from the common (value, ok) return pair.
func FromOK(v float64, ok bool) Value {
	if !ok {
		return Value{}
	}
	return Measured(v)
}

// Get returns the measurement and whether it is available.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// OK reports whether the value is available.
func (v Value) OK() bool {
	return v.ok
}

// Sample is one timestamped measurement.
type Sample struct {
	T float64 // seconds
	V Value
}

// Series is an append-only, time-ordered sequence of samples for one signal.
type Series []Sample

// Window returns the samples with t0 <= T <= t1.
func (s Series) Window(t0, t1 float64) Series {
	var out Series
	for _, smp := range s {
		if smp.T >= t0 && smp.T <= t1 {
			out = append(out, smp)
		}
	}
	return out
}

// Measured returns only the available samples.
func (s Series) Measured() Series {
	out := make(Series, 0, len(s))
	for _, smp := range s {
		if smp.V.OK() {
			out = append(out, smp)
		}
	}
	return out
}

// Values returns the raw values of all available samples in order.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s))
	for _, smp := range s {
		if v, ok := smp.V.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Peak returns the maximum available value within [t0, t1].
func (s Series) Peak(t0, t1 float64) Value {
	best := Unavailable()
	for _, smp := range s.Window(t0, t1) {
		v, ok := smp.V.Get()
		if !ok {
			continue
		}
		if b, has := best.Get(); !has || v > b {
			best = Measured(v)
		}
	}
	return best
}

// History holds one series per joint name. Readers must treat it as read-only.
type History map[string]Series

// Append adds a sample to the named series.
func (h History) Append(name string, t float64, v Value) {
	h[name] = append(h[name], Sample{T: t, V: v})
}

// Populated returns the sorted names of series holding at least one available sample.
func (h History) Populated() []string {
	var keys []string
	for k, s := range h {
		for _, smp := range s {
			if smp.V.OK() {
				keys = append(keys, k)
				break
			}
		}
	}
	sort.Strings(keys)
	return keys
}
