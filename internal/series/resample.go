package series

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// ErrTooFewPoints is returned when a curve has fewer than two distinct abscissae.
var ErrTooFewPoints = errors.New("series: need at least two distinct points")

// Resample linearly interpolates the curve (xs, ys) at each grid point.
// Points are sorted by x and repeated x values keep their first y.
// Grid points outside the curve take the value of the nearest end.
func Resample(xs, ys, grid []float64) ([]float64, error) {
	type pt struct{ x, y float64 }
	pts := make([]pt, 0, len(xs))
	for i := range xs {
		if i < len(ys) {
			pts = append(pts, pt{xs[i], ys[i]})
		}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	var fx, fy []float64
	for _, p := range pts {
		if n := len(fx); n > 0 && p.x == fx[n-1] {
			continue
		}
		fx = append(fx, p.x)
		fy = append(fy, p.y)
	}
	if len(fx) < 2 {
		return nil, ErrTooFewPoints
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(fx, fy); err != nil {
		return nil, err
	}
	out := make([]float64, len(grid))
	for i, g := range grid {
		switch {
		case g <= fx[0]:
			out[i] = fy[0]
		case g >= fx[len(fx)-1]:
			out[i] = fy[len(fy)-1]
		default:
			out[i] = pl.Predict(g)
		}
	}
	return out, nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Times returns the timestamps of the available samples.
func (s Series) Times() []float64 {
	out := make([]float64, 0, len(s))
	for _, smp := range s {
		if smp.V.OK() {
			out = append(out, smp.T)
		}
	}
	return out
}
