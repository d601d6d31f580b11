// Package scale maps data values to screen positions and colors for the
// dashboard charts.
package scale

import "math"

// Linear maps a continuous domain onto a continuous range.
type Linear struct {
	Domain [2]float64
	Range  [2]float64
}

// NewLinear builds a linear scale from domain [d0,d1] onto range [r0,r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{Domain: [2]float64{d0, d1}, Range: [2]float64{r0, r1}}
}

// Map projects v from the domain into the range. A degenerate domain maps to
// the middle of the range.
func (l Linear) Map(v float64) float64 {
	d := l.Domain[1] - l.Domain[0]
	if d == 0 {
		return (l.Range[0] + l.Range[1]) / 2
	}
	t := (v - l.Domain[0]) / d
	return l.Range[0] + t*(l.Range[1]-l.Range[0])
}

// Invert projects a range value back into the domain.
func (l Linear) Invert(r float64) float64 {
	d := l.Range[1] - l.Range[0]
	if d == 0 {
		return l.Domain[0]
	}
	t := (r - l.Range[0]) / d
	return l.Domain[0] + t*(l.Domain[1]-l.Domain[0])
}

// Ticks returns roughly count human-friendly values inside the domain,
// spaced at 1, 2 or 5 times a power of ten.
func (l Linear) Ticks(count int) []float64 {
	start, stop := l.Domain[0], l.Domain[1]
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, count)
	if i2 < i1 {
		return nil
	}
	out := make([]float64, 0, int(i2-i1)+1)
	for i := i1; i <= i2; i++ {
		if inc < 0 {
			out = append(out, i/-inc)
		} else {
			out = append(out, i*inc)
		}
	}
	if reverse {
		for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
			out[a], out[b] = out[b], out[a]
		}
	}
	return out
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec returns the integer tick bounds and increment. A negative increment
// means "divide by -inc", which keeps fractional steps exact.
func tickSpec(start, stop float64, count int) (i1, i2, inc float64) {
	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		return i1, i2, -inc
	}
	inc = math.Pow(10, power) * factor
	i1 = math.Round(start / inc)
	i2 = math.Round(stop / inc)
	if i1*inc < start {
		i1++
	}
	if i2*inc > stop {
		i2--
	}
	return i1, i2, inc
}

// NearestYear returns the year closest to x. Ties go to the later year.
// It reports false when years is empty.
func NearestYear(years []int, x float64) (int, bool) {
	if len(years) == 0 {
		return 0, false
	}
	best := years[0]
	bestDist := math.Abs(float64(best) - x)
	for _, y := range years[1:] {
		d := math.Abs(float64(y) - x)
		if d < bestDist || (d == bestDist && y > best) {
			best, bestDist = y, d
		}
	}
	return best, true
}
