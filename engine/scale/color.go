package scale

import (
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// NeutralFill is used for shapes without data.
const NeutralFill = "#eee"

// ColorBrewer stops for the sequential and diverging ramps.
var (
	bluesStops = []string{"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"}
	rdbuStops  = []string{"#67001f", "#b2182b", "#d6604d", "#f4a582", "#fddbc7", "#f7f7f7", "#d1e5f0", "#92c5de", "#4393c3", "#2166ac", "#053061"}
)

// Ramp is a continuous color interpolator over [0,1].
type Ramp struct {
	stops []colorful.Color
}

// NewRamp builds a uniform B-spline ramp through the given hex colors.
func NewRamp(hexes ...string) Ramp {
	stops := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		stops = append(stops, c)
	}
	return Ramp{stops: stops}
}

// Blues is the sequential single-hue ramp, light to dark.
var Blues = NewRamp(bluesStops...)

// RdBu runs from dark red (0) through white to dark blue (1).
var RdBu = NewRamp(rdbuStops...)

// At returns the hex color at position t, clamped to [0,1].
func (r Ramp) At(t float64) string {
	switch len(r.stops) {
	case 0:
		return NeutralFill
	case 1:
		return r.stops[0].Hex()
	}
	n := len(r.stops) - 1
	var i int
	switch {
	case t <= 0 || math.IsNaN(t):
		t = 0
	case t >= 1:
		t = 1
		i = n - 1
	default:
		i = int(math.Floor(t * float64(n)))
	}
	v1, v2 := r.stops[i], r.stops[i+1]
	v0 := r.stopOr(i-1, reflect(v1, v2))
	v3 := r.stopOr(i+2, reflect(v2, v1))
	u := (t - float64(i)/float64(n)) * float64(n)
	c := colorful.Color{
		R: basis(u, v0.R, v1.R, v2.R, v3.R),
		G: basis(u, v0.G, v1.G, v2.G, v3.G),
		B: basis(u, v0.B, v1.B, v2.B, v3.B),
	}
	return c.Clamped().Hex()
}

func (r Ramp) stopOr(i int, fallback colorful.Color) colorful.Color {
	if i < 0 || i >= len(r.stops) {
		return fallback
	}
	return r.stops[i]
}

// reflect returns 2a-b channel-wise.
func reflect(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: 2*a.R - b.R, G: 2*a.G - b.G, B: 2*a.B - b.B}
}

func basis(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}

// Color maps a metric value to a fill.
type Color interface {
	// T returns the ramp position of v in [0,1].
	T(v float64) float64
	// Color returns the fill for v.
	Color(v float64) string
}

// Sequential maps [0,max] onto the Blues ramp.
type Sequential struct {
	Max float64
}

func (s Sequential) T(v float64) float64 {
	if s.Max == 0 {
		return 0
	}
	return clamp01(v / s.Max)
}

func (s Sequential) Color(v float64) string { return Blues.At(s.T(v)) }

// Diverging maps [-AbsMax, AbsMax] around zero onto a reversed RdBu ramp, so
// negative values are blue and positive values red.
type Diverging struct {
	AbsMax float64
}

func (d Diverging) T(v float64) float64 {
	if d.AbsMax == 0 {
		return 0.5
	}
	return clamp01((v + d.AbsMax) / (2 * d.AbsMax))
}

func (d Diverging) Color(v float64) string { return RdBu.At(1 - d.T(v)) }

func clamp01(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return math.Max(0, math.Min(1, t))
}

// Category10 without its first entry, which is reserved for the national series.
var Categorical = []string{"#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"}

// NationalColor is the fixed color of the national series.
const NationalColor = "steelblue"

// SeriesColors assigns a categorical color to each id by its rank among the
// sorted ids, cycling after the palette is exhausted.
func SeriesColors[K ~int](ids []K) map[K]string {
	sorted := make([]K, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := make(map[K]string, len(ids))
	for i, id := range sorted {
		out[id] = Categorical[i%len(Categorical)]
	}
	return out
}
