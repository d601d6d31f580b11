package geo

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/farsdash/farsdash/engine/domain"
)

// Shape is a state boundary in screen space.
type Shape struct {
	StateID domain.StateID
	Name    string
	Screen  orb.MultiPolygon
	Bound   orb.Bound
	Path    string
}

// Contains reports whether the screen point lies inside the shape.
func (s Shape) Contains(x, y float64) bool {
	pt := orb.Point{x, y}
	if !s.Bound.Contains(pt) {
		return false
	}
	return planar.MultiPolygonContains(s.Screen, pt)
}

// Project fits the projection to a w×h canvas and converts every polygon to
// a screen-space shape with its SVG path.
func Project(polys []GeoPolygon, w, h float64) []Shape {
	proj := NewAlbersUSA().FitSize(w, h, polys)
	out := make([]Shape, 0, len(polys))
	for _, p := range polys {
		screen := proj.ProjectMulti(p.Geometry)
		if len(screen) == 0 {
			continue
		}
		out = append(out, Shape{
			StateID: p.StateID,
			Name:    p.Name,
			Screen:  screen,
			Bound:   screen.Bound(),
			Path:    PathData(screen),
		})
	}
	return out
}

// PathData renders a multipolygon as an SVG path "d" attribute, one closed
// subpath per ring.
func PathData(mp orb.MultiPolygon) string {
	var b strings.Builder
	buf := make([]byte, 0, 16)
	for _, poly := range mp {
		for _, ring := range poly {
			for i, pt := range ring {
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				buf = strconv.AppendFloat(buf[:0], round2(pt[0]), 'f', -1, 64)
				b.Write(buf)
				b.WriteByte(',')
				buf = strconv.AppendFloat(buf[:0], round2(pt[1]), 'f', -1, 64)
				b.Write(buf)
			}
			if len(ring) > 0 {
				b.WriteByte('Z')
			}
		}
	}
	return b.String()
}

func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// HitTest returns the topmost shape containing (x, y). Shapes later in the
// slice are drawn on top.
func HitTest(shapes []Shape, x, y float64) (Shape, bool) {
	for i := len(shapes) - 1; i >= 0; i-- {
		if shapes[i].Contains(x, y) {
			return shapes[i], true
		}
	}
	return Shape{}, false
}
