package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const radians = math.Pi / 180

// conic is an Albers equal-area conic projection with a fixed rotation and
// center. Scale and translate are supplied by the composite.
type conic struct {
	n, c, r0 float64
	rotate   float64 // degrees added to longitude
	cx, cy   float64 // raw projection of the center
	scaleMul float64 // sub-projection scale relative to the composite
	offX     float64 // translate offset as a multiple of the composite scale
	offY     float64
}

func newConic(phi0, phi1, rotate, centerLon, centerLat, scaleMul, offX, offY float64) conic {
	sy0 := math.Sin(phi0 * radians)
	n := (sy0 + math.Sin(phi1*radians)) / 2
	c := 1 + sy0*(2*n-sy0)
	p := conic{
		n:        n,
		c:        c,
		r0:       math.Sqrt(c) / n,
		rotate:   rotate,
		scaleMul: scaleMul,
		offX:     offX,
		offY:     offY,
	}
	// the center is given in rotated coordinates
	p.cx, p.cy = p.raw(centerLon*radians, centerLat*radians)
	return p
}

func (p conic) raw(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(p.c-2*p.n*math.Sin(phi)) / p.n
	lambda *= p.n
	return r * math.Sin(lambda), p.r0 - r*math.Cos(lambda)
}

func (p conic) project(lon, lat, scale, tx, ty float64) (float64, float64) {
	lambda := (lon + p.rotate) * radians
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	x, y := p.raw(lambda, lat*radians)
	k := scale * p.scaleMul
	return tx + p.offX*scale + k*(x-p.cx), ty + p.offY*scale - k*(y-p.cy)
}

var (
	lower48 = newConic(29.5, 45.5, 96, -0.6, 38.7, 1, 0, 0)
	alaska  = newConic(55, 65, 154, -2, 58.5, 0.35, -0.307, 0.201)
	hawaii  = newConic(8, 18, 157, -3, 19.9, 1, -0.205, 0.212)
)

// subFor picks the inset for a geographic point.
func subFor(pt orb.Point) *conic {
	lon, lat := pt[0], pt[1]
	switch {
	case lat >= 50 && (lon <= -129 || lon >= 170):
		return &alaska
	case lat >= 18 && lat <= 23 && lon >= -162 && lon <= -154:
		return &hawaii
	}
	return &lower48
}

// AlbersUSA is the composite United States projection: the lower 48 states
// with Alaska and Hawaii drawn as insets to the south-west.
type AlbersUSA struct {
	scale  float64
	tx, ty float64
}

// NewAlbersUSA returns the projection at its default scale of 1070 centered
// at (480, 250).
func NewAlbersUSA() *AlbersUSA {
	return &AlbersUSA{scale: 1070, tx: 480, ty: 250}
}

func (a *AlbersUSA) Scale() float64 { return a.scale }

func (a *AlbersUSA) Translate() (float64, float64) { return a.tx, a.ty }

// SetScale sets the lower-48 scale; the insets follow it.
func (a *AlbersUSA) SetScale(k float64) *AlbersUSA {
	a.scale = k
	return a
}

// SetTranslate sets the screen position of the lower-48 center.
func (a *AlbersUSA) SetTranslate(x, y float64) *AlbersUSA {
	a.tx, a.ty = x, y
	return a
}

// Project maps a longitude/latitude point to screen coordinates.
func (a *AlbersUSA) Project(pt orb.Point) orb.Point {
	return a.projectWith(subFor(pt), pt)
}

func (a *AlbersUSA) projectWith(sub *conic, pt orb.Point) orb.Point {
	x, y := sub.project(pt[0], pt[1], a.scale, a.tx, a.ty)
	return orb.Point{x, y}
}

// ProjectPolygon projects every ring of poly through the inset chosen by the
// polygon's first vertex, so a polygon is never split across insets.
func (a *AlbersUSA) ProjectPolygon(poly orb.Polygon) orb.Polygon {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil
	}
	sub := subFor(poly[0][0])
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = a.projectWith(sub, pt)
		}
		out[i] = r
	}
	return out
}

// ProjectMulti projects each polygon of mp independently.
func (a *AlbersUSA) ProjectMulti(mp orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(mp))
	for _, poly := range mp {
		if p := a.ProjectPolygon(poly); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// FitSize sets scale and translate so the projected shapes fill a w×h box,
// centered on the shorter axis. It is a no-op when the shapes are empty.
func (a *AlbersUSA) FitSize(w, h float64, shapes []GeoPolygon) *AlbersUSA {
	a.scale, a.tx, a.ty = 150, 0, 0

	var b orb.Bound
	first := true
	for _, s := range shapes {
		for _, poly := range a.ProjectMulti(s.Geometry) {
			pb := poly.Bound()
			if first {
				b, first = pb, false
				continue
			}
			b = b.Union(pb)
		}
	}
	if first {
		*a = *NewAlbersUSA()
		return a
	}

	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	k := math.Min(w/dx, h/dy)
	if math.IsInf(k, 0) || math.IsNaN(k) || k <= 0 {
		*a = *NewAlbersUSA()
		return a
	}
	a.scale = 150 * k
	a.tx = (w - k*(b.Max[0]+b.Min[0])) / 2
	a.ty = (h - k*(b.Max[1]+b.Min[1])) / 2
	return a
}
