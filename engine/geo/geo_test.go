package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farsdash/farsdash/engine/domain"
)

const fixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"STATE": "06", "NAME": "California"},
     "geometry": {"type": "Polygon", "coordinates": [[[-124,42],[-120,42],[-114,35],[-117,32.5],[-124,40],[-124,42]]]}},
    {"type": "Feature", "properties": {"STATE": 48},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-106,32],[-94,33],[-94,29],[-97,26],[-106,32]]]]}},
    {"type": "Feature", "properties": {"STATE": "02"},
     "geometry": {"type": "Polygon", "coordinates": [[[-168,65],[-141,69],[-141,60],[-160,58],[-168,65]]]}},
    {"type": "Feature", "properties": {"STATE": "15"},
     "geometry": {"type": "Polygon", "coordinates": [[[-156,20.9],[-154.8,19.5],[-155.9,18.9],[-156,20.9]]]}},
    {"type": "Feature", "properties": {"STATE": "72"},
     "geometry": {"type": "Point", "coordinates": [-66, 18]}},
    {"type": "Feature", "properties": {"NAME": "nowhere"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
  ]
}`

func TestParse(t *testing.T) {
	polys, err := Parse([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, polys, 4)

	assert.Equal(t, domain.StateID(2), polys[0].StateID)
	assert.Equal(t, "Alaska", polys[0].Name)
	assert.Equal(t, domain.StateID(6), polys[1].StateID)
	assert.Equal(t, "California", polys[1].Name)
	assert.Equal(t, domain.StateID(15), polys[2].StateID)
	assert.Equal(t, domain.StateID(48), polys[3].StateID)
	assert.Len(t, polys[3].Geometry, 1)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestAlbersCenters(t *testing.T) {
	p := NewAlbersUSA()

	c := p.Project(orb.Point{-96.6, 38.7})
	assert.InDelta(t, 480, c[0], 1e-6)
	assert.InDelta(t, 250, c[1], 1e-6)

	ak := p.Project(orb.Point{-156, 58.5})
	assert.InDelta(t, 480-0.307*1070, ak[0], 1e-6)
	assert.InDelta(t, 250+0.201*1070, ak[1], 1e-6)

	hi := p.Project(orb.Point{-160, 19.9})
	assert.InDelta(t, 480-0.205*1070, hi[0], 1e-6)
	assert.InDelta(t, 250+0.212*1070, hi[1], 1e-6)
}

func TestAlbersOrientation(t *testing.T) {
	p := NewAlbersUSA()
	seattle := p.Project(orb.Point{-122.3, 47.6})
	miami := p.Project(orb.Point{-80.2, 25.8})
	assert.Less(t, seattle[0], miami[0], "west maps left")
	assert.Less(t, seattle[1], miami[1], "north maps up")
}

func TestFitSize(t *testing.T) {
	polys, err := Parse([]byte(fixture))
	require.NoError(t, err)

	shapes := Project(polys, 600, 550)
	require.Len(t, shapes, 4)

	var b orb.Bound
	for i, s := range shapes {
		if i == 0 {
			b = s.Bound
			continue
		}
		b = b.Union(s.Bound)
	}
	const eps = 1e-6
	assert.GreaterOrEqual(t, b.Min[0], -eps)
	assert.GreaterOrEqual(t, b.Min[1], -eps)
	assert.LessOrEqual(t, b.Max[0], 600+eps)
	assert.LessOrEqual(t, b.Max[1], 550+eps)

	fillsWidth := b.Max[0]-b.Min[0] > 600-1e-3
	fillsHeight := b.Max[1]-b.Min[1] > 550-1e-3
	assert.True(t, fillsWidth || fillsHeight, "bounds %v should touch one axis", b)
}

func TestFitSizeEmpty(t *testing.T) {
	p := NewAlbersUSA().FitSize(600, 550, nil)
	assert.Equal(t, 1070.0, p.Scale())
}

func TestHitTest(t *testing.T) {
	polys, err := Parse([]byte(fixture))
	require.NoError(t, err)
	shapes := Project(polys, 600, 550)

	for _, s := range shapes {
		c := s.Bound.Center()
		if !s.Contains(c[0], c[1]) {
			continue
		}
		hit, ok := HitTest(shapes, c[0], c[1])
		require.True(t, ok)
		assert.Equal(t, s.StateID, hit.StateID)
	}

	_, ok := HitTest(shapes, -50, -50)
	assert.False(t, ok)
}

func TestHitTestTopmost(t *testing.T) {
	square := orb.MultiPolygon{{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}}
	shapes := []Shape{
		{StateID: 1, Screen: square, Bound: square.Bound()},
		{StateID: 2, Screen: square, Bound: square.Bound()},
	}
	hit, ok := HitTest(shapes, 5, 5)
	require.True(t, ok)
	assert.Equal(t, domain.StateID(2), hit.StateID)
}

func TestPathData(t *testing.T) {
	mp := orb.MultiPolygon{{{{0, 0}, {10.123, 0}, {10, 5.5}, {0, 0}}}}
	assert.Equal(t, "M0,0L10.12,0L10,5.5L0,0Z", PathData(mp))
	assert.Equal(t, "", PathData(nil))
}
