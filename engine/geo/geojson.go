// Package geo loads state boundary geometry and projects it to screen space
// for the choropleth.
package geo

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/farsdash/farsdash/engine/domain"
)

// GeoPolygon is the boundary of one state in longitude/latitude degrees.
type GeoPolygon struct {
	StateID  domain.StateID
	Name     string
	Geometry orb.MultiPolygon
}

// LoadFile reads a GeoJSON FeatureCollection from path.
func LoadFile(path string) ([]GeoPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a FeatureCollection whose features carry a STATE property.
// Features with other geometry types or without a usable STATE are skipped.
// The result is ordered by state id.
func Parse(data []byte) ([]GeoPolygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var out []GeoPolygon
	for _, f := range fc.Features {
		id, ok := stateProperty(f.Properties["STATE"])
		if !ok {
			continue
		}
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			continue
		}
		name, _ := f.Properties["NAME"].(string)
		if name == "" {
			name = domain.StateName(id)
		}
		out = append(out, GeoPolygon{StateID: id, Name: name, Geometry: mp})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StateID < out[j].StateID })
	return out, nil
}

// stateProperty accepts "06", "6" or 6.
func stateProperty(v any) (domain.StateID, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return domain.StateID(n), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return domain.StateID(int(t)), true
	}
	return 0, false
}
