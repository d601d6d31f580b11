package render

import (
	"fmt"
	"html/template"
	"math"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/geo"
	"github.com/farsdash/farsdash/engine/scale"
)

// Map canvas size.
const (
	MapWidth  = 600
	MapHeight = 550
)

// Stroke widths of a state outline.
const (
	StrokeDefault  = 1.0
	StrokeSelected = 4.0
	StrokeHover    = 2.0 // added while hovered
)

const (
	mapStroke = "#333"
	diffAbove = "red"
	diffBelow = "blue"
)

// PointerKind is the browser event that produced a pointer request.
type PointerKind string

const (
	PointerMove     PointerKind = "move"
	PointerLeave    PointerKind = "leave"
	PointerClick    PointerKind = "click"
	PointerDblClick PointerKind = "dblclick"
)

// ParsePointerKind validates a pointer event kind.
func ParsePointerKind(s string) (PointerKind, error) {
	switch k := PointerKind(s); k {
	case PointerMove, PointerLeave, PointerClick, PointerDblClick:
		return k, nil
	}
	return "", fmt.Errorf("unknown pointer kind %q", s)
}

// Pointer is one pointer event. X and Y are canvas coordinates; PageX and
// PageY place the tooltip.
type Pointer struct {
	Kind  PointerKind `json:"kind"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	PageX float64     `json:"page_x"`
	PageY float64     `json:"page_y"`
}

// ClickIntent asks the host page to toggle the state's comparison line.
type ClickIntent struct {
	Entry domain.HeatmapEntry `json:"entry"`
}

// NavigateIntent asks the host to open the state's detail page.
type NavigateIntent struct {
	StateID domain.StateID `json:"state_id"`
}

// Interaction is the map's answer to a pointer event. A zero StateID means
// nothing is hovered and every outline shows its base width.
type Interaction struct {
	StateID     domain.StateID  `json:"state_id,omitempty"`
	StrokeWidth float64         `json:"stroke_width,omitempty"`
	Tooltip     *Tooltip        `json:"tooltip,omitempty"`
	Click       *ClickIntent    `json:"click,omitempty"`
	Navigate    *NavigateIntent `json:"navigate,omitempty"`
}

// Polygon is one drawn state.
type Polygon struct {
	StateID     domain.StateID
	Name        string
	Path        string
	Fill        string
	StrokeWidth float64
	HasData     bool
}

// HeatMap is the choropleth of one year's heatmap entries.
type HeatMap struct {
	Metric      domain.Metric
	shapes      []geo.Shape
	entries     map[domain.StateID]domain.HeatmapEntry
	highlighted map[domain.StateID]bool
	color       scale.Color
}

// NewHeatMap builds the map for entries colored by metric. Shapes must be
// projected onto a MapWidth×MapHeight canvas.
func NewHeatMap(shapes []geo.Shape, entries []domain.HeatmapEntry, metric domain.Metric, highlighted []domain.StateID) *HeatMap {
	h := &HeatMap{
		Metric:      metric,
		shapes:      shapes,
		entries:     make(map[domain.StateID]domain.HeatmapEntry, len(entries)),
		highlighted: make(map[domain.StateID]bool, len(highlighted)),
		color:       ColorScale(entries, metric),
	}
	for _, e := range entries {
		h.entries[e.StateID] = e
	}
	for _, id := range highlighted {
		h.highlighted[id] = true
	}
	return h
}

// ColorScale picks the sequential scale for percentages and the diverging
// scale for differences, with domains taken from entries.
func ColorScale(entries []domain.HeatmapEntry, metric domain.Metric) scale.Color {
	if metric == domain.MetricDifference {
		var absMax float64
		for _, e := range entries {
			absMax = math.Max(absMax, math.Abs(e.Difference))
		}
		return scale.Diverging{AbsMax: absMax}
	}
	var hi float64
	for _, e := range entries {
		hi = math.Max(hi, e.Percentage)
	}
	return scale.Sequential{Max: hi}
}

// Entry returns the data for id, if any.
func (h *HeatMap) Entry(id domain.StateID) (domain.HeatmapEntry, bool) {
	e, ok := h.entries[id]
	return e, ok
}

// Fill is the polygon color of id.
func (h *HeatMap) Fill(id domain.StateID) string {
	e, ok := h.entries[id]
	if !ok {
		return scale.NeutralFill
	}
	return h.color.Color(h.Metric.Value(e))
}

// BaseStroke is the outline width of id when not hovered.
func (h *HeatMap) BaseStroke(id domain.StateID) float64 {
	if h.highlighted[id] {
		return StrokeSelected
	}
	return StrokeDefault
}

// Polygons lists every state in draw order.
func (h *HeatMap) Polygons() []Polygon {
	out := make([]Polygon, 0, len(h.shapes))
	for _, s := range h.shapes {
		_, ok := h.entries[s.StateID]
		out = append(out, Polygon{
			StateID:     s.StateID,
			Name:        s.Name,
			Path:        s.Path,
			Fill:        h.Fill(s.StateID),
			StrokeWidth: h.BaseStroke(s.StateID),
			HasData:     ok,
		})
	}
	return out
}

// Pointer resolves a pointer event against the map. Click yields an intent
// only for states with data; double click navigates for any state.
func (h *HeatMap) Pointer(p Pointer) Interaction {
	if p.Kind == PointerLeave {
		return Interaction{}
	}
	shape, ok := geo.HitTest(h.shapes, p.X, p.Y)
	if !ok {
		return Interaction{}
	}
	in := Interaction{
		StateID:     shape.StateID,
		StrokeWidth: h.BaseStroke(shape.StateID) + StrokeHover,
	}
	e, hasData := h.entries[shape.StateID]
	if hasData {
		in.Tooltip = h.Tooltip(e, p.PageX, p.PageY)
	}
	switch p.Kind {
	case PointerClick:
		if hasData {
			in.Click = &ClickIntent{Entry: e}
		}
	case PointerDblClick:
		in.Navigate = &NavigateIntent{StateID: shape.StateID}
	}
	return in
}

// Tooltip builds the hover text for e, offset 10px right and below the pointer.
func (h *HeatMap) Tooltip(e domain.HeatmapEntry, pageX, pageY float64) *Tooltip {
	t := &Tooltip{X: pageX + 10, Y: pageY + 10}
	t.bold(e.StateName)
	if h.Metric == domain.MetricDifference {
		sign, color, side := "+", diffAbove, "Above"
		if e.Difference < 0 {
			sign, color, side = "-", diffBelow, "Below"
		}
		t.add("State: " + Pct1(e.Percentage) + "%")
		t.add("National avg: " + Pct1(e.NationalAvg) + "%")
		t.Lines = append(t.Lines, Line{Text: "Δ: " + sign + Pct1(math.Abs(e.Difference)) + "%", Bold: true, Color: color})
		t.add(side + " national average")
		return t
	}
	t.add("Alcohol crashes: " + Thousands(e.AlcoholAccidents))
	t.add("Total crashes: " + Thousands(e.TotalAccidents))
	t.add("Percentage: " + Pct1(e.Percentage) + "%")
	return t
}

// SVG renders the map.
func (h *HeatMap) SVG() (template.HTML, error) {
	return execSVG("heatmap", struct {
		Width, Height int
		Stroke        string
		Polygons      []Polygon
	}{MapWidth, MapHeight, mapStroke, h.Polygons()})
}
