package render

import (
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/scale"
)

// Trend chart canvas size.
const (
	TrendWidth  = 350
	TrendHeight = 350
)

// Fallbacks used when no series has data.
const (
	DefaultFirstYear = 2010
	DefaultLastYear  = 2023
	DefaultMaxPct    = 10.0
)

const filteredColor = "#3b82f6"

// Margin is the space around a chart's plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// TrendMargin surrounds every trend chart plot.
var TrendMargin = Margin{Top: 50, Right: 60, Bottom: 90, Left: 70}

// Variant selects the trend chart layout.
type Variant int

const (
	// VariantNational draws the national line plus one line per selected state.
	VariantNational Variant = iota
	// VariantFiltered draws one demographic group against a dashed national baseline.
	VariantFiltered
)

// Series is one drawn line.
type Series struct {
	StateID domain.StateID
	Name    string
	Color   string
	Width   float64
	Dashed  bool
	Label   string
	Points  []domain.TrendPoint
}

// Tick is an axis tick in plot coordinates.
type Tick struct {
	Pos   float64
	Label string
}

// TrendHover is the crosshair and tooltip for a pointer position.
type TrendHover struct {
	Year int `json:"year"`
	// X is the crosshair position in canvas coordinates.
	X       float64  `json:"x"`
	Tooltip *Tooltip `json:"tooltip"`
}

// TrendChart is a multi-series line chart over years.
type TrendChart struct {
	Variant Variant
	YLabel  string
	Series  []Series
	X, Y    scale.Linear

	national []domain.TrendPoint
	states   []domain.StateTrend
	filtered []domain.TrendPoint
	name     string
	colors   map[domain.StateID]string
	years    []int
}

func innerSize() (float64, float64) {
	return TrendWidth - TrendMargin.Left - TrendMargin.Right, TrendHeight - TrendMargin.Top - TrendMargin.Bottom
}

// NationalAndStates builds the dashboard chart: the national series plus one
// line per state, colored by the state's rank in the selection.
func NationalAndStates(national []domain.TrendPoint, states []domain.StateTrend) *TrendChart {
	c := &TrendChart{
		Variant:  VariantNational,
		YLabel:   "Alcohol-Impaired Fatalities (%)",
		national: national,
		states:   states,
	}
	ids := make([]domain.StateID, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.StateID)
	}
	c.colors = scale.SeriesColors(ids)

	if len(national) > 0 {
		c.Series = append(c.Series, Series{Name: "National", Color: scale.NationalColor, Width: 3, Label: "National", Points: national})
	}
	for _, s := range states {
		if len(s.Data) == 0 {
			continue
		}
		c.Series = append(c.Series, Series{StateID: s.StateID, Name: s.StateName, Color: c.colors[s.StateID], Width: 2, Label: s.StateName, Points: s.Data})
	}

	sets := [][]domain.TrendPoint{national}
	for _, s := range states {
		sets = append(sets, s.Data)
	}
	c.years = unionYears(sets...)
	c.fit(sets...)
	return c
}

// Filtered builds the detail page chart for one demographic group. The x
// domain follows the filtered series; the y domain also covers national.
func Filtered(stateName string, filtered, national []domain.TrendPoint) *TrendChart {
	c := &TrendChart{
		Variant:  VariantFiltered,
		YLabel:   "Alcohol-Impaired (%)",
		national: national,
		filtered: filtered,
		name:     stateName,
	}
	if len(national) > 0 {
		c.Series = append(c.Series, Series{Name: "National", Color: scale.NationalColor, Width: 2, Dashed: true, Points: national})
	}
	c.Series = append(c.Series, Series{Name: stateName, Color: filteredColor, Width: 3, Points: filtered})

	c.years = unionYears(filtered)
	c.fit(filtered, national)
	return c
}

func unionYears(sets ...[]domain.TrendPoint) []int {
	seen := make(map[int]bool)
	var out []int
	for _, pts := range sets {
		for _, p := range pts {
			if !seen[p.Year] {
				seen[p.Year] = true
				out = append(out, p.Year)
			}
		}
	}
	sort.Ints(out)
	return out
}

// fit sets the x domain from c.years and the y domain from every set.
func (c *TrendChart) fit(sets ...[]domain.TrendPoint) {
	w, h := innerSize()
	lo, hi := float64(DefaultFirstYear), float64(DefaultLastYear)
	if len(c.years) > 0 {
		lo, hi = float64(c.years[0]), float64(c.years[len(c.years)-1])
	}
	c.X = scale.NewLinear(lo, hi, 0, w)

	var yMax float64
	for _, pts := range sets {
		for _, p := range pts {
			yMax = math.Max(yMax, p.Percentage)
		}
	}
	if yMax == 0 {
		yMax = DefaultMaxPct
	}
	c.Y = scale.NewLinear(0, yMax, h, 0)
}

// Years lists the years the pointer can snap to, ascending.
func (c *TrendChart) Years() []int { return c.years }

// Empty reports whether a filtered chart has nothing to draw.
func (c *TrendChart) Empty() bool {
	return c.Variant == VariantFiltered && len(c.filtered) == 0
}

// Color returns the series color of a state, or "" if it is not drawn.
func (c *TrendChart) Color(id domain.StateID) string { return c.colors[id] }

// Path returns the SVG path of a series in plot coordinates.
func (c *TrendChart) Path(s Series) string {
	var b strings.Builder
	for i, p := range s.Points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(coord(c.X.Map(float64(p.Year))))
		b.WriteByte(',')
		b.WriteString(coord(c.Y.Map(p.Percentage)))
	}
	return b.String()
}

// XTicks returns whole-year ticks along the x axis.
func (c *TrendChart) XTicks() []Tick {
	var out []Tick
	for _, v := range c.X.Ticks(10) {
		if v != math.Trunc(v) {
			continue
		}
		out = append(out, Tick{Pos: c.X.Map(v), Label: strconv.Itoa(int(v))})
	}
	return out
}

// YTicks returns the percentage ticks along the y axis.
func (c *TrendChart) YTicks() []Tick {
	vals := c.Y.Ticks(10)
	out := make([]Tick, 0, len(vals))
	for _, v := range vals {
		out = append(out, Tick{Pos: c.Y.Map(v), Label: Num(math.Round(v*1e6) / 1e6)})
	}
	return out
}

// Pointer maps a pointer at canvas x to the nearest year and builds the
// tooltip. It reports false when the pointer leaves or nothing can be shown.
func (c *TrendChart) Pointer(p Pointer) (TrendHover, bool) {
	if p.Kind == PointerLeave {
		return TrendHover{}, false
	}
	x := c.X.Invert(p.X - TrendMargin.Left)
	year, ok := scale.NearestYear(c.years, x)
	if !ok {
		return TrendHover{}, false
	}
	var t *Tooltip
	if c.Variant == VariantFiltered {
		t, ok = c.filteredTooltip(year, p.PageX, p.PageY)
	} else {
		t, ok = c.nationalTooltip(year, p.PageX, p.PageY)
	}
	if !ok {
		return TrendHover{}, false
	}
	return TrendHover{Year: year, X: TrendMargin.Left + c.X.Map(float64(year)), Tooltip: t}, true
}

func (c *TrendChart) nationalTooltip(year int, pageX, pageY float64) (*Tooltip, bool) {
	t := &Tooltip{X: pageX + 15, Y: pageY - 28}
	t.bold("Year: " + strconv.Itoa(year))
	if nat, ok := domain.PointFor(c.national, year); ok {
		t.block("National", scale.NationalColor)
		t.colored("Total: "+Thousands(nat.TotalAccidents), scale.NationalColor)
		t.colored("Alcohol: "+Thousands(nat.AlcoholAccidents), scale.NationalColor)
		t.colored("Percentage: "+Num(nat.Percentage)+"%", scale.NationalColor)
	}
	for _, s := range c.states {
		pt, ok := s.PointFor(year)
		if !ok {
			continue
		}
		t.Lines = append(t.Lines, Line{Text: s.StateName + ": " + Num(pt.Percentage) + "%", Color: c.colors[s.StateID], Gap: true})
	}
	return t, true
}

func (c *TrendChart) filteredTooltip(year int, pageX, pageY float64) (*Tooltip, bool) {
	pt, ok := domain.PointFor(c.filtered, year)
	if !ok {
		return nil, false
	}
	t := &Tooltip{X: pageX + 10, Y: pageY - 10}
	t.bold(c.name + " (" + strconv.Itoa(year) + ")")
	t.bold("Filtered Group")
	t.add("Total: " + Thousands(pt.TotalAccidents))
	t.add("Alcohol: " + Thousands(pt.AlcoholAccidents))
	t.add("Share: " + Num(pt.Percentage) + "%")
	if nat, ok := domain.PointFor(c.national, year); ok {
		t.block("National", scale.NationalColor)
		t.colored("Share: "+Num(nat.Percentage)+"%", scale.NationalColor)
	}
	return t, true
}

type trendLine struct {
	Path   string
	Color  string
	Width  float64
	Dashed bool
	Label  string
	LabelX float64
	LabelY float64
}

// SVG renders the chart. A filtered chart with no data renders nothing.
func (c *TrendChart) SVG() (template.HTML, error) {
	if c.Empty() {
		return "", nil
	}
	w, h := innerSize()
	lines := make([]trendLine, 0, len(c.Series))
	for _, s := range c.Series {
		l := trendLine{Path: c.Path(s), Color: s.Color, Width: s.Width, Dashed: s.Dashed}
		if s.Label != "" && len(s.Points) > 0 {
			last := s.Points[len(s.Points)-1]
			l.Label = s.Label
			l.LabelX = c.X.Map(float64(last.Year)) + 6
			l.LabelY = c.Y.Map(last.Percentage)
		}
		lines = append(lines, l)
	}
	return execSVG("trend", struct {
		Width, Height int
		Margin        Margin
		InnerW        float64
		InnerH        float64
		XTicks        []Tick
		YTicks        []Tick
		YLabel        string
		Lines         []trendLine
	}{TrendWidth, TrendHeight, TrendMargin, w, h, c.XTicks(), c.YTicks(), c.YLabel, lines})
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
