package render

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/geo"
	"github.com/farsdash/farsdash/engine/scale"
)

func square(id domain.StateID, name string, x0, y0, size float64) geo.Shape {
	ring := orb.Ring{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}
	mp := orb.MultiPolygon{{ring}}
	return geo.Shape{StateID: id, Name: name, Screen: mp, Bound: mp.Bound(), Path: geo.PathData(mp)}
}

func testShapes() []geo.Shape {
	return []geo.Shape{
		square(6, "California", 0, 0, 100),
		square(48, "Texas", 200, 0, 100),
		square(2, "Alaska", 400, 0, 100),
	}
}

func testEntries() []domain.HeatmapEntry {
	return []domain.HeatmapEntry{
		{StateID: 6, StateName: "California", TotalAccidents: 3847, AlcoholAccidents: 1180, Percentage: 30.7, NationalAvg: 31.4, Difference: -0.7},
		{StateID: 48, StateName: "Texas", TotalAccidents: 12345, AlcoholAccidents: 4321, Percentage: 35.0, NationalAvg: 31.4, Difference: 3.6},
	}
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "12,345", Thousands(12345))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "1,000,000", Thousands(1000000))
}

func TestHeatMapFillAndStroke(t *testing.T) {
	h := NewHeatMap(testShapes(), testEntries(), domain.MetricPercentage, []domain.StateID{48})

	assert.Equal(t, scale.NeutralFill, h.Fill(2), "no data renders neutral")
	assert.NotEqual(t, h.Fill(6), h.Fill(48))
	assert.Equal(t, StrokeSelected, h.BaseStroke(48))
	assert.Equal(t, StrokeDefault, h.BaseStroke(6))

	polys := h.Polygons()
	require.Len(t, polys, 3)
	assert.False(t, polys[2].HasData)
	assert.True(t, polys[1].HasData)
}

func TestColorMonotonicInMetric(t *testing.T) {
	entries := []domain.HeatmapEntry{
		{StateID: 1, Percentage: 10, Difference: -8},
		{StateID: 2, Percentage: 20, Difference: -1},
		{StateID: 3, Percentage: 25, Difference: 0},
		{StateID: 4, Percentage: 40, Difference: 6},
	}
	for _, m := range []domain.Metric{domain.MetricPercentage, domain.MetricDifference} {
		c := ColorScale(entries, m)
		for i := 1; i < len(entries); i++ {
			assert.GreaterOrEqual(t, c.T(m.Value(entries[i])), c.T(m.Value(entries[i-1])), "metric %s at %d", m, i)
		}
	}
	div := ColorScale(entries, domain.MetricDifference).(scale.Diverging)
	assert.Equal(t, 8.0, div.AbsMax)
}

func TestHeatMapPointer(t *testing.T) {
	h := NewHeatMap(testShapes(), testEntries(), domain.MetricPercentage, []domain.StateID{48})

	t.Run("hover with data", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerMove, X: 50, Y: 50, PageX: 300, PageY: 200})
		assert.Equal(t, domain.StateID(6), in.StateID)
		assert.Equal(t, 3.0, in.StrokeWidth)
		require.NotNil(t, in.Tooltip)
		assert.Equal(t, 310.0, in.Tooltip.X)
		assert.Equal(t, 210.0, in.Tooltip.Y)
		assert.Nil(t, in.Click)
		assert.Nil(t, in.Navigate)
	})

	t.Run("hover selected", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerMove, X: 250, Y: 50})
		assert.Equal(t, 6.0, in.StrokeWidth)
	})

	t.Run("hover without data", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerMove, X: 450, Y: 50})
		assert.Equal(t, domain.StateID(2), in.StateID)
		assert.Equal(t, 3.0, in.StrokeWidth)
		assert.Nil(t, in.Tooltip)
	})

	t.Run("click with data", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerClick, X: 250, Y: 50})
		require.NotNil(t, in.Click)
		assert.Equal(t, "Texas", in.Click.Entry.StateName)
	})

	t.Run("click without data", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerClick, X: 450, Y: 50})
		assert.Nil(t, in.Click)
	})

	t.Run("double click navigates for any state", func(t *testing.T) {
		in := h.Pointer(Pointer{Kind: PointerDblClick, X: 450, Y: 50})
		require.NotNil(t, in.Navigate)
		assert.Equal(t, domain.StateID(2), in.Navigate.StateID)
	})

	t.Run("outside and leave", func(t *testing.T) {
		assert.Equal(t, Interaction{}, h.Pointer(Pointer{Kind: PointerMove, X: 150, Y: 50}))
		assert.Equal(t, Interaction{}, h.Pointer(Pointer{Kind: PointerLeave, X: 50, Y: 50}))
	})
}

func lineTexts(tt *Tooltip) []string {
	out := make([]string, 0, len(tt.Lines))
	for _, l := range tt.Lines {
		out = append(out, l.Text)
	}
	return out
}

func TestHeatMapTooltips(t *testing.T) {
	entries := testEntries()

	pct := NewHeatMap(nil, entries, domain.MetricPercentage, nil)
	assert.Equal(t, []string{
		"Texas",
		"Alcohol crashes: 4,321",
		"Total crashes: 12,345",
		"Percentage: 35.0%",
	}, lineTexts(pct.Tooltip(entries[1], 0, 0)))

	diff := NewHeatMap(nil, entries, domain.MetricDifference, nil)
	above := diff.Tooltip(entries[1], 0, 0)
	assert.Equal(t, []string{
		"Texas",
		"State: 35.0%",
		"National avg: 31.4%",
		"Δ: +3.6%",
		"Above national average",
	}, lineTexts(above))
	assert.Equal(t, "red", above.Lines[3].Color)

	below := diff.Tooltip(entries[0], 0, 0)
	assert.Equal(t, "Δ: -0.7%", below.Lines[3].Text)
	assert.Equal(t, "blue", below.Lines[3].Color)
	assert.Equal(t, "Below national average", below.Lines[4].Text)
}

func TestHeatMapSVG(t *testing.T) {
	h := NewHeatMap(testShapes(), testEntries(), domain.MetricPercentage, []domain.StateID{48})
	out, err := h.SVG()
	require.NoError(t, err)
	s := string(out)
	assert.Equal(t, 3, strings.Count(s, "<path "))
	assert.Contains(t, s, `data-state="48"`)
	assert.Contains(t, s, `stroke-width="4"`)
	assert.Contains(t, s, `fill="#eee"`)
}

func TestParsePointerKind(t *testing.T) {
	k, err := ParsePointerKind("dblclick")
	require.NoError(t, err)
	assert.Equal(t, PointerDblClick, k)
	_, err = ParsePointerKind("wheel")
	assert.Error(t, err)
}

func pts(years ...int) []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(years))
	for i, y := range years {
		out = append(out, domain.TrendPoint{Year: y, TotalAccidents: 1000 + i, AlcoholAccidents: 300, Percentage: 30 + float64(i)})
	}
	return out
}

func TestTrendPointerNearestYear(t *testing.T) {
	c := NationalAndStates(pts(2010, 2015, 2020), nil)
	x := TrendMargin.Left + c.X.Map(2017)

	hover, ok := c.Pointer(Pointer{Kind: PointerMove, X: x})
	require.True(t, ok)
	assert.Equal(t, 2015, hover.Year)
	assert.InDelta(t, TrendMargin.Left+c.X.Map(2015), hover.X, 1e-9)
	assert.Equal(t, "Year: 2015", hover.Tooltip.Lines[0].Text)

	mid := TrendMargin.Left + c.X.Map(2017.5)
	hover, ok = c.Pointer(Pointer{Kind: PointerMove, X: mid})
	require.True(t, ok)
	assert.Equal(t, 2020, hover.Year, "ties go to the later year")

	_, ok = c.Pointer(Pointer{Kind: PointerLeave, X: x})
	assert.False(t, ok)
}

func TestTrendDomains(t *testing.T) {
	empty := NationalAndStates(nil, nil)
	assert.Equal(t, [2]float64{DefaultFirstYear, DefaultLastYear}, empty.X.Domain)
	assert.Equal(t, DefaultMaxPct, empty.Y.Domain[1])
	_, ok := empty.Pointer(Pointer{Kind: PointerMove, X: 100})
	assert.False(t, ok)

	states := []domain.StateTrend{
		{StateID: 48, StateName: "Texas", Data: []domain.TrendPoint{{Year: 2008, Percentage: 44}}},
	}
	c := NationalAndStates(pts(2010, 2011), states)
	assert.Equal(t, [2]float64{2008, 2011}, c.X.Domain)
	assert.Equal(t, 44.0, c.Y.Domain[1])
	assert.Len(t, c.Series, 2)
}

func TestTrendNationalTooltip(t *testing.T) {
	national := []domain.TrendPoint{{Year: 2020, TotalAccidents: 38824, AlcoholAccidents: 11654, Percentage: 30.02}}
	states := []domain.StateTrend{
		{StateID: 48, StateName: "Texas", Data: []domain.TrendPoint{{Year: 2020, Percentage: 36.1}}},
		{StateID: 6, StateName: "California", Data: []domain.TrendPoint{{Year: 2019, Percentage: 29}}},
	}
	c := NationalAndStates(national, states)
	hover, ok := c.Pointer(Pointer{Kind: PointerMove, X: TrendMargin.Left, PageX: 100, PageY: 100})
	require.True(t, ok)
	assert.Equal(t, 115.0, hover.Tooltip.X)
	assert.Equal(t, 72.0, hover.Tooltip.Y)

	// California has no 2020 point and is omitted.
	hover, ok = c.Pointer(Pointer{Kind: PointerMove, X: TrendMargin.Left + c.X.Map(2020)})
	require.True(t, ok)
	assert.Equal(t, []string{
		"Year: 2020",
		"National",
		"Total: 38,824",
		"Alcohol: 11,654",
		"Percentage: 30.02%",
		"Texas: 36.1%",
	}, lineTexts(hover.Tooltip))
	assert.Equal(t, c.Color(48), hover.Tooltip.Lines[5].Color)
}

func TestSeriesColorsStableAcrossOrder(t *testing.T) {
	a := NationalAndStates(nil, []domain.StateTrend{{StateID: 6, Data: pts(2010)}, {StateID: 48, Data: pts(2010)}})
	b := NationalAndStates(nil, []domain.StateTrend{{StateID: 48, Data: pts(2010)}, {StateID: 6, Data: pts(2010)}})
	assert.Equal(t, a.Color(6), b.Color(6))
	assert.Equal(t, a.Color(48), b.Color(48))
	assert.NotEqual(t, a.Color(6), a.Color(48))
}

func TestFilteredChart(t *testing.T) {
	filtered := []domain.TrendPoint{
		{Year: 2018, TotalAccidents: 120, AlcoholAccidents: 40, Percentage: 33.33},
		{Year: 2019, TotalAccidents: 110, AlcoholAccidents: 30, Percentage: 27.27},
	}
	national := pts(2010, 2011, 2012, 2013, 2014, 2015, 2016, 2017, 2018, 2019)
	c := Filtered("Ohio", filtered, national)

	assert.Equal(t, [2]float64{2018, 2019}, c.X.Domain)
	assert.Equal(t, []int{2018, 2019}, c.Years())

	hover, ok := c.Pointer(Pointer{Kind: PointerMove, X: TrendMargin.Left + c.X.Map(2019), PageX: 50, PageY: 50})
	require.True(t, ok)
	assert.Equal(t, 60.0, hover.Tooltip.X)
	assert.Equal(t, 40.0, hover.Tooltip.Y)
	assert.Equal(t, []string{
		"Ohio (2019)",
		"Filtered Group",
		"Total: 110",
		"Alcohol: 30",
		"Share: 27.27%",
		"National",
		"Share: 39%",
	}, lineTexts(hover.Tooltip))

	out, err := c.SVG()
	require.NoError(t, err)
	assert.Contains(t, string(out), `stroke-dasharray="4,2"`)
	assert.Contains(t, string(out), "Alcohol-Impaired (%)")

	empty := Filtered("Ohio", nil, national)
	assert.True(t, empty.Empty())
	out, err = empty.SVG()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTrendSVG(t *testing.T) {
	c := NationalAndStates(pts(2010, 2011, 2012), []domain.StateTrend{{StateID: 6, StateName: "California", Data: pts(2010, 2012)}})
	out, err := c.SVG()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, ">National</text>")
	assert.Contains(t, s, ">California</text>")
	assert.Contains(t, s, ">Year</text>")
	assert.Contains(t, s, "Alcohol-Impaired Fatalities (%)")
	assert.Contains(t, s, ">2011</text>")
}

func TestMonthlyBars(t *testing.T) {
	m := NewMonthlyBars(map[string]int{"January": 50, "July": 100}, 2021, false)
	require.Len(t, m.Bars, 12)
	assert.Equal(t, "Fatalities by Month (2021)", m.Title)
	assert.Equal(t, 70.0, m.Bars[0].Height)
	assert.Equal(t, BarMaxHeight, m.Bars[6].Height)
	assert.Equal(t, BarMinHeight, m.Bars[1].Height)
	assert.False(t, m.Bars[1].ShowValue)
	assert.Equal(t, "Jul", m.Bars[6].Short)

	f := NewMonthlyBars(nil, 2021, true)
	assert.Equal(t, "Filtered Fatalities by Month (2021)", f.Title)
	for _, b := range f.Bars {
		assert.Equal(t, BarMinHeight, b.Height)
	}

	out, err := m.SVG()
	require.NoError(t, err)
	assert.Equal(t, 12, strings.Count(string(out), "<rect "))
}

func TestRiskPanelSexShares(t *testing.T) {
	p := NewRiskPanel(domain.RiskProfile{
		Year:                   2020,
		TotalAlcoholFatalities: 1000,
		BySex:                  domain.SexBreakdown{Male: 700, Female: 300},
	}, "")
	assert.Equal(t, "Who Is at Most Risk in 2020?", p.Title)
	assert.Equal(t, "Male", p.Sex[0].Label)
	assert.Equal(t, 70.0, p.Sex[0].Width)
	assert.Equal(t, "70.0%", p.Sex[0].ShareText())
	assert.Equal(t, 30.0, p.Sex[1].Width)
	assert.Equal(t, "30.0%", p.Sex[1].ShareText())
	assert.Equal(t, "700 fatalities • 70.0%", p.Sex[0].TooltipText())
	assert.Equal(t, "Based on 1,000 fatalities", p.Footer())
}

func TestRiskPanelAgeGroups(t *testing.T) {
	p := NewRiskPanel(domain.RiskProfile{
		TotalAlcoholFatalities: 1000,
		ByAgeGroup: map[string]int{
			"16-20": 50, "21-24": 200, "25-34": 400, "35-44": 200, "45-54": 100, "55+": 30, "unknown": 20,
		},
	}, "Risk")
	require.Len(t, p.AgeGroups, TopAgeGroups)
	assert.Equal(t, []string{"25-34", "21-24", "35-44", "45-54"}, []string{
		p.AgeGroups[0].Label, p.AgeGroups[1].Label, p.AgeGroups[2].Label, p.AgeGroups[3].Label,
	})

	top := p.AgeGroups[0]
	assert.Equal(t, 100.0, top.Width, "width is relative to the largest group")
	assert.Equal(t, "40.0%", top.ShareText(), "label is relative to the total")
	assert.Equal(t, 50.0, p.AgeGroups[1].Width)
	assert.Equal(t, "20.0%", p.AgeGroups[1].ShareText())
}

func TestRiskPanelZeroTotal(t *testing.T) {
	p := NewRiskPanel(domain.RiskProfile{Year: 2022, ByAgeGroup: map[string]int{}}, "")
	for _, r := range append(p.Sex, p.TimeOfDay...) {
		assert.Equal(t, "0.0%", r.ShareText())
	}
	assert.Empty(t, p.AgeGroups)
}
