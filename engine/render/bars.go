package render

import (
	"html/template"
	"math"
	"strconv"

	"github.com/farsdash/farsdash/engine/domain"
)

// Monthly bar chart geometry.
const (
	BarMaxHeight = 140.0
	BarMinHeight = 2.0
	barWidth     = 28.0
	barGap       = 8.0
	barChartTop  = 20.0
)

// Bar is one month.
type Bar struct {
	Month  string
	Short  string
	Value  int
	Height float64
	// ShowValue is false for empty months, which get no count label.
	ShowValue bool
}

// MonthlyBars is the fatalities-by-month chart of a risk profile.
type MonthlyBars struct {
	Title string
	Bars  []Bar
}

// NewMonthlyBars scales twelve bars January to December against the largest
// month, which is at least 1. Missing months count as zero.
func NewMonthlyBars(byMonth map[string]int, year int, filtered bool) MonthlyBars {
	title := "Fatalities by Month (" + strconv.Itoa(year) + ")"
	if filtered {
		title = "Filtered " + title
	}
	hi := 1
	for _, m := range domain.Months {
		hi = max(hi, byMonth[m])
	}
	bars := make([]Bar, 0, len(domain.Months))
	for i, m := range domain.Months {
		v := byMonth[m]
		bars = append(bars, Bar{
			Month:     m,
			Short:     domain.MonthShort[i],
			Value:     v,
			Height:    math.Max(BarMinHeight, float64(v)/float64(hi)*BarMaxHeight),
			ShowValue: v > 0,
		})
	}
	return MonthlyBars{Title: title, Bars: bars}
}

type svgBar struct {
	Bar
	X, Y   float64
	LabelX float64
}

// SVG renders the bars with short month labels below the baseline.
func (m MonthlyBars) SVG() (template.HTML, error) {
	base := barChartTop + BarMaxHeight
	bars := make([]svgBar, 0, len(m.Bars))
	for i, b := range m.Bars {
		x := barGap + float64(i)*(barWidth+barGap)
		bars = append(bars, svgBar{Bar: b, X: x, Y: base - b.Height, LabelX: x + barWidth/2})
	}
	return execSVG("bars", struct {
		Width    float64
		Height   float64
		BarWidth float64
		Base     float64
		Bars     []svgBar
	}{barGap + float64(len(m.Bars))*(barWidth+barGap), base + 24, barWidth, base, bars})
}
