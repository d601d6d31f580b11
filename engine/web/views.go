package web

import (
	"html/template"
	"strconv"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/geo"
	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/engine/render"
)

// chart names the trend chart a pointer request is aimed at.
type chart string

const (
	chartNational chart = "national"
	chartState    chart = "state"
	chartFiltered chart = "filtered"
)

type legendItem struct {
	Name  string
	Color string
}

type nationalView struct {
	Version uint64
	Years   []int
	Year    int
	Metric  domain.Metric

	MapSVG      template.HTML
	MapStatus   string
	NationalAvg string

	TrendSVG template.HTML
	Legend   []legendItem
	Loading  []string
	Alerts   []string

	Risk *render.RiskPanel
}

type summaryCard struct {
	Label string
	Value string
	Note  string
}

type detailView struct {
	Version uint64
	StateID domain.StateID
	Name    string
	Phase   string
	Error   string

	Years []int
	Year  int
	Cards []summaryCard

	TrendSVG    template.HTML
	FilteredSVG template.HTML
	Filtered    string

	MinAge      string
	MaxAge      string
	Sex         string
	FilterError string
	Active      bool
	RiskLabel   string

	RiskStatus string
	Risk       *render.RiskPanel
	Bars       template.HTML
}

func heatMap(n page.National, shapes []geo.Shape) *render.HeatMap {
	return render.NewHeatMap(shapes, n.Heatmap, n.Metric, n.Selected)
}

func nationalChart(n page.National) *render.TrendChart {
	return render.NationalAndStates(n.Trend, n.Series)
}

func stateChart(d page.Detail) *render.TrendChart {
	return render.NationalAndStates(d.National, []domain.StateTrend{d.Trend})
}

func filteredChart(d page.Detail) *render.TrendChart {
	return render.Filtered(d.Name(), d.FilteredTrend, d.National)
}

func buildNational(n page.National, shapes []geo.Shape, version uint64) (nationalView, error) {
	v := nationalView{
		Version:   version,
		Years:     n.Years,
		Year:      n.Year,
		Metric:    n.Metric,
		MapStatus: n.HeatmapStatus.String(),
		Loading:   n.LoadingNames(),
		Alerts:    n.Alerts,
	}
	if n.HeatmapStatus == page.StatusLoaded {
		svg, err := heatMap(n, shapes).SVG()
		if err != nil {
			return v, err
		}
		v.MapSVG = svg
	}
	if avg, ok := n.NationalAvg(); ok {
		v.NationalAvg = "National avg: " + render.Pct1(avg) + "%"
	}

	tc := nationalChart(n)
	svg, err := tc.SVG()
	if err != nil {
		return v, err
	}
	v.TrendSVG = svg
	for _, s := range tc.Series {
		v.Legend = append(v.Legend, legendItem{Name: s.Label, Color: s.Color})
	}

	if n.Risk != nil {
		p := render.NewRiskPanel(*n.Risk, "")
		v.Risk = &p
	}
	return v, nil
}

func buildDetail(d page.Detail, version uint64) (detailView, error) {
	v := detailView{
		Version:     version,
		StateID:     d.StateID,
		Name:        d.Name(),
		Phase:       d.Phase.String(),
		Error:       d.Error,
		Years:       d.YearOptions(),
		Year:        d.Year,
		FilterError: d.FilterError,
		Active:      d.FiltersActive,
		RiskLabel:   d.RiskLabel(),
		Filtered:    d.FilteredTrendStatus.String(),
	}
	if d.Draft.MinAge != nil {
		v.MinAge = strconv.Itoa(*d.Draft.MinAge)
	}
	if d.Draft.MaxAge != nil {
		v.MaxAge = strconv.Itoa(*d.Draft.MaxAge)
	}
	if d.Draft.Sex != domain.SexAny {
		v.Sex = d.Draft.Sex.String()
	}
	if d.Phase != page.PhaseReady {
		return v, nil
	}

	risk, status := d.PanelRisk()
	v.RiskStatus = status.String()
	v.Cards = summaryCards(d.Summary(), risk, d.RiskLabel())

	svg, err := stateChart(d).SVG()
	if err != nil {
		return v, err
	}
	v.TrendSVG = svg
	if d.FilteredTrendStatus == page.StatusLoaded {
		if v.FilteredSVG, err = filteredChart(d).SVG(); err != nil {
			return v, err
		}
	}

	if risk != nil {
		title := ""
		if d.FiltersActive {
			title = "Filtered Risk Profile (" + strconv.Itoa(risk.Year) + ")"
		}
		p := render.NewRiskPanel(*risk, title)
		v.Risk = &p
		if v.Bars, err = render.NewMonthlyBars(risk.ByMonth, d.Year, d.FiltersActive).SVG(); err != nil {
			return v, err
		}
	}
	return v, nil
}

func summaryCards(s page.Summary, risk *domain.RiskProfile, label string) []summaryCard {
	span := ""
	if s.FirstYear > 0 {
		span = strconv.Itoa(s.FirstYear) + "–" + strconv.Itoa(s.LastYear)
	}
	cards := []summaryCard{
		{Label: "Alcohol-Impaired Fatalities (All Years)", Value: render.Thousands(s.AllYearsAlcohol), Note: span},
		{Label: "Total Fatalities (All Years)", Value: render.Thousands(s.AllYearsTotal), Note: span},
	}
	if s.HasSelected {
		y := strconv.Itoa(s.Selected.Year)
		cards = append(cards,
			summaryCard{Label: "Alcohol-Impaired (" + y + ")", Value: render.Thousands(s.Selected.AlcoholAccidents),
				Note: render.Pct1(s.Selected.Percentage) + "% of " + render.Thousands(s.Selected.TotalAccidents)},
		)
	}
	if risk != nil {
		cards = append(cards, summaryCard{Label: "Risk Profile Fatalities", Value: render.Thousands(risk.TotalAlcoholFatalities), Note: label})
	}
	return cards
}
