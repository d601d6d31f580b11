package page

import (
	"slices"

	"github.com/farsdash/farsdash/engine/domain"
)

// Status tracks one independently loaded section of a page.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// National is the dashboard controller: year and metric selection, the
// heatmap, the national risk profile and the comparison lines.
type National struct {
	Years  []int
	Year   int
	Metric domain.Metric

	Trend         []domain.TrendPoint
	Heatmap       []domain.HeatmapEntry
	HeatmapStatus Status
	Risk          *domain.RiskProfile

	// Selected and Series stay parallel, in the order states were added.
	Selected []domain.StateID
	Series   []domain.StateTrend
	Loading  []domain.StateID
	Alerts   []string

	started      bool
	heatmapToken Token
	riskToken    Token
	next         Token
}

// NewNational returns a dashboard over years, starting at year.
func NewNational(years []int, year int) National {
	return National{Years: years, Year: year, Metric: domain.MetricPercentage}
}

func (n *National) token() Token {
	n.next++
	return n.next
}

// reload starts the heatmap and risk fetches for the current year.
func (n *National) reload() []Command {
	n.Heatmap = nil
	n.HeatmapStatus = StatusLoading
	n.heatmapToken = n.token()
	n.riskToken = n.token()
	return []Command{
		FetchHeatmap{Year: n.Year, Token: n.heatmapToken},
		FetchNationalRisk{Year: n.Year, Token: n.riskToken},
	}
}

// Reduce applies ev and returns the next state and the fetches to start.
func (n National) Reduce(ev Event) (National, []Command) {
	if n.Stale(ev) {
		return n, nil
	}
	switch e := ev.(type) {
	case Init:
		if n.started {
			return n, nil
		}
		n.started = true
		return n, append([]Command{FetchNationalTrend{}}, n.reload()...)

	case YearSelected:
		if e.Year == n.Year || (len(n.Years) > 0 && !slices.Contains(n.Years, e.Year)) {
			return n, nil
		}
		n.Year = e.Year
		return n, n.reload()

	case MetricSelected:
		n.Metric = e.Metric

	case StateToggled:
		id := e.Entry.StateID
		if i := slices.Index(n.Selected, id); i >= 0 {
			n.Selected = without(n.Selected, i)
			n.Series = without(n.Series, i)
			return n, nil
		}
		if slices.Contains(n.Loading, id) {
			return n, nil
		}
		n.Loading = append(slices.Clip(n.Loading), id)
		name := e.Entry.StateName
		if name == "" {
			name = domain.StateName(id)
		}
		return n, []Command{FetchStateTrend{ID: id, StateName: name}}

	case StateTrendLoaded:
		id := e.Trend.StateID
		n.Loading = without(n.Loading, slices.Index(n.Loading, id))
		n.Selected = append(slices.Clip(n.Selected), id)
		n.Series = append(slices.Clip(n.Series), e.Trend)

	case StateTrendFailed:
		n.Loading = without(n.Loading, slices.Index(n.Loading, e.ID))
		name := e.Name
		if name == "" {
			name = domain.StateName(e.ID)
		}
		n.Alerts = append(slices.Clip(n.Alerts), "Failed to load data for "+name)

	case AlertDismissed:
		if len(n.Alerts) > 0 {
			n.Alerts = without(n.Alerts, 0)
		}

	case NationalTrendLoaded:
		n.Trend = e.Data
	case NationalTrendFailed:
		n.Trend = nil

	case HeatmapLoaded:
		n.Heatmap = e.Entries
		if n.Heatmap == nil {
			n.Heatmap = []domain.HeatmapEntry{}
		}
		n.HeatmapStatus = StatusLoaded
	case HeatmapFailed:
		n.Heatmap = nil
		n.HeatmapStatus = StatusFailed

	case NationalRiskLoaded:
		n.Risk = e.Profile
	case NationalRiskFailed:
		n.Risk = nil
	}
	return n, nil
}

// Stale reports whether ev is a completion for a request that has since been
// superseded.
func (n National) Stale(ev Event) bool {
	switch e := ev.(type) {
	case HeatmapLoaded:
		return e.Token != n.heatmapToken
	case HeatmapFailed:
		return e.Token != n.heatmapToken
	case NationalRiskLoaded:
		return e.Token != n.riskToken
	case NationalRiskFailed:
		return e.Token != n.riskToken
	case StateTrendLoaded:
		return !slices.Contains(n.Loading, e.Trend.StateID)
	case StateTrendFailed:
		return !slices.Contains(n.Loading, e.ID)
	}
	return false
}

// NationalAvg is the national average of the loaded heatmap year.
func (n National) NationalAvg() (float64, bool) {
	if len(n.Heatmap) == 0 {
		return 0, false
	}
	return n.Heatmap[0].NationalAvg, true
}

// LoadingNames names the states whose comparison lines are being fetched.
func (n National) LoadingNames() []string {
	names := make([]string, 0, len(n.Loading))
	for _, id := range n.Loading {
		name := ""
		for _, e := range n.Heatmap {
			if e.StateID == id {
				name = e.StateName
				break
			}
		}
		if name == "" {
			name = domain.StateName(id)
		}
		names = append(names, name)
	}
	return names
}

// without returns s minus index i as a fresh slice, or nil when nothing
// remains. A negative i returns s unchanged.
func without[T any](s []T, i int) []T {
	if i < 0 || i >= len(s) {
		return s
	}
	if len(s) == 1 {
		return nil
	}
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
