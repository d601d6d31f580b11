package page

import (
	"slices"

	"github.com/farsdash/farsdash/engine/domain"
)

// Phase is the lifecycle of the detail page.
type Phase int

const (
	// PhaseLoading waits for the state and national series.
	PhaseLoading Phase = iota
	// PhaseReady shows the page for the selected year.
	PhaseReady
	// PhaseFailed means the state series could not be loaded.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Detail is the per-state page controller. The baseline risk profile follows
// the selected year; the filtered risk profile and filtered trend follow the
// applied filters.
type Detail struct {
	StateID domain.StateID
	Phase   Phase
	Error   string

	Trend    domain.StateTrend
	National []domain.TrendPoint
	Year     int

	Risk       *domain.RiskProfile
	RiskStatus Status

	// Draft is what the filter form holds; Applied is what the filtered
	// sections were fetched with.
	Draft         domain.FilterCriteria
	Applied       domain.FilterCriteria
	FiltersActive bool
	FilterError   string

	FilteredRisk        *domain.RiskProfile
	FilteredRiskStatus  Status
	FilteredTrend       []domain.TrendPoint
	FilteredTrendStatus Status

	started      bool
	trendDone    bool
	nationalDone bool
	riskToken    Token
	fRiskToken   Token
	fTrendToken  Token
	next         Token
}

// NewDetail returns an unstarted page for id.
func NewDetail(id domain.StateID) Detail {
	return Detail{StateID: id}
}

func (d *Detail) token() Token {
	d.next++
	return d.next
}

// Name is the state's display name.
func (d Detail) Name() string {
	if d.Trend.StateName != "" {
		return d.Trend.StateName
	}
	return domain.StateName(d.StateID)
}

func (d *Detail) fetchRisk() Command {
	d.RiskStatus = StatusLoading
	d.riskToken = d.token()
	return FetchStateRisk{ID: d.StateID, Year: d.Year, Token: d.riskToken}
}

func (d *Detail) fetchFilteredRisk() Command {
	d.FilteredRiskStatus = StatusLoading
	d.fRiskToken = d.token()
	return FetchStateRisk{ID: d.StateID, Year: d.Year, Filter: d.Applied, Filtered: true, Token: d.fRiskToken}
}

func (d *Detail) fetchFilteredTrend() Command {
	d.FilteredTrendStatus = StatusLoading
	d.fTrendToken = d.token()
	return FetchFilteredTrend{ID: d.StateID, Filter: d.Applied, Token: d.fTrendToken}
}

func (d *Detail) resetFiltered() {
	d.Applied = domain.FilterCriteria{}
	d.FiltersActive = false
	d.FilteredRisk, d.FilteredRiskStatus, d.fRiskToken = nil, StatusIdle, 0
	d.FilteredTrend, d.FilteredTrendStatus, d.fTrendToken = nil, StatusIdle, 0
}

// maybeReady leaves PhaseLoading once both series are in, selecting the
// state's latest year.
func (d *Detail) maybeReady() []Command {
	if d.Phase != PhaseLoading || !d.trendDone || !d.nationalDone {
		return nil
	}
	latest, ok := d.Trend.LatestYear()
	if !ok {
		d.Phase = PhaseFailed
		d.Error = "No data available for " + d.Name()
		return nil
	}
	d.Phase = PhaseReady
	d.Year = latest
	return []Command{d.fetchRisk()}
}

// Reduce applies ev and returns the next state and the fetches to start.
func (d Detail) Reduce(ev Event) (Detail, []Command) {
	if d.Stale(ev) {
		return d, nil
	}
	switch e := ev.(type) {
	case Init:
		if d.started && e.StateID == d.StateID {
			return d, nil
		}
		// Tokens keep counting across visits so a late answer from an
		// earlier visit to the same state never matches.
		next := d.next
		d = NewDetail(e.StateID)
		d.started, d.next = true, next
		return d, []Command{
			FetchStateTrend{ID: d.StateID, StateName: domain.StateName(d.StateID)},
			FetchNationalTrend{},
		}

	case StateTrendLoaded:
		d.Trend = e.Trend
		d.trendDone = true
		return d, d.maybeReady()

	case StateTrendFailed:
		d.trendDone = true
		d.Phase = PhaseFailed
		d.Error = "Failed to load data for " + d.Name()

	case NationalTrendLoaded:
		d.National = e.Data
		d.nationalDone = true
		return d, d.maybeReady()

	case NationalTrendFailed:
		d.nationalDone = true
		return d, d.maybeReady()

	case YearSelected:
		if d.Phase != PhaseReady || e.Year == d.Year || !slices.Contains(d.Trend.YearsDesc(), e.Year) {
			return d, nil
		}
		d.Year = e.Year
		cmds := []Command{d.fetchRisk()}
		if d.FiltersActive {
			cmds = append(cmds, d.fetchFilteredRisk())
		}
		return d, cmds

	case FilterEdited:
		d.Draft = e.Criteria
		d.FilterError = ""

	case FiltersApplied:
		if d.Phase != PhaseReady {
			return d, nil
		}
		if err := domain.ValidateFilter(d.Draft); err != nil {
			d.FilterError = err.Error()
			return d, nil
		}
		d.FilterError = ""
		if d.Draft.IsEmpty() {
			d.resetFiltered()
			return d, nil
		}
		d.Applied = d.Draft
		d.FiltersActive = true
		return d, []Command{d.fetchFilteredRisk(), d.fetchFilteredTrend()}

	case FiltersCleared:
		d.Draft = domain.FilterCriteria{}
		d.FilterError = ""
		d.resetFiltered()

	case StateRiskLoaded:
		if e.Filtered {
			d.FilteredRisk, d.FilteredRiskStatus = e.Profile, StatusLoaded
		} else {
			d.Risk, d.RiskStatus = e.Profile, StatusLoaded
		}
	case StateRiskFailed:
		if e.Filtered {
			d.FilteredRisk, d.FilteredRiskStatus = nil, StatusFailed
		} else {
			d.Risk, d.RiskStatus = nil, StatusFailed
		}

	case FilteredTrendLoaded:
		d.FilteredTrend, d.FilteredTrendStatus = e.Data, StatusLoaded
	case FilteredTrendFailed:
		d.FilteredTrend, d.FilteredTrendStatus = nil, StatusFailed
	}
	return d, nil
}

// Stale reports whether ev is a completion this page no longer waits for.
func (d Detail) Stale(ev Event) bool {
	switch e := ev.(type) {
	case StateTrendLoaded:
		return e.Trend.StateID != d.StateID || d.trendDone
	case StateTrendFailed:
		return e.ID != d.StateID || d.trendDone
	case NationalTrendLoaded, NationalTrendFailed:
		return d.nationalDone
	case StateRiskLoaded:
		return e.ID != d.StateID || !d.expects(e.Filtered, e.Token)
	case StateRiskFailed:
		return e.ID != d.StateID || !d.expects(e.Filtered, e.Token)
	case FilteredTrendLoaded:
		return e.ID != d.StateID || e.Token == 0 || e.Token != d.fTrendToken
	case FilteredTrendFailed:
		return e.ID != d.StateID || e.Token == 0 || e.Token != d.fTrendToken
	}
	return false
}

func (d Detail) expects(filtered bool, t Token) bool {
	if t == 0 {
		return false
	}
	if filtered {
		return t == d.fRiskToken
	}
	return t == d.riskToken
}

// PanelRisk is the profile the risk panel and monthly chart show: the
// filtered one while filters are applied, otherwise the baseline.
func (d Detail) PanelRisk() (*domain.RiskProfile, Status) {
	if d.FiltersActive {
		return d.FilteredRisk, d.FilteredRiskStatus
	}
	return d.Risk, d.RiskStatus
}

// RiskLabel describes the panel's source.
func (d Detail) RiskLabel() string {
	if d.FiltersActive {
		return "Filtered"
	}
	return "No filters"
}

// Summary holds the detail page's headline numbers.
type Summary struct {
	AllYearsAlcohol int
	AllYearsTotal   int
	FirstYear       int
	LastYear        int
	Selected        domain.TrendPoint
	HasSelected     bool
}

// Summary totals the state series and picks the selected year's point.
func (d Detail) Summary() Summary {
	s := Summary{}
	s.AllYearsAlcohol, s.AllYearsTotal = d.Trend.Totals()
	if years := d.Trend.YearsDesc(); len(years) > 0 {
		s.LastYear, s.FirstYear = years[0], years[len(years)-1]
	}
	s.Selected, s.HasSelected = d.Trend.PointFor(d.Year)
	return s
}

// YearOptions lists the state's years, latest first.
func (d Detail) YearOptions() []int { return d.Trend.YearsDesc() }
