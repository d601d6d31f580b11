package page

import "github.com/farsdash/farsdash/engine/domain"

// Event is an input to a controller: a user action or a fetch completion.
type Event interface {
	EventName() string
}

// Init starts a controller. For the detail page StateID names the state.
type Init struct {
	StateID domain.StateID
}

type YearSelected struct{ Year int }

type MetricSelected struct{ Metric domain.Metric }

// StateToggled adds or removes a state's comparison line.
type StateToggled struct{ Entry domain.HeatmapEntry }

type AlertDismissed struct{}

// FilterEdited replaces the detail page's draft filter.
type FilterEdited struct{ Criteria domain.FilterCriteria }

type FiltersApplied struct{}

type FiltersCleared struct{}

type NationalTrendLoaded struct{ Data []domain.TrendPoint }

type NationalTrendFailed struct{ Err error }

type HeatmapLoaded struct {
	Token   Token
	Entries []domain.HeatmapEntry
}

type HeatmapFailed struct {
	Token Token
	Err   error
}

type NationalRiskLoaded struct {
	Token   Token
	Profile *domain.RiskProfile
}

type NationalRiskFailed struct {
	Token Token
	Err   error
}

type StateTrendLoaded struct{ Trend domain.StateTrend }

type StateTrendFailed struct {
	ID   domain.StateID
	Name string
	Err  error
}

type StateRiskLoaded struct {
	ID       domain.StateID
	Token    Token
	Filtered bool
	Profile  *domain.RiskProfile
}

type StateRiskFailed struct {
	ID       domain.StateID
	Token    Token
	Filtered bool
	Err      error
}

type FilteredTrendLoaded struct {
	ID    domain.StateID
	Token Token
	Data  []domain.TrendPoint
}

type FilteredTrendFailed struct {
	ID    domain.StateID
	Token Token
	Err   error
}

func (Init) EventName() string                { return "init" }
func (YearSelected) EventName() string        { return "year_selected" }
func (MetricSelected) EventName() string      { return "metric_selected" }
func (StateToggled) EventName() string        { return "state_toggled" }
func (AlertDismissed) EventName() string      { return "alert_dismissed" }
func (FilterEdited) EventName() string        { return "filter_edited" }
func (FiltersApplied) EventName() string      { return "filters_applied" }
func (FiltersCleared) EventName() string      { return "filters_cleared" }
func (NationalTrendLoaded) EventName() string { return "national_trend_loaded" }
func (NationalTrendFailed) EventName() string { return "national_trend_failed" }
func (HeatmapLoaded) EventName() string       { return "heatmap_loaded" }
func (HeatmapFailed) EventName() string       { return "heatmap_failed" }
func (NationalRiskLoaded) EventName() string  { return "national_risk_loaded" }
func (NationalRiskFailed) EventName() string  { return "national_risk_failed" }
func (StateTrendLoaded) EventName() string    { return "state_trend_loaded" }
func (StateTrendFailed) EventName() string    { return "state_trend_failed" }
func (StateRiskLoaded) EventName() string     { return "state_risk_loaded" }
func (StateRiskFailed) EventName() string     { return "state_risk_failed" }
func (FilteredTrendLoaded) EventName() string { return "filtered_trend_loaded" }
func (FilteredTrendFailed) EventName() string { return "filtered_trend_failed" }

// Failure returns the error carried by a failed fetch completion, or nil.
func Failure(ev Event) error {
	switch e := ev.(type) {
	case NationalTrendFailed:
		return e.Err
	case HeatmapFailed:
		return e.Err
	case NationalRiskFailed:
		return e.Err
	case StateTrendFailed:
		return e.Err
	case StateRiskFailed:
		return e.Err
	case FilteredTrendFailed:
		return e.Err
	}
	return nil
}
