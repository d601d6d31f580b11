// Package page holds the dashboard's page controllers as reducers.
//
// A controller is a plain value. Reduce applies one event and returns the
// next value plus the fetches the transition asks for. Fetch results come back
// as events carrying the token of the request that produced them; results with
// a token the controller no longer expects are dropped.
package page

import (
	"context"

	"github.com/farsdash/farsdash/engine/domain"
)

// Backend is the data source commands run against.
type Backend interface {
	NationalTrend(ctx context.Context) ([]domain.TrendPoint, error)
	StateHeatmap(ctx context.Context, year int) ([]domain.HeatmapEntry, error)
	NationalRiskProfile(ctx context.Context, year int) (*domain.RiskProfile, error)
	StateTrend(ctx context.Context, id domain.StateID) (domain.StateTrend, error)
	StateTrendFiltered(ctx context.Context, id domain.StateID, f domain.FilterCriteria) ([]domain.TrendPoint, error)
	StateRiskProfile(ctx context.Context, id domain.StateID, year int, f domain.FilterCriteria) (*domain.RiskProfile, error)
}

// Command is a fetch requested by a transition. Run performs it and returns
// the completion event; it never returns nil.
type Command interface {
	Name() string
	Run(ctx context.Context, b Backend) Event
}

// Token identifies one in-flight request of a controller.
type Token uint64

type FetchNationalTrend struct{}

func (FetchNationalTrend) Name() string { return "national_trend" }

func (FetchNationalTrend) Run(ctx context.Context, b Backend) Event {
	data, err := b.NationalTrend(ctx)
	if err != nil {
		return NationalTrendFailed{Err: err}
	}
	return NationalTrendLoaded{Data: data}
}

type FetchHeatmap struct {
	Year  int
	Token Token
}

func (FetchHeatmap) Name() string { return "state_heatmap" }

func (c FetchHeatmap) Run(ctx context.Context, b Backend) Event {
	entries, err := b.StateHeatmap(ctx, c.Year)
	if err != nil {
		return HeatmapFailed{Token: c.Token, Err: err}
	}
	return HeatmapLoaded{Token: c.Token, Entries: entries}
}

type FetchNationalRisk struct {
	Year  int
	Token Token
}

func (FetchNationalRisk) Name() string { return "national_risk_profile" }

func (c FetchNationalRisk) Run(ctx context.Context, b Backend) Event {
	p, err := b.NationalRiskProfile(ctx, c.Year)
	if err != nil {
		return NationalRiskFailed{Token: c.Token, Err: err}
	}
	return NationalRiskLoaded{Token: c.Token, Profile: p}
}

// FetchStateTrend loads one state's full series. StateName is used in the
// failure alert.
type FetchStateTrend struct {
	ID        domain.StateID
	StateName string
}

func (FetchStateTrend) Name() string { return "state_trend" }

func (c FetchStateTrend) Run(ctx context.Context, b Backend) Event {
	st, err := b.StateTrend(ctx, c.ID)
	if err != nil {
		return StateTrendFailed{ID: c.ID, Name: c.StateName, Err: err}
	}
	if st.StateID == 0 {
		st.StateID = c.ID
	}
	return StateTrendLoaded{Trend: st}
}

// FetchStateRisk loads a state's risk profile. Filtered distinguishes the
// applied-filter request from the baseline one.
type FetchStateRisk struct {
	ID       domain.StateID
	Year     int
	Filter   domain.FilterCriteria
	Filtered bool
	Token    Token
}

func (FetchStateRisk) Name() string { return "state_risk_profile" }

func (c FetchStateRisk) Run(ctx context.Context, b Backend) Event {
	p, err := b.StateRiskProfile(ctx, c.ID, c.Year, c.Filter)
	if err != nil {
		return StateRiskFailed{ID: c.ID, Token: c.Token, Filtered: c.Filtered, Err: err}
	}
	return StateRiskLoaded{ID: c.ID, Token: c.Token, Filtered: c.Filtered, Profile: p}
}

type FetchFilteredTrend struct {
	ID     domain.StateID
	Filter domain.FilterCriteria
	Token  Token
}

func (FetchFilteredTrend) Name() string { return "state_trend_filtered" }

func (c FetchFilteredTrend) Run(ctx context.Context, b Backend) Event {
	data, err := b.StateTrendFiltered(ctx, c.ID, c.Filter)
	if err != nil {
		return FilteredTrendFailed{ID: c.ID, Token: c.Token, Err: err}
	}
	return FilteredTrendLoaded{ID: c.ID, Token: c.Token, Data: data}
}
