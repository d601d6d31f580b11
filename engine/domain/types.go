// Package domain defines the view-model records exchanged with the FARS
// aggregation backend, the state and age-band tables, and input validation.
// Every record here is transient: it is fetched, rendered, and replaced
// wholesale when its dependencies change.
package domain

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// StateID is a FIPS-style state code (1–56).
type StateID int

// UnmarshalJSON accepts both numeric and quoted ids; the state trend endpoint
// echoes the path parameter back as a string.
func (id *StateID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("state id %q: %w", string(b), err)
	}
	*id = StateID(n)
	return nil
}

func (id StateID) String() string { return strconv.Itoa(int(id)) }

// TrendPoint is one year of a national, state, or filtered-group series.
type TrendPoint struct {
	Year             int     `json:"YEAR"`
	TotalAccidents   int     `json:"total_accidents"`
	AlcoholAccidents int     `json:"alcohol_accidents"`
	Percentage       float64 `json:"percentage"`
}

// StateTrend is the full yearly series for one state.
type StateTrend struct {
	StateID   StateID      `json:"state"`
	StateName string       `json:"state_name"`
	Data      []TrendPoint `json:"data"`
}

// PointFor returns the point for year, if present.
func (s StateTrend) PointFor(year int) (TrendPoint, bool) {
	return PointFor(s.Data, year)
}

// Totals sums alcohol and total accidents over every year of the series.
func (s StateTrend) Totals() (alcohol, total int) {
	for _, p := range s.Data {
		alcohol += p.AlcoholAccidents
		total += p.TotalAccidents
	}
	return alcohol, total
}

// YearsDesc returns the distinct years of the series, latest first.
func (s StateTrend) YearsDesc() []int {
	seen := make(map[int]bool, len(s.Data))
	var years []int
	for _, p := range s.Data {
		if !seen[p.Year] {
			seen[p.Year] = true
			years = append(years, p.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// LatestYear returns the maximum year in the series.
func (s StateTrend) LatestYear() (int, bool) {
	years := s.YearsDesc()
	if len(years) == 0 {
		return 0, false
	}
	return years[0], true
}

// PointFor finds the point for year in a series.
func PointFor(points []TrendPoint, year int) (TrendPoint, bool) {
	for _, p := range points {
		if p.Year == year {
			return p, true
		}
	}
	return TrendPoint{}, false
}

// HeatmapEntry is one state's aggregate for a single year.
type HeatmapEntry struct {
	StateID          StateID `json:"state"`
	StateName        string  `json:"state_name"`
	TotalAccidents   int     `json:"total_accidents"`
	AlcoholAccidents int     `json:"alcohol_accidents"`
	Percentage       float64 `json:"percentage"`
	NationalAvg      float64 `json:"national_avg"`
	Difference       float64 `json:"difference"`
}

// Metric selects which heatmap value drives the choropleth color.
type Metric string

const (
	MetricPercentage Metric = "percentage"
	MetricDifference Metric = "difference"
)

// ParseMetric parses a metric selector, defaulting to percentage for "".
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricPercentage:
		return MetricPercentage, nil
	case MetricDifference:
		return MetricDifference, nil
	}
	return "", NewValidationError("metric", s, ErrInvalidMetric)
}

// Value extracts the metric's value from an entry.
func (m Metric) Value(e HeatmapEntry) float64 {
	if m == MetricDifference {
		return e.Difference
	}
	return e.Percentage
}

// SexBreakdown counts fatalities by sex.
type SexBreakdown struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

// TimeOfDay counts fatalities by night (22:00–05:59) and day.
type TimeOfDay struct {
	Night int `json:"night"`
	Day   int `json:"day"`
}

// AppliedFilters echoes the filters the backend used for a filtered query.
type AppliedFilters struct {
	MinAge *int `json:"min_age"`
	MaxAge *int `json:"max_age"`
	Sex    *int `json:"sex"`
}

// RiskProfile is the demographic breakdown of alcohol-impaired fatalities for
// one year. The breakdowns are independent and do not sum to the total.
type RiskProfile struct {
	Year                   int             `json:"year"`
	StateID                *StateID        `json:"state_id,omitempty"`
	StateName              string          `json:"state_name,omitempty"`
	TotalAlcoholFatalities int             `json:"total_alcohol_fatalities"`
	BySex                  SexBreakdown    `json:"by_sex"`
	ByAgeGroup             map[string]int  `json:"by_age_group"`
	ByTimeOfDay            TimeOfDay       `json:"by_time_of_day"`
	ByMonth                map[string]int  `json:"by_month"`
	AppliedFilters         *AppliedFilters `json:"applied_filters,omitempty"`
}

// Sex is the optional sex filter. The backend encodes it as 1 (male) / 2 (female).
type Sex int

const (
	SexAny Sex = iota
	SexMale
	SexFemale
)

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	}
	return ""
}

// ParseSex accepts "", "1", "2", "male" or "female".
func ParseSex(s string) (Sex, error) {
	switch s {
	case "":
		return SexAny, nil
	case "1", "male":
		return SexMale, nil
	case "2", "female":
		return SexFemale, nil
	}
	return SexAny, NewValidationError("sex", s, ErrInvalidFilter)
}

// FilterCriteria is the user-owned demographic filter on the detail page.
type FilterCriteria struct {
	MinAge *int
	MaxAge *int
	Sex    Sex
}

// IsEmpty reports whether no filter field is set.
func (f FilterCriteria) IsEmpty() bool {
	return f.MinAge == nil && f.MaxAge == nil && f.Sex == SexAny
}

// Query encodes the set fields as min_age / max_age / sex query parameters.
func (f FilterCriteria) Query() url.Values {
	q := url.Values{}
	if f.MinAge != nil {
		q.Set("min_age", strconv.Itoa(*f.MinAge))
	}
	if f.MaxAge != nil {
		q.Set("max_age", strconv.Itoa(*f.MaxAge))
	}
	if f.Sex != SexAny {
		q.Set("sex", strconv.Itoa(int(f.Sex)))
	}
	return q
}

// Equal compares two criteria by value.
func (f FilterCriteria) Equal(o FilterCriteria) bool {
	return intPtrEqual(f.MinAge, o.MinAge) && intPtrEqual(f.MaxAge, o.MaxAge) && f.Sex == o.Sex
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Int returns a pointer to v, for building criteria.
func Int(v int) *int { return &v }
