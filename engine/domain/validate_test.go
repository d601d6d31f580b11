package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStateID(t *testing.T) {
	id, err := ParseStateID("6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 6 {
		t.Fatalf("expected 6, got %d", id)
	}
	for _, bad := range []string{"", "abc", "0", "57", "-1"} {
		if _, err := ParseStateID(bad); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState for %q, got %v", bad, err)
		}
	}
}

func TestValidateYear(t *testing.T) {
	if err := ValidateYear(2015, 2010, 2023); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := ValidateYear(2009, 2010, 2023); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
	if err := ValidateYear(2024, 2010, 2023); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestValidateFilter(t *testing.T) {
	valid := []FilterCriteria{
		{},
		{MinAge: Int(21), MaxAge: Int(34), Sex: SexMale},
		{MinAge: Int(30), MaxAge: Int(30)},
		{Sex: SexFemale},
	}
	for _, f := range valid {
		if err := ValidateFilter(f); err != nil {
			t.Errorf("expected valid for %+v, got %v", f, err)
		}
	}

	invalid := []FilterCriteria{
		{MinAge: Int(40), MaxAge: Int(30)},
		{MinAge: Int(-1)},
		{MaxAge: Int(121)},
		{Sex: Sex(3)},
	}
	for _, f := range invalid {
		if err := ValidateFilter(f); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("expected ErrInvalidFilter for %+v, got %v", f, err)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("21", " 34 ", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *f.MinAge != 21 || *f.MaxAge != 34 || f.Sex != SexMale {
		t.Fatalf("unexpected criteria %+v", f)
	}

	f, err = ParseFilter("", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsEmpty() {
		t.Fatalf("expected empty criteria, got %+v", f)
	}

	if _, err := ParseFilter("x", "", ""); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	if _, err := ParseFilter("", "", "3"); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for sex, got %v", err)
	}
}

func TestFilterQuery(t *testing.T) {
	q := FilterCriteria{MinAge: Int(21), Sex: SexFemale}.Query()
	if got := q.Encode(); got != "min_age=21&sex=2" {
		t.Fatalf("expected min_age=21&sex=2, got %s", got)
	}
	if got := (FilterCriteria{}).Query().Encode(); got != "" {
		t.Fatalf("expected empty query, got %s", got)
	}
}

func TestFilterEqual(t *testing.T) {
	a := FilterCriteria{MinAge: Int(21), MaxAge: Int(34), Sex: SexMale}
	b := FilterCriteria{MinAge: Int(21), MaxAge: Int(34), Sex: SexMale}
	if !a.Equal(b) {
		t.Fatal("expected equal criteria")
	}
	if a.Equal(FilterCriteria{MinAge: Int(21), Sex: SexMale}) {
		t.Fatal("expected criteria to differ")
	}
}

func TestStateIDUnmarshal(t *testing.T) {
	var v struct {
		A StateID `json:"a"`
		B StateID `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"6","b":48}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != 6 || v.B != 48 {
		t.Fatalf("got %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a":"six"}`), &v); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestStateTrendHelpers(t *testing.T) {
	st := StateTrend{StateID: 6, StateName: "California", Data: []TrendPoint{
		{Year: 2021, TotalAccidents: 100, AlcoholAccidents: 30, Percentage: 30},
		{Year: 2023, TotalAccidents: 200, AlcoholAccidents: 50, Percentage: 25},
		{Year: 2022, TotalAccidents: 150, AlcoholAccidents: 45, Percentage: 30},
	}}
	alc, total := st.Totals()
	if alc != 125 || total != 450 {
		t.Fatalf("expected 125/450, got %d/%d", alc, total)
	}
	years := st.YearsDesc()
	if len(years) != 3 || years[0] != 2023 || years[2] != 2021 {
		t.Fatalf("unexpected years %v", years)
	}
	if y, ok := st.LatestYear(); !ok || y != 2023 {
		t.Fatalf("expected latest 2023, got %d", y)
	}
	if _, ok := st.PointFor(2019); ok {
		t.Fatal("expected no point for 2019")
	}
}

func TestParseMetric(t *testing.T) {
	if m, _ := ParseMetric(""); m != MetricPercentage {
		t.Fatalf("expected default percentage, got %s", m)
	}
	if _, err := ParseMetric("ratio"); !errors.Is(err, ErrInvalidMetric) {
		t.Fatalf("expected ErrInvalidMetric, got %v", err)
	}
	e := HeatmapEntry{Percentage: 31.4, Difference: -2.1}
	if MetricDifference.Value(e) != -2.1 || MetricPercentage.Value(e) != 31.4 {
		t.Fatal("metric value mismatch")
	}
}

func TestStateName(t *testing.T) {
	if StateName(6) != "California" {
		t.Fatalf("expected California, got %s", StateName(6))
	}
	if StateName(3) != "State 3" {
		t.Fatalf("expected fallback, got %s", StateName(3))
	}
	if AgeBandRank("25-34") != 2 || AgeBandRank("??") != len(AgeBands) {
		t.Fatal("unexpected age band rank")
	}
}
