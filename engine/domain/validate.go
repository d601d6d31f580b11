package domain

import (
	"strconv"
	"strings"
)

// MaxAge is the largest age the backend recognises.
const MaxAge = 120

// ParseStateID parses a path segment such as "6" into a StateID.
func ParseStateID(s string) (StateID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationError("state", s, ErrInvalidState)
	}
	id := StateID(n)
	if err := ValidateStateID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// ValidateStateID checks id against the FIPS range.
func ValidateStateID(id StateID) error {
	if id < MinStateID || id > MaxStateID {
		return NewValidationError("state", id.String(), ErrInvalidState)
	}
	return nil
}

// ValidateYear checks that year lies in [first, last].
func ValidateYear(year, first, last int) error {
	if year < first || year > last {
		return NewValidationError("year", strconv.Itoa(year), ErrInvalidYear)
	}
	return nil
}

// ValidateFilter checks the age bounds of a filter.
func ValidateFilter(f FilterCriteria) error {
	if f.MinAge != nil && (*f.MinAge < 0 || *f.MinAge > MaxAge) {
		return NewValidationError("min_age", strconv.Itoa(*f.MinAge), ErrInvalidFilter)
	}
	if f.MaxAge != nil && (*f.MaxAge < 0 || *f.MaxAge > MaxAge) {
		return NewValidationError("max_age", strconv.Itoa(*f.MaxAge), ErrInvalidFilter)
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return NewValidationError("min_age", strconv.Itoa(*f.MinAge)+">"+strconv.Itoa(*f.MaxAge), ErrInvalidFilter)
	}
	if f.Sex < SexAny || f.Sex > SexFemale {
		return NewValidationError("sex", strconv.Itoa(int(f.Sex)), ErrInvalidFilter)
	}
	return nil
}

// ParseFilter builds criteria from raw form inputs. Blank inputs leave the
// field unset.
func ParseFilter(minAge, maxAge, sex string) (FilterCriteria, error) {
	var f FilterCriteria
	var err error
	if f.MinAge, err = parseOptionalAge("min_age", minAge); err != nil {
		return FilterCriteria{}, err
	}
	if f.MaxAge, err = parseOptionalAge("max_age", maxAge); err != nil {
		return FilterCriteria{}, err
	}
	if f.Sex, err = ParseSex(strings.TrimSpace(sex)); err != nil {
		return FilterCriteria{}, err
	}
	return f, nil
}

func parseOptionalAge(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, NewValidationError(field, raw, ErrInvalidFilter)
	}
	return &n, nil
}
