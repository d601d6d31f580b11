package domain

import "fmt"

// Valid state id bounds (FIPS codes; not every code in range is a state).
const (
	MinStateID StateID = 1
	MaxStateID StateID = 56
)

// StateNames maps FIPS codes to state names, including the District of Columbia.
var StateNames = map[StateID]string{
	1: "Alabama", 2: "Alaska", 4: "Arizona", 5: "Arkansas", 6: "California",
	8: "Colorado", 9: "Connecticut", 10: "Delaware", 11: "District of Columbia",
	12: "Florida", 13: "Georgia", 15: "Hawaii", 16: "Idaho", 17: "Illinois",
	18: "Indiana", 19: "Iowa", 20: "Kansas", 21: "Kentucky", 22: "Louisiana",
	23: "Maine", 24: "Maryland", 25: "Massachusetts", 26: "Michigan",
	27: "Minnesota", 28: "Mississippi", 29: "Missouri", 30: "Montana",
	31: "Nebraska", 32: "Nevada", 33: "New Hampshire", 34: "New Jersey",
	35: "New Mexico", 36: "New York", 37: "North Carolina", 38: "North Dakota",
	39: "Ohio", 40: "Oklahoma", 41: "Oregon", 42: "Pennsylvania",
	44: "Rhode Island", 45: "South Carolina", 46: "South Dakota", 47: "Tennessee",
	48: "Texas", 49: "Utah", 50: "Vermont", 51: "Virginia", 53: "Washington",
	54: "West Virginia", 55: "Wisconsin", 56: "Wyoming",
}

// StateName returns the name for id, or "State N" when unknown.
func StateName(id StateID) string {
	if n, ok := StateNames[id]; ok {
		return n
	}
	return fmt.Sprintf("State %d", id)
}

// AgeBands lists the backend's age groups in ascending order.
var AgeBands = []string{"16-20", "21-24", "25-34", "35-44", "45-54", "55+"}

// AgeBandRank returns the position of band in AgeBands, or len(AgeBands) if unknown.
func AgeBandRank(band string) int {
	for i, b := range AgeBands {
		if b == band {
			return i
		}
	}
	return len(AgeBands)
}

// Months lists full month names as used in RiskProfile.ByMonth.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthShort holds the three-letter labels for Months.
var MonthShort = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
