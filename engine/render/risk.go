package render

import (
	"sort"
	"strconv"

	"github.com/farsdash/farsdash/engine/domain"
)

// TopAgeGroups is how many age bands the risk panel shows.
const TopAgeGroups = 4

// RiskInfo is the note behind the panel's info toggle.
const RiskInfo = "Percentages show share of total fatalities — categories do not sum to 100%."

// RiskRow is one bar of the risk panel. Width and Share are both percentages
// but differ for age groups: width is relative to the largest group, share
// to the total.
type RiskRow struct {
	Label string
	Icon  string
	Color string
	Count int
	Width float64
	Share float64
}

// ShareText is the right-hand label, e.g. "70.0%".
func (r RiskRow) ShareText() string { return Pct1(r.Share) + "%" }

// WidthText is the CSS width of the bar.
func (r RiskRow) WidthText() string { return Num(r.Width) + "%" }

// TooltipText is shown above the bar on hover.
func (r RiskRow) TooltipText() string {
	return Thousands(r.Count) + " fatalities • " + Pct1(r.Share) + "%"
}

// RiskPanel is the "who is at most risk" breakdown of a profile.
type RiskPanel struct {
	Title     string
	Total     int
	Sex       []RiskRow
	TimeOfDay []RiskRow
	AgeGroups []RiskRow
}

// Footer reads "Based on N fatalities".
func (p RiskPanel) Footer() string {
	return "Based on " + Thousands(p.Total) + " fatalities"
}

// Note is the info text shown beside the title.
func (RiskPanel) Note() string { return RiskInfo }

// NewRiskPanel derives the rows of p. An empty title defaults to
// "Who Is at Most Risk in Y?".
func NewRiskPanel(p domain.RiskProfile, title string) RiskPanel {
	if title == "" {
		title = "Who Is at Most Risk in " + strconv.Itoa(p.Year) + "?"
	}
	total := p.TotalAlcoholFatalities
	row := func(label, icon, color string, count int) RiskRow {
		s := share(count, total)
		return RiskRow{Label: label, Icon: icon, Color: color, Count: count, Width: s, Share: s}
	}
	return RiskPanel{
		Title: title,
		Total: total,
		Sex: []RiskRow{
			row("Male", "♂", "#4f46e5", p.BySex.Male),
			row("Female", "♀", "#ec4899", p.BySex.Female),
		},
		TimeOfDay: []RiskRow{
			row("Night", "🌙", "#1e40af", p.ByTimeOfDay.Night),
			row("Day", "☀️", "#3b82f6", p.ByTimeOfDay.Day),
		},
		AgeGroups: topAgeGroups(p.ByAgeGroup, total),
	}
}

func topAgeGroups(groups map[string]int, total int) []RiskRow {
	type band struct {
		name  string
		count int
	}
	bands := make([]band, 0, len(groups))
	hi := 0
	for name, n := range groups {
		bands = append(bands, band{name, n})
		hi = max(hi, n)
	}
	sort.Slice(bands, func(i, j int) bool {
		if bands[i].count != bands[j].count {
			return bands[i].count > bands[j].count
		}
		ri, rj := domain.AgeBandRank(bands[i].name), domain.AgeBandRank(bands[j].name)
		if ri != rj {
			return ri < rj
		}
		return bands[i].name < bands[j].name
	})
	if len(bands) > TopAgeGroups {
		bands = bands[:TopAgeGroups]
	}
	out := make([]RiskRow, 0, len(bands))
	for _, b := range bands {
		out = append(out, RiskRow{
			Label: b.name,
			Color: "#0d9488",
			Count: b.count,
			Width: share(b.count, hi),
			Share: share(b.count, total),
		})
	}
	return out
}
