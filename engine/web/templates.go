package web

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"sync"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/render"
)

var (
	pageTmplOnce sync.Once
	pageTmpl     *template.Template
)

func templates() *template.Template {
	pageTmplOnce.Do(func() {
		pageTmpl = template.Must(template.New("pages").Funcs(template.FuncMap{
			"thousands": render.Thousands,
			"selected": func(a, b int) bool { return a == b },
			"state":    func(id domain.StateID) string { return strconv.Itoa(int(id)) },
		}).Parse(pageTemplates))
	})
	return pageTmpl
}

func execute(w io.Writer, name string, data any) error {
	if err := templates().ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("execute %s template: %w", name, err)
	}
	return nil
}

// layoutData wraps a fragment in the full document.
type layoutData struct {
	Title string
	View  string
	Body  template.HTML
}

const pageTemplates = `
{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/app.css">
</head>
<body>
<div id="app" data-view="{{.View}}">{{.Body}}</div>
<div id="tooltip" class="tooltip" hidden></div>
<script src="/static/app.js"></script>
</body>
</html>
{{end}}

{{define "alerts"}}{{range .}}<div class="alert" role="alert">{{.}}
<form method="post" action="/events" data-event><input type="hidden" name="view" value="national"><input type="hidden" name="type" value="dismiss"><button type="submit">OK</button></form>
</div>{{end}}{{end}}

{{define "risk"}}{{if .}}<section class="risk">
<h3>{{.Title}}</h3>
<p class="note">{{.Note}}</p>
<h4>By Sex</h4>{{template "riskrows" .Sex}}
<h4>By Time of Day</h4>{{template "riskrows" .TimeOfDay}}
<h4>Top Age Groups</h4>{{template "riskrows" .AgeGroups}}
<p class="footer">{{.Footer}}</p>
</section>{{else}}<section class="risk empty"><p>No risk profile data available.</p></section>{{end}}{{end}}

{{define "riskrows"}}{{range .}}<div class="risk-row" data-tooltip="{{.TooltipText}}">
<span class="label">{{.Icon}} {{.Label}}</span>
<span class="bar"><span class="fill" style="width: {{.WidthText}}; background: {{.Color}}"></span></span>
<span class="value">{{.ShareText}}</span>
</div>{{end}}{{end}}

{{define "national"}}<main class="national" data-version="{{.Version}}">
<header><h1>Alcohol-Impaired Traffic Fatalities</h1></header>
{{template "alerts" .Alerts}}
<form class="controls" method="post" action="/events" data-event>
<input type="hidden" name="view" value="national">
<input type="hidden" name="type" value="year">
<label>Year <select name="year" data-submit>{{range .Years}}<option value="{{.}}"{{if selected . $.Year}} selected{{end}}>{{.}}</option>{{end}}</select></label>
</form>
<form class="controls" method="post" action="/events" data-event>
<input type="hidden" name="view" value="national">
<input type="hidden" name="type" value="metric">
<label>Color by <select name="metric" data-submit>
<option value="percentage"{{if eq .Metric "percentage"}} selected{{end}}>Percentage</option>
<option value="difference"{{if eq .Metric "difference"}} selected{{end}}>Difference from national average</option>
</select></label>
</form>
<section class="map" data-pointer="/pointer/map">
{{if eq .MapStatus "loaded"}}{{.MapSVG}}{{else if eq .MapStatus "failed"}}<p class="empty">Heatmap data unavailable.</p>{{else}}<p class="loading">Loading map…</p>{{end}}
{{with .NationalAvg}}<p class="avg">{{.}}</p>{{end}}
<p class="hint">Click a state to compare its trend. Double-click to open its details.</p>
</section>
{{with .Loading}}<p class="loading">Loading: {{range $i, $n := .}}{{if $i}}, {{end}}{{$n}}{{end}}</p>{{end}}
<section class="trend" data-pointer="/pointer/trend?chart=national">
<h2>National Trend</h2>
{{.TrendSVG}}
<ul class="legend">{{range .Legend}}<li><span class="swatch" style="background: {{.Color}}"></span>{{.Name}}</li>{{end}}</ul>
</section>
{{template "risk" .Risk}}
</main>{{end}}

{{define "detail"}}<main class="detail" data-version="{{.Version}}" data-state="{{state .StateID}}">
<nav><a href="/">← Back to national view</a></nav>
<h1>{{.Name}}</h1>
{{if eq .Phase "loading"}}<p class="loading">Loading {{.Name}}…</p>
{{else if eq .Phase "failed"}}<p class="error">{{.Error}}</p>
{{else}}
<form class="controls" method="post" action="/events" data-event>
<input type="hidden" name="view" value="detail">
<input type="hidden" name="type" value="year">
<label>Year <select name="year" data-submit>{{range .Years}}<option value="{{.}}"{{if selected . $.Year}} selected{{end}}>{{.}}</option>{{end}}</select></label>
</form>
<section class="cards">{{range .Cards}}<div class="card"><h4>{{.Label}}</h4><p class="value">{{.Value}}</p>{{with .Note}}<p class="note">{{.}}</p>{{end}}</div>{{end}}</section>
<section class="trend" data-pointer="/pointer/trend?chart=state">
<h2>{{.Name}} vs National</h2>
{{.TrendSVG}}
</section>
<form class="filters" method="post" action="/events" data-event>
<input type="hidden" name="view" value="detail">
<label>Min age <input type="number" name="min_age" min="0" max="120" value="{{.MinAge}}"></label>
<label>Max age <input type="number" name="max_age" min="0" max="120" value="{{.MaxAge}}"></label>
<label>Sex <select name="sex">
<option value=""{{if eq .Sex ""}} selected{{end}}>All</option>
<option value="male"{{if eq .Sex "male"}} selected{{end}}>Male</option>
<option value="female"{{if eq .Sex "female"}} selected{{end}}>Female</option>
</select></label>
<button type="submit" name="type" value="apply">Apply filters</button>
<button type="submit" name="type" value="clear">Clear</button>
{{with .FilterError}}<p class="error">{{.}}</p>{{end}}
</form>
{{if .Active}}<section class="trend filtered" data-pointer="/pointer/trend?chart=filtered">
<h2>Filtered Trend</h2>
{{if eq .Filtered "loaded"}}{{.FilteredSVG}}{{else if eq .Filtered "failed"}}<p class="empty">Filtered trend unavailable.</p>{{else}}<p class="loading">Loading filtered trend…</p>{{end}}
</section>{{end}}
<p class="risk-label">Risk profile: {{.RiskLabel}}</p>
{{if eq .RiskStatus "loading"}}<p class="loading">Loading risk profile…</p>{{else}}{{template "risk" .Risk}}{{end}}
{{with .Bars}}<section class="bars">{{.}}</section>{{end}}
{{end}}
</main>{{end}}
`
