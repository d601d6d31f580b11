package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

var (
	svgOnce sync.Once
	svgTmpl *template.Template
)

func execSVG(name string, data any) (template.HTML, error) {
	svgOnce.Do(func() {
		svgTmpl = template.Must(template.New("svg").Funcs(template.FuncMap{
			"n":    coord,
			"half": func(v float64) float64 { return v / 2 },
			"neg":  func(v float64) float64 { return -v },
			"plus": func(a, b float64) float64 { return a + b },
		}).Parse(svgTemplates))
	})
	var buf bytes.Buffer
	if err := svgTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s svg: %w", name, err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

const svgTemplates = `
{{define "heatmap"}}<svg class="heatmap" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<g>{{range .Polygons}}
<path d="{{.Path}}" fill="{{.Fill}}" stroke="{{$.Stroke}}" stroke-width="{{n .StrokeWidth}}" data-state="{{.StateID}}" data-base-stroke="{{n .StrokeWidth}}"{{if .HasData}} data-has-data="1"{{end}}><title>{{.Name}}</title></path>{{end}}
</g></svg>{{end}}

{{define "trend"}}<svg class="trend" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<g transform="translate({{n .Margin.Left}},{{n .Margin.Top}})">
<g class="axis x" transform="translate(0,{{n .InnerH}})">
<line x1="0" x2="{{n .InnerW}}" stroke="currentColor"/>{{range .XTicks}}
<g transform="translate({{n .Pos}},0)"><line y2="6" stroke="currentColor"/><text y="9" dx="-.8em" dy=".15em" transform="rotate(-45)" text-anchor="end" font-size="10">{{.Label}}</text></g>{{end}}
</g>
<g class="axis y">
<line y1="0" y2="{{n .InnerH}}" stroke="currentColor"/>{{range .YTicks}}
<g transform="translate(0,{{n .Pos}})"><line x2="-6" stroke="currentColor"/><text x="-9" dy=".32em" text-anchor="end" font-size="10">{{.Label}}</text></g>{{end}}
</g>
<text x="{{n (half .InnerW)}}" y="{{n (plus .InnerH 60)}}" text-anchor="middle">Year</text>
<text transform="rotate(-90)" y="{{n (plus (neg .Margin.Left) 16)}}" x="{{n (neg (half .InnerH))}}" text-anchor="middle">{{.YLabel}}</text>
{{range .Lines}}<path d="{{.Path}}" fill="none" stroke="{{.Color}}" stroke-width="{{n .Width}}"{{if .Dashed}} stroke-dasharray="4,2"{{end}}/>
{{if .Label}}<text x="{{n .LabelX}}" y="{{n .LabelY}}" dy="0.35em" font-size="12px" fill="{{.Color}}">{{.Label}}</text>
{{end}}{{end}}<line class="crosshair" x1="0" y1="0" x2="0" y2="{{n .InnerH}}" stroke="#ccc" stroke-dasharray="4,2" opacity="0"/>
<rect class="overlay" width="{{n .InnerW}}" height="{{n .InnerH}}" fill="none" pointer-events="all"/>
</g></svg>{{end}}

{{define "bars"}}<svg class="bars" width="{{n .Width}}" height="{{n .Height}}" viewBox="0 0 {{n .Width}} {{n .Height}}">
{{range .Bars}}<rect x="{{n .X}}" y="{{n .Y}}" width="{{n $.BarWidth}}" height="{{n .Height}}" fill="#3b82f6" rx="3"><title>{{.Month}}: {{.Value}}</title></rect>
{{if .ShowValue}}<text x="{{n .LabelX}}" y="{{n (plus .Y -4)}}" text-anchor="middle" font-size="10">{{.Value}}</text>
{{end}}<text x="{{n .LabelX}}" y="{{n (plus $.Base 16)}}" text-anchor="middle" font-size="11">{{.Short}}</text>
{{end}}</svg>{{end}}
`
