// Package export renders the national trend chart, with optional state
// comparison lines, to a static PNG or SVG file.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/errgroup"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/scale"
	"github.com/farsdash/farsdash/pkg/fn"
)

// Format is the output image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrFormat is returned for unsupported formats.
var ErrFormat = errors.New("unsupported export format")

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// FormatFor picks the format from a file extension, defaulting to PNG.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return FormatSVG
	}
	return FormatPNG
}

// Source is the subset of the backend the export needs.
type Source interface {
	NationalTrend(ctx context.Context) ([]domain.TrendPoint, error)
	StateTrend(ctx context.Context, id domain.StateID) (domain.StateTrend, error)
}

// Data is everything one chart shows.
type Data struct {
	National []domain.TrendPoint
	States   []domain.StateTrend
}

// Fetch loads the national series and every requested state concurrently.
// Any failed fetch fails the export.
func Fetch(ctx context.Context, src Source, ids []domain.StateID) (Data, error) {
	var d Data
	d.States = make([]domain.StateTrend, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		pts, err := src.NationalTrend(ctx)
		if err != nil {
			return fmt.Errorf("national trend: %w", err)
		}
		d.National = pts
		return nil
	})
	for i, id := range ids {
		g.Go(func() error {
			st, err := src.StateTrend(ctx, id)
			if err != nil {
				return fmt.Errorf("state %s trend: %w", domain.StateName(id), err)
			}
			d.States[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Data{}, err
	}
	return d, nil
}

// Options controls the rendered image.
type Options struct {
	Format Format
	Width  int
	Height int
	Title  string
}

// DefaultOptions renders an 800×500 PNG.
func DefaultOptions() Options {
	return Options{Format: FormatPNG, Width: 800, Height: 500, Title: "Alcohol-Impaired Traffic Fatalities (%)"}
}

// Chart builds the go-chart definition for d.
func Chart(d Data, opts Options) (chart.Chart, error) {
	if len(d.National) == 0 && len(d.States) == 0 {
		return chart.Chart{}, errors.New("nothing to export: no series data")
	}
	colors := scale.SeriesColors(fn.Map(d.States, func(s domain.StateTrend) domain.StateID { return s.StateID }))

	var series []chart.Series
	lo, hi, yMax := math.Inf(1), math.Inf(-1), 0.0
	add := func(name string, pts []domain.TrendPoint, col string, width float64) {
		if len(pts) == 0 {
			return
		}
		xs := make([]float64, 0, len(pts)+1)
		ys := make([]float64, 0, len(pts)+1)
		for _, p := range pts {
			xs = append(xs, float64(p.Year))
			ys = append(ys, p.Percentage)
			lo, hi = math.Min(lo, float64(p.Year)), math.Max(hi, float64(p.Year))
			yMax = math.Max(yMax, p.Percentage)
		}
		// go-chart needs two x values to draw a line.
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: drawingColor(col), StrokeWidth: width},
		})
	}
	add("National", d.National, scale.NationalColor, 3)
	for _, s := range d.States {
		add(s.StateName, s.Data, colors[s.StateID], 2)
	}
	if len(series) == 0 {
		return chart.Chart{}, errors.New("nothing to export: every series is empty")
	}
	if lo == hi {
		hi = lo + 1
	}
	if yMax == 0 {
		yMax = 10
	}

	x := scale.NewLinear(lo, hi, 0, 1)
	y := scale.NewLinear(0, yMax, 0, 1)
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Year",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			Ticks: ticks(x.Ticks(10), true),
		},
		YAxis: chart.YAxis{
			Name:  "Alcohol-Impaired Fatalities (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			Ticks: ticks(y.Ticks(8), false),
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

// Render draws d to w in opts.Format.
func Render(w io.Writer, d Data, opts Options) error {
	ch, err := Chart(d, opts)
	if err != nil {
		return err
	}
	provider := chart.PNG
	switch opts.Format {
	case FormatSVG:
		provider = chart.SVG
	case FormatPNG, "":
	default:
		return fmt.Errorf("%w: %q", ErrFormat, opts.Format)
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return nil
}

func ticks(vals []float64, wholeOnly bool) []chart.Tick {
	out := make([]chart.Tick, 0, len(vals))
	for _, v := range vals {
		if wholeOnly && v != math.Trunc(v) {
			continue
		}
		out = append(out, chart.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return out
}

var named = map[string]string{scale.NationalColor: "#4682b4"}

func drawingColor(s string) drawing.Color {
	if hex, ok := named[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return drawing.ColorBlack
	}
	r, g, b := c.RGB255()
	return drawing.Color{R: r, G: g, B: b, A: 255}
}
