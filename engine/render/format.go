// Package render turns fetched series into chart view models and SVG.
//
// Every renderer is a pure function of its inputs. Callers rebuild the view
// whenever data, metric or selection changes.
package render

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma grouping, e.g. 12,345.
func Thousands(n int) string {
	return printer.Sprintf("%d", n)
}

// Pct1 formats v with one decimal, e.g. 31.4.
func Pct1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Num formats v in its shortest form, as the backend sent it.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// share returns count/total*100, or 0 when total is zero.
func share(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
