package tui

import "github.com/guptarohit/asciigraph"

// chartHeight is the number of plot rows above the baseline
const chartHeight = 4

// trendChart plots the last width values as a line graph with the
// y axis labelled at one decimal. A single value is drawn as a flat line.
func trendChart(values []float64, width, height int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}
	return asciigraph.Plot(values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(1),
	)
}
