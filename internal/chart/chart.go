// Package chart renders ASCII charts of simulation runs for terminal output.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/demesne/internal/sim"
)

const (
	chartWidth  = 80
	chartHeight = 20
)

// Point is one plotted week of a run.
type Point struct {
	Week       int
	Population float64
}

// Generator generates ASCII charts.
type Generator struct {
	width  int
	height int
}

// NewGenerator creates a chart generator with the default dimensions.
func NewGenerator() *Generator {
	return &Generator{
		width:  chartWidth,
		height: chartHeight,
	}
}

// PopulationChart renders the population trajectory with threshold levels
// drawn as horizontal guide lines.
func (g *Generator) PopulationChart(points []Point, thresholds []sim.Threshold) string {
	if len(points) == 0 {
		return "No data to display"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("Population Over Time\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Downsample to one column per chart position.
	columns := g.downsample(points)

	lo, hi := seriesRange(columns, thresholds)
	if hi == lo {
		hi = lo + 1
	}

	// Row index (0 = top) for a population value.
	rowFor := func(v float64) int {
		frac := (v - lo) / (hi - lo)
		row := g.height - 1 - int(math.Round(frac*float64(g.height-1)))
		if row < 0 {
			row = 0
		}
		if row >= g.height {
			row = g.height - 1
		}
		return row
	}

	thresholdRows := make(map[int]string, len(thresholds))
	for _, t := range thresholds {
		if t.Value >= lo && t.Value <= hi {
			thresholdRows[rowFor(t.Value)] = t.Rising
		}
	}

	labelWidth := 10
	for row := 0; row < g.height; row++ {
		value := hi - (hi-lo)*float64(row)/float64(g.height-1)
		label := humanize.CommafWithDigits(value, 0)
		sb.WriteString(fmt.Sprintf("%*s |", labelWidth, label))

		guide, isThresholdRow := thresholdRows[row]
		for _, v := range columns {
			switch {
			case rowFor(v) == row:
				sb.WriteString("*")
			case isThresholdRow:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
		}
		if isThresholdRow {
			sb.WriteString(" <- " + guide)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("%*s +%s\n", labelWidth, "", strings.Repeat("-", len(columns))))
	sb.WriteString(fmt.Sprintf("%*s  week %d%*s week %d\n",
		labelWidth, "",
		points[0].Week,
		len(columns)-14, "",
		points[len(points)-1].Week))

	return sb.String()
}

// EventSummary renders the run's event history, one line per triggered event.
func (g *Generator) EventSummary(records []sim.EventRecord) string {
	var sb strings.Builder
	sb.WriteString("\nRandom Event History\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n")

	if len(records) == 0 {
		sb.WriteString("No random events occurred during the simulation.\n")
		return sb.String()
	}

	for i, r := range records {
		sb.WriteString(fmt.Sprintf("%2d. %-20s weeks %d-%d  impacts: b=%.2f d=%.2f k=%.2f\n",
			i+1, r.Name, r.StartWeek, r.EndWeek,
			r.Impacts.Birth, r.Impacts.Death, r.Impacts.K))
	}
	return sb.String()
}

// downsample reduces points to at most the chart width, averaging each bucket.
func (g *Generator) downsample(points []Point) []float64 {
	width := g.width - 12 // leave room for the y-axis labels
	if width < 1 {
		width = 1
	}
	if len(points) <= width {
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = p.Population
		}
		return out
	}

	out := make([]float64, width)
	for col := 0; col < width; col++ {
		start := col * len(points) / width
		end := (col + 1) * len(points) / width
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		for _, p := range points[start:end] {
			sum += p.Population
		}
		out[col] = sum / float64(end-start)
	}
	return out
}

func seriesRange(columns []float64, thresholds []sim.Threshold) (lo, hi float64) {
	lo, hi = columns[0], columns[0]
	for _, v := range columns {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	// Widen to include thresholds near the trajectory so guide lines show up.
	for _, t := range thresholds {
		if t.Value < lo && t.Value > lo-0.5*(hi-lo+1) {
			lo = t.Value
		}
		if t.Value > hi && t.Value < hi+0.5*(hi-lo+1) {
			hi = t.Value
		}
	}
	return lo, hi
}
