package layout

// scale.go — Column rule for numeric and NPS scales.
//
// A scale [min, max] has max-min+1 points but is drawn with at most
// MaxScaleColumns columns. Up to that limit every value gets its own
// labeled column. Past it the grid keeps MaxScaleColumns columns, labels
// the first with min and the last with max, and leaves the columns between
// them blank. The values in between remain valid answers.

import (
	"math"
	"strconv"
)

// MaxScaleColumns bounds the width of a drawn scale.
const MaxScaleColumns = 11

// Grid is the drawn header row of a scale.
type Grid struct {
	Min int
	Max int
	// Points saturates at math.MaxInt for ranges wider than an int.
	Points int
	Labels []string
}

// Columns returns the number of drawn columns.
func (g Grid) Columns() int { return len(g.Labels) }

// Truncated reports whether some values have no column of their own.
func (g Grid) Truncated() bool { return g.Points > len(g.Labels) }

// ScaleGrid lays out the inclusive range [lo, hi].
func ScaleGrid(lo, hi int) Grid {
	points := scalePoints(lo, hi)
	cols := points
	if cols > MaxScaleColumns {
		cols = MaxScaleColumns
	}
	labels := make([]string, cols)
	if points <= MaxScaleColumns {
		for i := range labels {
			labels[i] = strconv.Itoa(lo + i)
		}
	} else {
		labels[0] = strconv.Itoa(lo)
		labels[cols-1] = strconv.Itoa(hi)
	}
	return Grid{Min: lo, Max: hi, Points: points, Labels: labels}
}

// scalePoints is hi-lo+1 computed without overflow. An empty or inverted
// range counts as one point.
func scalePoints(lo, hi int) int {
	if hi < lo {
		return 1
	}
	span := uint64(hi) - uint64(lo)
	if span >= math.MaxInt {
		return math.MaxInt
	}
	return int(span) + 1
}
