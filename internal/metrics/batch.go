package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension is a single name/value tag attached to a metric data point.
type Dimension struct {
	Name  string
	Value string
}

// DimensionSet is an ordered list of dimensions. Order is preserved for
// rendering; equality ignores nothing — two sets are equal only if they
// contain the same pairs in the same order.
type DimensionSet []Dimension

// Equal reports whether both sets contain the same dimensions in the same order.
func (s DimensionSet) Equal(other DimensionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s DimensionSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, d := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Name)
		b.WriteString(": ")
		b.WriteString(d.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Point is one metric data point ready for submission.
type Point struct {
	Name       string
	Unit       string
	Value      float64
	Dimensions DimensionSet
}

// Batch accumulates metric data points for a single run, in insertion order.
// It performs no validation; the expander is trusted to produce distinct
// dimension sets per metric name.
type Batch struct {
	points []Point
}

// Add appends points to the batch.
func (b *Batch) Add(points ...Point) {
	b.points = append(b.points, points...)
}

// Points returns the accumulated points in insertion order.
func (b *Batch) Points() []Point {
	return b.points
}

// Len returns the number of accumulated points.
func (b *Batch) Len() int {
	return len(b.points)
}

// String renders the batch for verbose and dry-run output, one
// "name: value unit (dimensions)" line per point, in insertion order.
func (b *Batch) String() string {
	var sb strings.Builder
	for _, p := range b.points {
		fmt.Fprintf(&sb, "%s: %s %s (%s)\n",
			p.Name, strconv.FormatFloat(p.Value, 'f', -1, 64), p.Unit, p.Dimensions)
	}
	return sb.String()
}
