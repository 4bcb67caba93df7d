// Package charts computes SVG geometry for the dashboard's small charts.
// Templates only draw what these values describe.
package charts

import (
	"math"
	"strconv"
	"strings"
)

// Sparkline dimensions.
const (
	SparkWidth  = 120
	SparkHeight = 40
)

// Spark holds the polyline points for a sparkline.
type Spark struct {
	Width  int
	Height int
	Line   string // points for the stroke
	Area   string // points for the filled area under the line
}

// Empty reports whether there is nothing to draw.
func (s Spark) Empty() bool { return s.Line == "" }

// Sparkline scales values into a SparkWidth x SparkHeight box. A flat series
// is drawn along the bottom edge. No values yields an empty Spark.
func Sparkline(values []float64) Spark {
	s := Spark{Width: SparkWidth, Height: SparkHeight}
	if len(values) == 0 {
		return s
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	steps := float64(max(len(values)-1, 1))

	pts := make([]string, len(values))
	for i, v := range values {
		x := float64(i) / steps * SparkWidth
		y := SparkHeight - (v-lo)/span*SparkHeight
		pts[i] = num(x) + "," + num(y)
	}
	s.Line = strings.Join(pts, " ")
	s.Area = "0," + strconv.Itoa(SparkHeight) + " " + s.Line + " " + strconv.Itoa(SparkWidth) + "," + strconv.Itoa(SparkHeight)
	return s
}

// Gauge holds the geometry for a radial progress ring.
type Gauge struct {
	Size          int
	Stroke        int
	Center        float64
	Radius        float64
	Circumference float64
	Offset        float64
	Value         float64 // clamped to [0, 100]
	Label         string  // rounded percent, e.g. "78%"
}

// Radial describes a ring of the given size filled to value percent.
// Size <= 0 uses 96.
func Radial(value float64, size int) Gauge {
	if size <= 0 {
		size = 96
	}
	const stroke = 10
	v := math.Max(0, math.Min(100, value))
	r := float64(size-stroke) / 2
	c := 2 * math.Pi * r
	return Gauge{
		Size:          size,
		Stroke:        stroke,
		Center:        float64(size) / 2,
		Radius:        r,
		Circumference: c,
		Offset:        c - v/100*c,
		Value:         v,
		Label:         strconv.FormatFloat(math.Round(v), 'f', 0, 64) + "%",
	}
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
