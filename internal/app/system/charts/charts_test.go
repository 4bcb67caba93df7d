package charts

import (
	"math"
	"testing"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantLine string
	}{
		{"empty", nil, ""},
		{"single point", []float64{50}, "0,40"},
		{"rising", []float64{0, 50, 100}, "0,40 60,20 120,0"},
		{"flat", []float64{70, 70}, "0,40 120,40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Sparkline(tt.values)
			if s.Line != tt.wantLine {
				t.Errorf("Line = %q, want %q", s.Line, tt.wantLine)
			}
			if s.Empty() != (tt.wantLine == "") {
				t.Errorf("Empty() = %v", s.Empty())
			}
		})
	}
}

func TestSparkline_Area(t *testing.T) {
	s := Sparkline([]float64{0, 100})
	want := "0,40 0,40 120,0 120,40"
	if s.Area != want {
		t.Errorf("Area = %q, want %q", s.Area, want)
	}
}

func TestRadial(t *testing.T) {
	g := Radial(50, 96)
	if g.Radius != 43 {
		t.Errorf("Radius = %v, want 43", g.Radius)
	}
	if math.Abs(g.Offset-g.Circumference/2) > 1e-9 {
		t.Errorf("Offset = %v, want half of %v", g.Offset, g.Circumference)
	}
	if g.Label != "50%" {
		t.Errorf("Label = %q, want 50%%", g.Label)
	}
}

func TestRadial_Clamps(t *testing.T) {
	if g := Radial(140, 0); g.Value != 100 || g.Offset != 0 || g.Size != 96 {
		t.Errorf("Radial(140) = %+v", g)
	}
	if g := Radial(-5, 96); g.Value != 0 || g.Offset != g.Circumference {
		t.Errorf("Radial(-5) = %+v", g)
	}
	if g := Radial(78.33, 96); g.Label != "78%" {
		t.Errorf("Label = %q, want 78%%", g.Label)
	}
}
