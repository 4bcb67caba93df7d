package gradeview

import (
	"math"
	"reflect"
	"testing"

	"github.com/dalemusser/stratagrades/internal/domain/models"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func samplePayload() *models.GradesResponse {
	return &models.GradesResponse{
		Grades: []models.Grade{
			{Subject: "Math", Title: "Quiz 1", Percent: 80, Date: "2024-01-01"},
			{Subject: "Math", Title: "Quiz 2", Percent: 60, Date: "2024-02-01"},
			{Subject: "Art", Title: "Portrait", Percent: 95, Date: "2024-01-15"},
		},
	}
}

func TestDerive_SubjectAndMinimum(t *testing.T) {
	p := samplePayload()

	v := Derive(p, Filter{Subject: "Math", MinimumPercent: 70})

	if len(v.FilteredGrades) != 1 {
		t.Fatalf("len(FilteredGrades) = %d, want 1", len(v.FilteredGrades))
	}
	got := v.FilteredGrades[0]
	if got.Percent != 80 || got.Date != "2024-01-01" {
		t.Errorf("FilteredGrades[0] = %+v, want percent 80 on 2024-01-01", got)
	}

	want := (80.0 + 60.0 + 95.0) / 3
	if math.Abs(v.OverallAverage-want) > 1e-9 {
		t.Errorf("OverallAverage = %v, want %v", v.OverallAverage, want)
	}
	if math.Round(v.OverallAverage*100)/100 != 78.33 {
		t.Errorf("OverallAverage rounded = %.2f, want 78.33", v.OverallAverage)
	}
}

func TestDerive_EmptyPayload(t *testing.T) {
	v := Derive(&models.GradesResponse{}, DefaultFilter())

	if v.OverallAverage != 0 {
		t.Errorf("OverallAverage = %v, want 0", v.OverallAverage)
	}
	if v.FilteredGrades == nil || len(v.FilteredGrades) != 0 {
		t.Errorf("FilteredGrades = %#v, want empty non-nil slice", v.FilteredGrades)
	}
	if v.UniqueSubjects == nil || len(v.UniqueSubjects) != 0 {
		t.Errorf("UniqueSubjects = %#v, want empty non-nil slice", v.UniqueSubjects)
	}
}

func TestDerive_NilPayload(t *testing.T) {
	v := Derive(nil, Filter{Subject: "Math", MinimumPercent: 50})

	if len(v.FilteredGrades) != 0 || len(v.UniqueSubjects) != 0 {
		t.Errorf("nil payload produced data: %+v", v)
	}
	if v.OverallAverage != 0 || v.TotalAssignments != 0 || v.Outstanding != 0 {
		t.Errorf("nil payload produced non-zero totals: %+v", v)
	}
}

func TestOverallAverage_ServerValueWins(t *testing.T) {
	p := samplePayload()
	p.Aggregates = &models.Aggregates{OverallAverage: f64(91.5)}

	filters := []Filter{
		DefaultFilter(),
		{Subject: "Art", MinimumPercent: 0},
		{Subject: "Math", MinimumPercent: 90},
	}
	for _, f := range filters {
		if got := Derive(p, f).OverallAverage; got != 91.5 {
			t.Errorf("filter %+v: OverallAverage = %v, want 91.5", f, got)
		}
	}
}

func TestOverallAverage_IgnoresFilters(t *testing.T) {
	p := samplePayload()
	base := Derive(p, DefaultFilter()).OverallAverage

	for _, f := range []Filter{{Subject: "Art"}, {Subject: "Math", MinimumPercent: 70}, {MinimumPercent: 100}} {
		if got := Derive(p, f).OverallAverage; got != base {
			t.Errorf("filter %+v: OverallAverage = %v, want %v", f, got, base)
		}
	}
}

func TestFilterGrades_SortsByDateDescending(t *testing.T) {
	p := &models.GradesResponse{
		Grades: []models.Grade{
			{Subject: "A", Title: "undated", Percent: 50},
			{Subject: "A", Title: "old", Percent: 50, Date: "2023-09-01"},
			{Subject: "B", Title: "new", Percent: 50, Date: "2024-03-01T10:00:00Z"},
			{Subject: "B", Title: "mid", Percent: 50, Date: "2024-01-10"},
		},
	}

	got := FilterGrades(p, DefaultFilter())

	var titles []string
	for _, g := range got {
		titles = append(titles, g.Title)
	}
	want := []string{"new", "mid", "old", "undated"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("order = %v, want %v", titles, want)
	}
}

func TestFilterGrades_SubsetProperty(t *testing.T) {
	p := samplePayload()
	p.Grades = append(p.Grades,
		models.Grade{Subject: "Art", Title: "Sketch", Percent: 40},
		models.Grade{Subject: "Bio", Title: "Lab", Percent: 70, Date: "2024-02-01"},
	)

	filters := []Filter{
		DefaultFilter(),
		{Subject: "Art"},
		{Subject: "Math", MinimumPercent: 61},
		{Subject: "Nope"},
		{MinimumPercent: 70},
		{Subject: "", MinimumPercent: 95},
	}
	for _, f := range filters {
		nf := f.Normalize()
		got := FilterGrades(p, f)
		for i, g := range got {
			if nf.Subject != AllSubjects && g.Subject != nf.Subject {
				t.Errorf("filter %+v: grade %+v has wrong subject", f, g)
			}
			if g.Percent < nf.MinimumPercent {
				t.Errorf("filter %+v: grade %+v below minimum", f, g)
			}
			if !containsGrade(p.Grades, g) {
				t.Errorf("filter %+v: grade %+v not in payload", f, g)
			}
			if i > 0 && got[i-1].Date < g.Date {
				t.Errorf("filter %+v: not sorted at %d (%q before %q)", f, i, got[i-1].Date, g.Date)
			}
		}
	}
}

func TestFilterGrades_DoesNotMutatePayload(t *testing.T) {
	p := samplePayload()
	before := append([]models.Grade(nil), p.Grades...)

	got := FilterGrades(p, DefaultFilter())
	if len(got) > 0 {
		got[0].Title = "changed"
	}

	if !reflect.DeepEqual(p.Grades, before) {
		t.Errorf("payload grades were modified: %+v", p.Grades)
	}
}

func TestReset_IsIdempotent(t *testing.T) {
	p := samplePayload()
	initial := Derive(p, DefaultFilter())

	_ = Derive(p, Filter{Subject: "Math", MinimumPercent: 90})
	reset := Derive(p, DefaultFilter())

	if !reflect.DeepEqual(initial.FilteredGrades, reset.FilteredGrades) {
		t.Errorf("reset grades = %+v, want %+v", reset.FilteredGrades, initial.FilteredGrades)
	}
}

func TestUniqueSubjects(t *testing.T) {
	tests := []struct {
		name string
		p    *models.GradesResponse
		want []string
	}{
		{
			name: "from grades in first-occurrence order",
			p: &models.GradesResponse{Grades: []models.Grade{
				{Subject: "Math"}, {Subject: "Art"}, {Subject: "Math"}, {Subject: "Bio"},
			}},
			want: []string{"Math", "Art", "Bio"},
		},
		{
			name: "server subjects take precedence",
			p: &models.GradesResponse{
				Grades:   []models.Grade{{Subject: "Math"}},
				Subjects: []models.SubjectAggregate{{Subject: "Zoology"}, {Subject: "Art"}},
			},
			want: []string{"Zoology", "Art"},
		},
		{
			name: "empty subject list falls back to grades",
			p: &models.GradesResponse{
				Grades:   []models.Grade{{Subject: "Chem"}},
				Subjects: []models.SubjectAggregate{},
			},
			want: []string{"Chem"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueSubjects(tt.p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UniqueSubjects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignmentCounts(t *testing.T) {
	tests := []struct {
		name            string
		agg             *models.Aggregates
		filteredLen     int
		wantTotal       int
		wantOutstanding int
	}{
		{"no aggregates", nil, 4, 4, 0},
		{"server total only", &models.Aggregates{TotalAssignments: intp(10)}, 4, 10, 6},
		{"server total below filtered", &models.Aggregates{TotalAssignments: intp(2)}, 4, 2, 0},
		{"server outstanding wins", &models.Aggregates{TotalAssignments: intp(10), Outstanding: intp(1)}, 4, 10, 1},
		{"outstanding without total", &models.Aggregates{Outstanding: intp(3)}, 4, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.GradesResponse{Aggregates: tt.agg}
			total, outstanding := AssignmentCounts(p, tt.filteredLen)
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if outstanding != tt.wantOutstanding {
				t.Errorf("outstanding = %d, want %d", outstanding, tt.wantOutstanding)
			}
		})
	}
}

func TestFilter_Normalize(t *testing.T) {
	if got := (Filter{Subject: "  "}).Normalize().Subject; got != AllSubjects {
		t.Errorf("Normalize() subject = %q, want %q", got, AllSubjects)
	}
	if !(Filter{}).IsDefault() {
		t.Error("zero Filter should be the default")
	}
	if (Filter{Subject: "Math"}).IsDefault() {
		t.Error("subject filter should not be the default")
	}
}

func containsGrade(list []models.Grade, g models.Grade) bool {
	for _, x := range list {
		if reflect.DeepEqual(x, g) {
			return true
		}
	}
	return false
}
