// Package gradeview derives the dashboard view model from a grades payload.
//
// Everything here is a pure function of (payload, filter). A nil payload is
// valid input and yields empty results, which is how the pending and error
// phases render.
package gradeview

import (
	"sort"
	"strings"

	"github.com/dalemusser/stratagrades/internal/domain/models"
)

// AllSubjects is the subject filter value meaning "no subject restriction".
const AllSubjects = "all"

// MinimumOptions are the minimum-percent choices offered by the filter control.
var MinimumOptions = []float64{0, 50, 60, 70, 80, 90}

// Filter holds the two user-settable inputs.
type Filter struct {
	Subject        string  `json:"subject"`
	MinimumPercent float64 `json:"minimumPercent"`
}

// DefaultFilter returns the reset state: all subjects, no minimum.
func DefaultFilter() Filter {
	return Filter{Subject: AllSubjects, MinimumPercent: 0}
}

// Normalize maps an empty subject to AllSubjects.
func (f Filter) Normalize() Filter {
	f.Subject = strings.TrimSpace(f.Subject)
	if f.Subject == "" {
		f.Subject = AllSubjects
	}
	return f
}

// IsDefault reports whether f is the reset state.
func (f Filter) IsDefault() bool {
	return f.Normalize() == DefaultFilter()
}

func (f Filter) matches(g models.Grade) bool {
	if f.Subject != AllSubjects && g.Subject != f.Subject {
		return false
	}
	return g.Percent >= f.MinimumPercent
}

// View is the derived view model consumed by templates and the JSON view.
type View struct {
	FilteredGrades   []models.Grade `json:"filteredGrades"`
	OverallAverage   float64        `json:"overallAverage"`
	UniqueSubjects   []string       `json:"uniqueSubjects"`
	TotalAssignments int            `json:"totalAssignments"`
	Completed        int            `json:"completed"`
	Outstanding      int            `json:"outstanding"`
}

// Derive computes the full view model for p under f.
func Derive(p *models.GradesResponse, f Filter) View {
	f = f.Normalize()
	filtered := FilterGrades(p, f)
	total, outstanding := AssignmentCounts(p, len(filtered))
	return View{
		FilteredGrades:   filtered,
		OverallAverage:   OverallAverage(p),
		UniqueSubjects:   UniqueSubjects(p),
		TotalAssignments: total,
		Completed:        len(filtered),
		Outstanding:      outstanding,
	}
}

// OverallAverage returns the server's overall average when supplied, else the
// mean percent of the unfiltered grade list, else 0.
func OverallAverage(p *models.GradesResponse) float64 {
	if p == nil {
		return 0
	}
	if p.Aggregates != nil && p.Aggregates.OverallAverage != nil {
		return *p.Aggregates.OverallAverage
	}
	if len(p.Grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range p.Grades {
		sum += g.Percent
	}
	return sum / float64(len(p.Grades))
}

// FilterGrades returns the grades matching f, newest date first. Dates are
// compared as strings; a missing date sorts after every dated entry.
// The result never shares a backing array with p.Grades.
func FilterGrades(p *models.GradesResponse, f Filter) []models.Grade {
	out := []models.Grade{}
	if p == nil {
		return out
	}
	f = f.Normalize()
	for _, g := range p.Grades {
		if f.matches(g) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// UniqueSubjects returns the subject names for the filter control: the
// server's subject aggregates in their given order if any, otherwise the
// distinct grade subjects in first-occurrence order.
func UniqueSubjects(p *models.GradesResponse) []string {
	out := []string{}
	if p == nil {
		return out
	}
	if len(p.Subjects) > 0 {
		for _, s := range p.Subjects {
			out = append(out, s.Subject)
		}
		return out
	}
	seen := make(map[string]struct{}, len(p.Grades))
	for _, g := range p.Grades {
		if _, ok := seen[g.Subject]; ok {
			continue
		}
		seen[g.Subject] = struct{}{}
		out = append(out, g.Subject)
	}
	return out
}

// AssignmentCounts returns the total and outstanding assignment counts.
//
// Total is the server's totalAssignments, or filteredLen when absent.
// Outstanding is the server's value, or max(0, totalAssignments - filteredLen)
// with a missing totalAssignments counted as 0. That fallback reports 0 for a
// payload without aggregates; it is kept as-is.
func AssignmentCounts(p *models.GradesResponse, filteredLen int) (total, outstanding int) {
	var agg *models.Aggregates
	if p != nil {
		agg = p.Aggregates
	}

	total = filteredLen
	serverTotal := 0
	if agg != nil && agg.TotalAssignments != nil {
		total = *agg.TotalAssignments
		serverTotal = *agg.TotalAssignments
	}

	if agg != nil && agg.Outstanding != nil {
		return total, *agg.Outstanding
	}
	return total, max(0, serverTotal-filteredLen)
}
