// internal/app/features/dashboard/view.go
package dashboard

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratagrades/internal/app/system/charts"
	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/dalemusser/stratagrades/internal/app/system/viewdata"
	"github.com/dalemusser/stratagrades/internal/app/system/viewstate"
	"github.com/dalemusser/stratagrades/internal/domain/models"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type subjectCard struct {
	Subject string
	Average string
	Latest  string
	Best    string
	Spark   charts.Spark
}

type gradeCard struct {
	Key     string
	Subject string
	Title   string
	Percent string
	Tone    string
	Date    string
	Points  string
	Latest  string
	Spark   charts.Spark
}

type dashboardVM struct {
	viewdata.BaseVM

	Phase      viewstate.Phase
	Loading    bool
	HasError   bool
	ErrMessage string
	RetryURL   string

	Badge       viewstate.Badge
	LastUpdated string

	Gauge            charts.Gauge
	Average          string
	TotalAssignments int
	Completed        int
	Outstanding      int

	Student        string
	SubjectOptions []option
	MinimumOptions []option
	FilterActive   bool

	Subjects  []subjectCard
	Grades    []gradeCard
	ExportURL string
}

func buildVM(r *http.Request, s viewstate.State) dashboardVM {
	v := viewstate.View(s)

	vm := dashboardVM{
		BaseVM:           viewdata.NewBaseVM(r, "Grades", "/dashboard"),
		Phase:            s.Phase,
		Loading:          s.IsLoading(),
		HasError:         s.HasError(),
		ErrMessage:       s.ErrMessage,
		RetryURL:         r.URL.RequestURI(),
		Badge:            viewstate.SessionBadge(s),
		Gauge:            charts.Radial(v.OverallAverage, 96),
		Average:          formatPercent(v.OverallAverage),
		TotalAssignments: v.TotalAssignments,
		Completed:        v.Completed,
		Outstanding:      v.Outstanding,
		Student:          upstreamQuery(r).Get("student"),
		FilterActive:     !s.Filter.IsDefault(),
	}

	vm.SubjectOptions = append(vm.SubjectOptions, option{
		Value:    gradeview.AllSubjects,
		Label:    "All subjects",
		Selected: s.Filter.Subject == gradeview.AllSubjects,
	})
	for _, subj := range v.UniqueSubjects {
		vm.SubjectOptions = append(vm.SubjectOptions, option{
			Value:    subj,
			Label:    subj,
			Selected: s.Filter.Subject == subj,
		})
	}
	for _, m := range gradeview.MinimumOptions {
		label := "Any"
		if m > 0 {
			label = formatPercent(m) + "+"
		}
		vm.MinimumOptions = append(vm.MinimumOptions, option{
			Value:    strconv.FormatFloat(m, 'f', -1, 64),
			Label:    label,
			Selected: s.Filter.MinimumPercent == m,
		})
	}

	if s.Phase == viewstate.Loaded && s.Payload != nil {
		vm.LastUpdated = formatUpdated(s.Payload.LastUpdated)
		for _, agg := range s.Payload.Subjects {
			vm.Subjects = append(vm.Subjects, subjectCard{
				Subject: agg.Subject,
				Average: formatPercent(agg.Average),
				Latest:  formatOptional(agg.Latest),
				Best:    formatOptional(agg.Best),
				Spark:   charts.Sparkline(agg.Trend),
			})
		}
	}

	for _, g := range v.FilteredGrades {
		vm.Grades = append(vm.Grades, gradeCard{
			Key:     g.Key(),
			Subject: g.Subject,
			Title:   g.Title,
			Percent: formatPercent(g.Percent),
			Tone:    tone(g.Percent),
			Date:    g.Date,
			Points:  formatPoints(g),
			Latest:  formatPercent(g.LatestTrend()),
			Spark:   charts.Sparkline(g.Trend),
		})
	}

	export := "/dashboard/export.csv"
	if q := filterQuery(r, s.Filter); len(q) > 0 {
		export += "?" + q.Encode()
	}
	vm.ExportURL = export

	return vm
}

// formatPercent renders at most one decimal place.
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64) + "%"
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatPercent(*v)
}

func formatPoints(g models.Grade) string {
	if g.Score == nil || g.MaxPoints == nil {
		return ""
	}
	return strconv.FormatFloat(*g.Score, 'f', -1, 64) + "/" + strconv.FormatFloat(*g.MaxPoints, 'f', -1, 64)
}

// formatUpdated shows RFC 3339 timestamps in a readable form and anything
// else verbatim.
func formatUpdated(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

func tone(percent float64) string {
	switch {
	case percent >= 80:
		return "good"
	case percent >= 60:
		return "warn"
	default:
		return "bad"
	}
}
