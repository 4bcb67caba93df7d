// internal/app/features/dashboard/handlers.go
package dashboard

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/stratagrades/internal/app/system/gradecsv"
	"github.com/dalemusser/stratagrades/internal/app/system/gradefetch"
	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagrades/internal/app/system/normalize"
	"github.com/dalemusser/stratagrades/internal/app/system/viewstate"
	"github.com/dalemusser/stratagrades/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ServeDashboard renders the grades dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	s := h.load(r)
	vm := buildVM(r, s)
	templates.Render(w, r, "dashboard/show", vm)
}

// HandleFilters saves the subject and minimum filters for this browser.
func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	f := gradeview.DefaultFilter()
	if h.sessions != nil {
		f = h.sessions.Filter(r)
	}
	if r.PostForm.Has("subject") {
		f.Subject = normalize.QueryParam(r.PostFormValue("subject"))
	}
	if v, ok := parseMinimum(r.PostFormValue("min")); ok {
		f.MinimumPercent = v
	}
	f = f.Normalize()

	if h.sessions != nil {
		if err := h.sessions.SaveFilter(w, r, f); err != nil {
			h.errLog.Log(r, "save dashboard filter failed", err)
		}
	}
	http.Redirect(w, r, dashboardURL(r.PostFormValue("student")), http.StatusSeeOther)
}

// HandleReset clears both filters together.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if h.sessions != nil {
		if err := h.sessions.ResetFilter(w, r); err != nil {
			h.errLog.Log(r, "reset dashboard filter failed", err)
		}
	}
	http.Redirect(w, r, dashboardURL(r.PostFormValue("student")), http.StatusSeeOther)
}

func dashboardURL(student string) string {
	student = normalize.StudentID(student)
	if student == "" {
		return "/dashboard"
	}
	return "/dashboard?" + url.Values{"student": {student}}.Encode()
}

// viewJSON is the view model handed to script-driven presentation.
type viewJSON struct {
	Phase       viewstate.Phase           `json:"phase"`
	Error       string                    `json:"error,omitempty"`
	Filter      gradeview.Filter          `json:"filter"`
	Session     viewstate.Badge           `json:"session"`
	LastUpdated string                    `json:"lastUpdated,omitempty"`
	Subjects    []models.SubjectAggregate `json:"subjects"`
	gradeview.View
}

// ServeViewJSON returns the derived view model as JSON. A failed fetch
// answers 502 with phase "errored".
func (h *Handler) ServeViewJSON(w http.ResponseWriter, r *http.Request) {
	s := h.load(r)
	out := viewJSON{
		Phase:    s.Phase,
		Error:    s.ErrMessage,
		Filter:   s.Filter,
		Session:  viewstate.SessionBadge(s),
		Subjects: []models.SubjectAggregate{},
		View:     viewstate.View(s),
	}
	if s.Phase == viewstate.Loaded && s.Payload != nil {
		out.LastUpdated = s.Payload.LastUpdated
		if len(s.Payload.Subjects) > 0 {
			out.Subjects = s.Payload.Subjects
		}
	}

	status := http.StatusOK
	if s.HasError() {
		status = http.StatusBadGateway
	}
	jsonutil.JSON(w, status, out)
}

// ServeCSV exports the filtered grades as CSV.
func (h *Handler) ServeCSV(w http.ResponseWriter, r *http.Request) {
	s := h.load(r)
	if s.HasError() {
		http.Error(w, gradefetch.UserMessage, http.StatusBadGateway)
		return
	}
	grades := viewstate.View(s).FilteredGrades

	filename := exportFilename(upstreamQuery(r).Get("student"), time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	if err := gradecsv.Write(w, grades, gradecsv.Options{BOM: true, CRLF: true}); err != nil {
		h.logger.Error("CSV write failed", zap.Error(err))
		return
	}
	h.logger.Info("grades CSV exported", zap.Int("rows", len(grades)))
}

func exportFilename(student string, now time.Time) string {
	name := "grades"
	if student = strings.TrimSpace(student); student != "" {
		name += "_" + student
	}
	return name + "_" + now.Format("20060102") + ".csv"
}
