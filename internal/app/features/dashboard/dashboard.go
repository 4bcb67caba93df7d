// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	errorsfeature "github.com/dalemusser/stratagrades/internal/app/features/errors"
	"github.com/dalemusser/stratagrades/internal/app/system/gradefetch"
	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/dalemusser/stratagrades/internal/app/system/normalize"
	"github.com/dalemusser/stratagrades/internal/app/system/timeouts"
	"github.com/dalemusser/stratagrades/internal/app/system/uisession"
	"github.com/dalemusser/stratagrades/internal/app/system/viewstate"
	"github.com/dalemusser/stratagrades/internal/domain/models"
	"go.uber.org/zap"
)

// Fetcher loads one grades payload. *gradefetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, query url.Values) (*models.GradesResponse, error)
}

// Handler provides dashboard handlers.
type Handler struct {
	fetcher  Fetcher
	sessions *uisession.Manager
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(fetcher Fetcher, sessions *uisession.Manager, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		fetcher:  fetcher,
		sessions: sessions,
		errLog:   errLog,
		logger:   logger,
	}
}

// load runs the single fetch for this request and returns the resolved state.
func (h *Handler) load(r *http.Request) viewstate.State {
	s := viewstate.WithFilter(viewstate.Initial(), h.filter(r))
	s = viewstate.BeginFetch(s)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Fetch(), h.logger, "grades fetch")
	defer cancel()

	payload, err := h.fetcher.Fetch(ctx, upstreamQuery(r))
	if err != nil {
		h.errLog.Log(r, "grades fetch failed", err)
		return viewstate.Failed(s, gradefetch.UserMessage)
	}
	return viewstate.Succeeded(s, payload)
}

// filter returns the browser's saved filter with any subject/min query
// parameters applied on top.
func (h *Handler) filter(r *http.Request) gradeview.Filter {
	f := gradeview.DefaultFilter()
	if h.sessions != nil {
		f = h.sessions.Filter(r)
	}

	q := r.URL.Query()
	if q.Has("subject") {
		f.Subject = normalize.QueryParam(q.Get("subject"))
	}
	if v, ok := parseMinimum(q.Get("min")); ok {
		f.MinimumPercent = v
	}
	return f.Normalize()
}

// parseMinimum accepts a percent between 0 and 100.
func parseMinimum(s string) (float64, bool) {
	s = normalize.QueryParam(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// upstreamQuery carries the student selector through to the grades endpoint.
func upstreamQuery(r *http.Request) url.Values {
	q := url.Values{}
	if student := normalize.StudentID(r.URL.Query().Get("student")); student != "" {
		q.Set("student", student)
	}
	return q
}

// filterQuery encodes f (and the student selector) as dashboard query params.
func filterQuery(r *http.Request, f gradeview.Filter) url.Values {
	q := upstreamQuery(r)
	if f.Subject != gradeview.AllSubjects {
		q.Set("subject", f.Subject)
	}
	if f.MinimumPercent > 0 {
		q.Set("min", strconv.FormatFloat(f.MinimumPercent, 'f', -1, 64))
	}
	return q
}
