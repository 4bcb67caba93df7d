// Package gradesapi serves the grades payload consumed by the dashboard and
// accepts grade syncs pushed by the school-system scraper.
//
// Endpoints:
//   - GET  /grades?student=<id>   - grades payload (public)
//   - POST /api/grades/sync       - replace a student's grades (API key)
//   - POST /api/grades/session    - report the upstream session state (API key)
//   - GET  /api/grades/ledger     - recent ingest requests (API key)
package gradesapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gradestore "github.com/dalemusser/stratagrades/internal/app/store/grades"
	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
	syncstatestore "github.com/dalemusser/stratagrades/internal/app/store/syncstate"
	"github.com/dalemusser/stratagrades/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratagrades/internal/app/system/inputval"
	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagrades/internal/app/system/ledger"
	"github.com/dalemusser/stratagrades/internal/app/system/normalize"
	"github.com/dalemusser/stratagrades/internal/app/system/timeouts"
	"github.com/dalemusser/stratagrades/internal/app/system/txn"
	"github.com/dalemusser/stratagrades/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Client-facing error messages.
const (
	MsgNoSession   = "No grade source session found. Please log in again."
	MsgFetchFailed = "Failed to fetch grades."
	MsgSyncFailed  = "Failed to store grades."
)

// GradeReplacer is the grade store surface the handler needs.
type GradeReplacer interface {
	ReplaceForStudent(ctx context.Context, studentID, syncID string, grades []models.Grade) (int, error)
	ListForStudent(ctx context.Context, studentID string) ([]gradestore.Record, error)
}

// SyncStates is the sync state store surface the handler needs.
type SyncStates interface {
	Get(ctx context.Context, studentID string) (*syncstatestore.State, error)
	Upsert(ctx context.Context, in syncstatestore.SyncInput) (*syncstatestore.State, error)
	SetSession(ctx context.Context, studentID string, status models.SessionStatus, user string) error
}

// UnitRunner runs fn as one unit of work: all of its writes commit or none do.
type UnitRunner func(ctx context.Context, fn txn.Func) error

// Handler handles grades API requests.
type Handler struct {
	grades         GradeReplacer
	states         SyncStates
	ledger         LedgerReader
	inUnit         UnitRunner
	defaultStudent string
	logger         *zap.Logger
}

// NewHandler creates a gradesapi handler backed by MongoDB.
func NewHandler(db *mongo.Database, defaultStudent string, logger *zap.Logger) *Handler {
	h := NewHandlerWithStores(gradestore.New(db, logger), syncstatestore.New(db), defaultStudent, logger).
		WithLedger(ledgerstore.New(db))
	h.inUnit = func(ctx context.Context, fn txn.Func) error {
		return txn.Run(ctx, db, h.logger, fn)
	}
	return h
}

// WithUnitRunner sets how Sync groups its writes. The default runs them
// back to back with no transaction.
func (h *Handler) WithUnitRunner(run UnitRunner) *Handler {
	h.inUnit = run
	return h
}

// NewHandlerWithStores creates a handler over explicit stores.
func NewHandlerWithStores(grades GradeReplacer, states SyncStates, defaultStudent string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		grades:         grades,
		states:         states,
		inUnit:         func(ctx context.Context, fn txn.Func) error { return fn(ctx) },
		defaultStudent: normalize.StudentID(defaultStudent),
		logger:         logger,
	}
}

// GetGrades handles GET /grades.
//
// A student that has never synced has no grade source session: 401 with
// MsgNoSession. Store failures are 500 with MsgFetchFailed.
func (h *Handler) GetGrades(w http.ResponseWriter, r *http.Request) {
	student := normalize.StudentID(r.URL.Query().Get("student"))
	if student == "" {
		student = h.defaultStudent
	}
	if student == "" {
		jsonutil.Unauthorized(w, MsgNoSession)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "grades.get")
	defer cancel()

	st, err := h.states.Get(ctx, student)
	if errors.Is(err, syncstatestore.ErrNotFound) {
		h.logger.Info("grades requested for student without sync",
			zap.String("student", student))
		jsonutil.Unauthorized(w, MsgNoSession)
		return
	}
	if err != nil {
		h.logger.Error("load sync state failed", zap.String("student", student), zap.Error(err))
		jsonutil.InternalError(w, MsgFetchFailed)
		return
	}

	records, err := h.grades.ListForStudent(ctx, student)
	if err != nil {
		h.logger.Error("list grades failed", zap.String("student", student), zap.Error(err))
		jsonutil.InternalError(w, MsgFetchFailed)
		return
	}

	jsonutil.OK(w, BuildPayload(records, st))
}

type syncGradeInput struct {
	Subject   string    `json:"subject" validate:"required,max=200" label:"Subject"`
	Title     string    `json:"title" validate:"required,max=500" label:"Title"`
	Percent   *float64  `json:"percent" validate:"omitempty,gte=0,lte=1000" label:"Percent"`
	Date      string    `json:"date" validate:"omitempty,max=40" label:"Date"`
	Score     *float64  `json:"score" validate:"omitempty,gte=0" label:"Score"`
	MaxPoints *float64  `json:"max_points" validate:"omitempty,gt=0" label:"Max points"`
	Trend     []float64 `json:"trend" validate:"omitempty,max=100" label:"Trend"`
}

type syncInput struct {
	Student       string           `json:"student" validate:"required,max=128" label:"Student"`
	User          string           `json:"user" validate:"omitempty,max=200" label:"User"`
	SessionStatus string           `json:"session_status" validate:"omitempty,sessionstatus" label:"Session status"`
	Grades        []syncGradeInput `json:"grades" validate:"max=5000,dive" label:"Grades"`
}

// Sync handles POST /api/grades/sync.
//
// Request body:
//
//	{
//	    "student": "s-123",
//	    "user": "Ada Lovelace",
//	    "session_status": "active",
//	    "grades": [
//	        {"subject": "Math", "title": "Quiz 1", "score": 8, "max_points": 10, "date": "2024-01-10"}
//	    ]
//	}
//
// Response (200 OK):
//
//	{"sync_id": "…", "student": "s-123", "count": 1}
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var in syncInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Student = normalize.StudentID(in.Student)
	in.SessionStatus = normalize.Status(in.SessionStatus)
	ledger.SetStudent(r.Context(), in.Student)

	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	grades, fieldErrs := toGrades(in.Grades)
	if len(fieldErrs) > 0 {
		jsonutil.ValidationError(w, fieldErrs)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.logger, "grades.sync")
	defer cancel()

	syncID := uuid.NewString()
	start := time.Now()

	// The state goes first so a failed sync on a server without
	// transactions never leaves grades behind for an unknown student.
	var count int
	err := h.inUnit(ctx, func(ctx context.Context) error {
		if _, err := h.states.Upsert(ctx, syncstatestore.SyncInput{
			StudentID:     in.Student,
			User:          htmlsanitize.PlainText(in.User),
			SessionStatus: models.SessionStatus(in.SessionStatus),
			SyncID:        syncID,
		}); err != nil {
			return fmt.Errorf("upsert sync state: %w", err)
		}
		n, err := h.grades.ReplaceForStudent(ctx, in.Student, syncID, grades)
		if err != nil {
			return fmt.Errorf("replace grades: %w", err)
		}
		count = n
		return nil
	})
	if err != nil {
		h.logger.Error("grade sync failed",
			zap.String("student", in.Student),
			zap.String("sync_id", syncID),
			zap.Error(err))
		ledger.SetError(r.Context(), "store", err.Error())
		jsonutil.InternalError(w, MsgSyncFailed)
		return
	}

	ledger.SetSync(r.Context(), in.Student, syncID, count)
	h.logger.Info("grades synced",
		zap.String("student", in.Student),
		zap.String("sync_id", syncID),
		zap.Int("count", count),
		zap.Duration("took", time.Since(start)))

	jsonutil.OK(w, map[string]any{
		"sync_id": syncID,
		"student": in.Student,
		"count":   count,
	})
}

// toGrades sanitizes the input text and fills in percent from score and
// max_points when it is missing.
func toGrades(in []syncGradeInput) ([]models.Grade, map[string]string) {
	out := make([]models.Grade, 0, len(in))
	errs := map[string]string{}

	for i, g := range in {
		subject := htmlsanitize.PlainText(g.Subject)
		title := htmlsanitize.PlainText(g.Title)
		if subject == "" {
			errs[fmt.Sprintf("grades[%d].subject", i)] = "Subject is required."
		}
		if title == "" {
			errs[fmt.Sprintf("grades[%d].title", i)] = "Title is required."
		}

		var percent float64
		switch {
		case g.Percent != nil:
			percent = *g.Percent
		case g.Score != nil && g.MaxPoints != nil:
			percent = derivePercent(*g.Score, *g.MaxPoints)
		default:
			errs[fmt.Sprintf("grades[%d].percent", i)] = "Percent is required when score and max_points are missing."
		}

		out = append(out, models.Grade{
			Subject:   subject,
			Title:     title,
			Percent:   percent,
			Date:      htmlsanitize.PlainText(g.Date),
			Trend:     g.Trend,
			Score:     g.Score,
			MaxPoints: g.MaxPoints,
		})
	}
	return out, errs
}

type sessionInput struct {
	Student       string `json:"student" validate:"required,max=128" label:"Student"`
	SessionStatus string `json:"session_status" validate:"required,sessionstatus" label:"Session status"`
	User          string `json:"user" validate:"omitempty,max=200" label:"User"`
}

// UpdateSession handles POST /api/grades/session. It changes only the
// session status (and user) shown with the student's grades.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var in sessionInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Student = normalize.StudentID(in.Student)
	in.SessionStatus = normalize.Status(in.SessionStatus)
	ledger.SetStudent(r.Context(), in.Student)

	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "grades.session")
	defer cancel()

	status := models.SessionStatus(in.SessionStatus)
	err := h.states.SetSession(ctx, in.Student, status, htmlsanitize.PlainText(in.User))
	if errors.Is(err, syncstatestore.ErrNotFound) {
		jsonutil.NotFound(w, "Unknown student.")
		return
	}
	if err != nil {
		h.logger.Error("set session failed", zap.String("student", in.Student), zap.Error(err))
		jsonutil.InternalError(w, "Failed to update session.")
		return
	}

	h.logger.Info("grade session updated",
		zap.String("student", in.Student),
		zap.String("status", in.SessionStatus))

	jsonutil.OK(w, map[string]string{
		"student":        in.Student,
		"session_status": in.SessionStatus,
	})
}
