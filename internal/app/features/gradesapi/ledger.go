package gradesapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagrades/internal/app/system/normalize"
	"github.com/dalemusser/stratagrades/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// LedgerReader is the sync ledger surface the handler needs.
type LedgerReader interface {
	RecentForStudent(ctx context.Context, student string, limit int64) ([]ledgerstore.Entry, error)
	RecentErrors(ctx context.Context, limit int64) ([]ledgerstore.Entry, error)
}

// WithLedger enables GET /api/grades/ledger.
func (h *Handler) WithLedger(l LedgerReader) *Handler {
	h.ledger = l
	return h
}

type ledgerEntryJSON struct {
	RequestID    string    `json:"request_id"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Student      string    `json:"student,omitempty"`
	SyncID       string    `json:"sync_id,omitempty"`
	Count        int       `json:"count,omitempty"`
	StatusCode   int       `json:"status_code"`
	ErrorClass   string    `json:"error_class,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   float64   `json:"duration_ms"`
}

// Ledger handles GET /api/grades/ledger.
//
// With ?student=<id> it lists that student's recent ingest requests;
// without it, the most recent failed requests. ?limit caps the result (max 100).
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		jsonutil.NotFound(w, "Ledger is not enabled.")
		return
	}

	limit := int64(20)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "grades.ledger")
	defer cancel()

	var (
		entries []ledgerstore.Entry
		err     error
	)
	student := normalize.StudentID(r.URL.Query().Get("student"))
	if student != "" {
		entries, err = h.ledger.RecentForStudent(ctx, student, limit)
	} else {
		entries, err = h.ledger.RecentErrors(ctx, limit)
	}
	if err != nil {
		h.logger.Error("read sync ledger failed", zap.String("student", student), zap.Error(err))
		jsonutil.InternalError(w, "Failed to read ledger.")
		return
	}

	out := make([]ledgerEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryJSON{
			RequestID:    e.RequestID,
			Method:       e.Method,
			Path:         e.Path,
			Student:      e.Student,
			SyncID:       e.SyncID,
			Count:        e.Count,
			StatusCode:   e.StatusCode,
			ErrorClass:   e.ErrorClass,
			ErrorMessage: e.ErrorMessage,
			StartedAt:    e.StartedAt,
			DurationMs:   e.DurationMs,
		})
	}
	jsonutil.OK(w, map[string]any{"entries": out})
}
