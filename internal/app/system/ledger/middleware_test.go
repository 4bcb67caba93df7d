package ledger

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
)

type chanRecorder struct {
	entries chan ledgerstore.Entry
}

func newChanRecorder() *chanRecorder {
	return &chanRecorder{entries: make(chan ledgerstore.Entry, 4)}
}

func (c *chanRecorder) Create(_ context.Context, e ledgerstore.Entry) error {
	c.entries <- e
	return nil
}

func (c *chanRecorder) next(t *testing.T) ledgerstore.Entry {
	t.Helper()
	select {
	case e := <-c.entries:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no ledger entry recorded")
		return ledgerstore.Entry{}
	}
}

func TestMiddleware_RecordsEntry(t *testing.T) {
	rec := newChanRecorder()
	var seenBody string

	h := Middleware(DefaultConfig(rec, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		SetSync(r.Context(), "s1", "sync-1", 3)
		if GetRequestID(r.Context()) == "" {
			t.Error("GetRequestID should be set inside the handler")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/grades/sync", strings.NewReader(`{"student":"s1"}`))
	req.Header.Set("Authorization", "Bearer secret-key")
	req.Header.Set("X-Request-ID", "client-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seenBody != `{"student":"s1"}` {
		t.Errorf("handler body = %q, want original body", seenBody)
	}

	e := rec.next(t)
	if e.Student != "s1" || e.SyncID != "sync-1" || e.Count != 3 {
		t.Errorf("entry sync fields = %q/%q/%d", e.Student, e.SyncID, e.Count)
	}
	if e.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", e.StatusCode)
	}
	if e.Headers["Authorization"] != "[redacted]" {
		t.Errorf("Authorization = %q, want redacted", e.Headers["Authorization"])
	}
	if e.ClientRequestID != "client-1" {
		t.Errorf("ClientRequestID = %q, want client-1", e.ClientRequestID)
	}
	if e.RequestBodySize != int64(len(`{"student":"s1"}`)) || len(e.RequestBodyHash) != 8 {
		t.Errorf("body size/hash = %d/%q", e.RequestBodySize, e.RequestBodyHash)
	}
}

func TestMiddleware_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		class  string
	}{
		{http.StatusBadRequest, "validation"},
		{http.StatusUnauthorized, "auth"},
		{http.StatusNotFound, "not_found"},
		{http.StatusInternalServerError, "internal"},
		{http.StatusConflict, "client_error"},
	}

	for _, tt := range tests {
		rec := newChanRecorder()
		h := Middleware(Config{Store: rec})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/grades/x", nil))

		if e := rec.next(t); e.ErrorClass != tt.class {
			t.Errorf("status %d: ErrorClass = %q, want %q", tt.status, e.ErrorClass, tt.class)
		}
	}
}

func TestMiddleware_HandlerErrorWins(t *testing.T) {
	rec := newChanRecorder()
	h := Middleware(Config{Store: rec})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetError(r.Context(), "store", "replace failed")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/grades/sync", nil))

	e := rec.next(t)
	if e.ErrorClass != "store" || e.ErrorMessage != "replace failed" {
		t.Errorf("error = %q/%q", e.ErrorClass, e.ErrorMessage)
	}
}

func TestMiddleware_OnlyErrors(t *testing.T) {
	rec := newChanRecorder()
	h := Middleware(Config{Store: rec, OnlyErrors: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/grades/x", nil))

	select {
	case e := <-rec.entries:
		t.Errorf("unexpected entry for 200 response: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSetters_NoEntryIsNoop(t *testing.T) {
	ctx := context.Background()
	SetSync(ctx, "s1", "x", 1)
	SetStudent(ctx, "s1")
	SetError(ctx, "a", "b")
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := extractIP(req); got != "10.0.0.1" {
		t.Errorf("extractIP() = %q, want 10.0.0.1", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := extractIP(req); got != "203.0.113.9" {
		t.Errorf("extractIP() = %q, want 203.0.113.9", got)
	}
}
