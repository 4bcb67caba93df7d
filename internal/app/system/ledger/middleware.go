// internal/app/system/ledger/middleware.go
package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ctxKey is the context key type for ledger data.
type ctxKey int

const ctxKeyEntry ctxKey = iota

// Recorder persists finished entries. *ledgerstore.Store satisfies it.
type Recorder interface {
	Create(ctx context.Context, entry ledgerstore.Entry) error
}

// Config holds configuration for the ledger middleware.
type Config struct {
	Store  Recorder
	Logger *zap.Logger

	// MaxBodyBytes caps how much of the request body is hashed.
	// Zero disables body capture.
	MaxBodyBytes int64

	// HeadersToCapture lists header names to keep. Authorization is redacted.
	HeadersToCapture []string

	// OnlyErrors records only responses with status >= 400.
	OnlyErrors bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(store Recorder, logger *zap.Logger) Config {
	return Config{
		Store:        store,
		Logger:       logger,
		MaxBodyBytes: 1 << 20,
		HeadersToCapture: []string{
			"Content-Type",
			"User-Agent",
			"X-Request-ID",
			"Authorization",
		},
	}
}

// Middleware returns HTTP middleware that records each request in the ledger.
// Entries are written after the response on a background goroutine.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := &ledgerstore.Entry{
				RequestID:       uuid.New().String(),
				ClientRequestID: r.Header.Get("X-Request-ID"),
				Method:          r.Method,
				Path:            r.URL.Path,
				Headers:         captureHeaders(r, cfg.HeadersToCapture),
				RemoteIP:        extractIP(r),
				StartedAt:       start,
			}

			if cfg.MaxBodyBytes > 0 && r.Body != nil && r.ContentLength != 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, cfg.MaxBodyBytes+1))
				if err == nil {
					entry.RequestBodySize = int64(len(body))
					if len(body) > 0 {
						sum := sha256.Sum256(body)
						entry.RequestBodyHash = hex.EncodeToString(sum[:])[:8]
					}
					r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
				}
			}

			r = r.WithContext(context.WithValue(r.Context(), ctxKeyEntry, entry))
			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			entry.StatusCode = wrapped.statusCode
			entry.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0
			if wrapped.statusCode >= 400 && entry.ErrorClass == "" {
				entry.ErrorClass = classify(wrapped.statusCode)
			}
			if cfg.OnlyErrors && wrapped.statusCode < 400 {
				return
			}
			if cfg.Store == nil {
				return
			}

			done := *entry
			go func() {
				storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := cfg.Store.Create(storeCtx, done); err != nil {
					logger.Error("failed to store ledger entry",
						zap.String("request_id", done.RequestID),
						zap.Error(err))
				}
			}()
		})
	}
}

func classify(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "validation"
	case status == http.StatusUnauthorized:
		return "auth"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "internal"
	default:
		return "client_error"
	}
}

func captureHeaders(r *http.Request, names []string) map[string]string {
	if len(names) == 0 {
		return nil
	}
	headers := make(map[string]string)
	for _, name := range names {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		if strings.EqualFold(name, "Authorization") {
			value = "[redacted]"
		}
		headers[name] = value
	}
	return headers
}

// responseWrapper wraps http.ResponseWriter to capture the status code.
type responseWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWrapper) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// extractIP extracts the client IP from the request.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func entryFrom(ctx context.Context) *ledgerstore.Entry {
	entry, _ := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry)
	return entry
}

// SetSync records which student and sync a request belongs to.
func SetSync(ctx context.Context, student, syncID string, count int) {
	if entry := entryFrom(ctx); entry != nil {
		entry.Student = student
		entry.SyncID = syncID
		entry.Count = count
	}
}

// SetStudent records the student a request refers to.
func SetStudent(ctx context.Context, student string) {
	if entry := entryFrom(ctx); entry != nil {
		entry.Student = student
	}
}

// SetError records an error class and a safe message for the entry.
func SetError(ctx context.Context, class, message string) {
	if entry := entryFrom(ctx); entry != nil {
		entry.ErrorClass = class
		entry.ErrorMessage = message
	}
}

// GetRequestID returns the ledger request ID for the current request.
func GetRequestID(ctx context.Context) string {
	if entry := entryFrom(ctx); entry != nil {
		return entry.RequestID
	}
	return ""
}
