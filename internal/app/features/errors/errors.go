// internal/app/features/errors/errors.go
package errors

import (
	"net/http"
	"strings"

	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagrades/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for request-scoped error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs err with the request path and method.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// pageVM is the view model for the error page.
type pageVM struct {
	viewdata.BaseVM
	Code    int
	Heading string
	Message string
}

// Handler renders error responses: JSON for API clients, HTML otherwise.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Not Found", "The page you asked for does not exist.")
}

// MethodNotAllowed renders the 405 page.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "That action is not available here.")
}

// Forbidden renders the 403 page. CSRF failures land here.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Access Denied", "Your form expired. Reload the page and try again.")
}

// InternalError renders the 500 page.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "Server Error", "Something went wrong on our side.")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, code int, heading, message string) {
	if wantsJSON(r) {
		jsonutil.Error(w, code, heading)
		return
	}

	vm := pageVM{
		BaseVM:  viewdata.NewBaseVM(r, heading, "/"),
		Code:    code,
		Heading: heading,
		Message: message,
	}
	w.WriteHeader(code)
	templates.Render(w, r, "errors/page", vm)
}

// wantsJSON reports whether the client is an API consumer.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/grades" || strings.HasSuffix(r.URL.Path, ".json") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
