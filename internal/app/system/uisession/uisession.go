// Package uisession keeps per-browser dashboard state (the grade filter) in
// a signed cookie session.
package uisession

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session error classification for logging.
type sessionErrorType int

const (
	sessionErrUnknown   sessionErrorType = iota
	sessionErrExpired                    // timestamp expired; normal
	sessionErrTampered                   // MAC invalid
	sessionErrCorrupted                  // decode failed or key rotated
	sessionErrBackend
)

const (
	subjectKey    = "filter_subject"
	minPercentKey = "filter_min_percent"

	// DefaultName is the cookie name used when none is configured.
	DefaultName = "stratagrades-session"
)

// ConfigError is returned when the session configuration is unusable.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Manager reads and writes dashboard filter state.
type Manager struct {
	store  *sessions.CookieStore
	logger *zap.Logger
	name   string
}

// NewManager creates a Manager.
//
// sessionKey signs the cookie and must be at least 32 characters and not a
// placeholder when secure is true. In dev a weak key is only logged.
func NewManager(sessionKey, name string, maxAge time.Duration, secure bool, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionKey == "" {
		return nil, &ConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	weak := len(sessionKey) < 32 || isDefaultKey(sessionKey)
	if secure && weak {
		return nil, &ConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	}
	if weak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", isDefaultKey(sessionKey)))
	}

	if name == "" {
		name = DefaultName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("ui session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name))

	return &Manager{store: store, logger: logger, name: name}, nil
}

// Name returns the cookie name.
func (m *Manager) Name() string {
	return m.name
}

// Filter returns the stored filter, or the default filter when the browser
// has none or its cookie cannot be read.
func (m *Manager) Filter(r *http.Request) gradeview.Filter {
	sess := m.session(r)
	f := gradeview.DefaultFilter()
	if v, ok := sess.Values[subjectKey].(string); ok {
		f.Subject = v
	}
	if v, ok := sess.Values[minPercentKey].(float64); ok {
		f.MinimumPercent = v
	}
	return f.Normalize()
}

// SaveFilter stores f for the browser.
func (m *Manager) SaveFilter(w http.ResponseWriter, r *http.Request, f gradeview.Filter) error {
	f = f.Normalize()
	sess := m.session(r)
	sess.Values[subjectKey] = f.Subject
	sess.Values[minPercentKey] = f.MinimumPercent
	return sess.Save(r, w)
}

// ResetFilter restores the default filter.
func (m *Manager) ResetFilter(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r)
	delete(sess.Values, subjectKey)
	delete(sess.Values, minPercentKey)
	return sess.Save(r, w)
}

// session always returns a usable session; read errors start a fresh one.
func (m *Manager) session(r *http.Request) *sessions.Session {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		m.logSessionError(r, err)
	}
	if sess == nil {
		sess = sessions.NewSession(m.store, m.name)
		sess.Options = m.store.Options
	}
	return sess
}

func (m *Manager) logSessionError(r *http.Request, err error) {
	errType, category := classifySessionError(err)
	switch errType {
	case sessionErrExpired:
		m.logger.Debug("session expired, starting fresh session",
			zap.String("category", category),
			zap.String("path", r.URL.Path))
	case sessionErrTampered:
		m.logger.Warn("session MAC validation failed (possible tampering)",
			zap.String("category", category),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))
	case sessionErrCorrupted:
		m.logger.Info("session decode failed, starting fresh session",
			zap.String("category", category),
			zap.String("path", r.URL.Path))
	default:
		m.logger.Error("session store error, starting fresh session",
			zap.Error(err),
			zap.String("path", r.URL.Path))
	}
}

func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}

	scErr, ok := err.(securecookie.Error)
	if !ok {
		return sessionErrBackend, "unknown"
	}
	if !scErr.IsDecode() {
		return sessionErrBackend, "backend"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return sessionErrExpired, "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return sessionErrTampered, "mac_invalid"
	case strings.Contains(msg, "decrypt"):
		return sessionErrCorrupted, "decrypt_failed"
	case strings.Contains(msg, "base64") || strings.Contains(msg, "decode"):
		return sessionErrCorrupted, "decode_failed"
	default:
		return sessionErrCorrupted, "decode_other"
	}
}
