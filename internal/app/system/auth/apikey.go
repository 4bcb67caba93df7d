// Package auth guards the machine-facing grades API with a shared API key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// APIKeyAuth returns middleware that requires "Authorization: Bearer <key>".
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
//	    r.Post("/api/grades/sync", h.Sync)
//	})
//
// Failures get 401 with a JSON error body. An empty validKey rejects every
// request.
func APIKeyAuth(validKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	if validKey == "" {
		logger.Warn("API key not configured - all API requests will be rejected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validKey == "" {
				logger.Warn("API request rejected: API key not configured",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				jsonutil.Unauthorized(w, "API authentication not configured")
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Debug("API request rejected: missing Authorization header",
					zap.String("path", r.URL.Path),
				)
				jsonutil.Unauthorized(w, "Missing Authorization header")
				return
			}

			scheme, key, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				logger.Debug("API request rejected: invalid Authorization format",
					zap.String("path", r.URL.Path),
				)
				jsonutil.Unauthorized(w, "Invalid Authorization format (expected: Bearer <api-key>)")
				return
			}

			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(key)), []byte(validKey)) != 1 {
				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				jsonutil.Unauthorized(w, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
