// Package apicors provides CORS middleware for the grades API.
//
// The API authenticates with an API key rather than cookies, so any origin
// may call it and credentials are never allowed. Built on go-chi/cors.
package apicors

import (
	"net/http"

	"github.com/go-chi/cors"
)

var (
	allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	allowedHeaders = []string{"Authorization", "Content-Type", "Accept"}
)

// Middleware allows any origin without credentials.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
//	})
func Middleware() func(http.Handler) http.Handler {
	return MiddlewareWithOrigins("*")
}

// MiddlewareWithOrigins restricts CORS to the listed origins.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		AllowCredentials: false,
		MaxAge:           86400,
	})
}
