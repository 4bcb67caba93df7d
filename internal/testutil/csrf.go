package testutil

import (
	"context"
	"net/http"
)

// csrfTokenKey matches the key gorilla/csrf stores the token under.
const csrfTokenKey = "gorilla.csrf.Token"

// TestCSRFToken is the token injected by WithCSRFToken.
const TestCSRFToken = "test-csrf-token-12345"

// WithCSRFToken adds a mock CSRF token to the request context so handlers
// that render forms (csrf.Token, viewdata.NewBaseVM) get a non-empty token.
//
//	req := testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
//	handler.ServeHTTP(rec, req)
func WithCSRFToken(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), csrfTokenKey, TestCSRFToken)
	return r.WithContext(ctx)
}
