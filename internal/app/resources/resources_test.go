package resources

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssets(t *testing.T) {
	if _, err := fs.Stat(Assets(), "css/app.css"); err != nil {
		t.Fatalf("css/app.css missing: %v", err)
	}
}

func TestAssetsHandler(t *testing.T) {
	h := AssetsHandler("/assets")

	req := httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}
}

func TestAssetsHandler_NotFound(t *testing.T) {
	h := AssetsHandler("/assets")

	req := httptest.NewRequest(http.MethodGet, "/assets/css/missing.css", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
