package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	handleOpenAPI()(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`"openapi":"3.0`,
		"BingoHall API",
		"/api/claims",
		"/api/rounds/active",
		"/api/admin/rounds/start",
		"/api/admin/claims/{claimID}/approve",
		"/healthz",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("spec is missing %q", want)
		}
	}
}
