package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

// Feature: run-tracker, Property 12: security headers
// *For any* API route, method and outcome, including responses written
// without an explicit status, every header in SecurityHeaders is present and
// the handler's status and body pass through unchanged.

var apiRoutes = []string{
	"/api/v1/sessions",
	"/api/v1/sessions/all",
	"/api/v1/sessions.csv",
	"/api/v1/sessions/sort-toggle",
	"/api/v1/sessions/renumber",
	"/api/v1/workouts",
	"/api/v1/planned",
	"/healthz",
}

func TestSecurityHeaders_Property12(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		method := rapid.SampledFrom([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}).Draw(t, "method")
		path := rapid.SampledFrom(apiRoutes).Draw(t, "route")
		if rapid.Bool().Draw(t, "withID") {
			path += "/" + strconv.Itoa(rapid.IntRange(1, 1000).Draw(t, "id"))
		}
		status := rapid.SampledFrom([]int{0, 200, 201, 204, 400, 401, 404, 405, 429, 500}).Draw(t, "status")
		body := rapid.StringMatching(`\{"[a-z_]{1,12}":[0-9]{1,4}\}`).Draw(t, "body")

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status != 0 {
				w.WriteHeader(status)
			}
			if status != http.StatusNoContent {
				w.Write([]byte(body))
			}
		})

		rr := httptest.NewRecorder()
		SecurityHeadersMiddleware(handler).ServeHTTP(rr, httptest.NewRequest(method, path, nil))

		for header, want := range SecurityHeaders {
			if got := rr.Header().Get(header); got != want {
				t.Fatalf("%s %s: %s = %q, want %q", method, path, header, got, want)
			}
		}
		wantStatus := status
		if wantStatus == 0 {
			wantStatus = http.StatusOK
		}
		if rr.Code != wantStatus {
			t.Fatalf("status = %d, want %d", rr.Code, wantStatus)
		}
		if status != http.StatusNoContent && rr.Body.String() != body {
			t.Fatalf("body = %q, want %q", rr.Body.String(), body)
		}
	})
}
