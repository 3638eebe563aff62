package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		method     string
		path       string
		wantStatus int
		wantDB     string
	}{
		{"no store", nil, "GET", "/healthz", http.StatusOK, "skipped"},
		{"store ok", stubPinger{}, "GET", "/healthz", http.StatusOK, "ok"},
		{"store down", stubPinger{err: errors.New("closed")}, "GET", "/healthz", http.StatusServiceUnavailable, "unreachable"},
		{"wrong method", stubPinger{}, "POST", "/healthz", http.StatusMethodNotAllowed, ""},
		{"wrong path", stubPinger{}, "GET", "/health", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			NewHealthHandler(tt.db).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantDB == "" {
				return
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", resp.Database, tt.wantDB)
			}
			if resp.OK != (tt.wantStatus == http.StatusOK) {
				t.Errorf("ok = %v for status %d", resp.OK, tt.wantStatus)
			}
		})
	}
}
