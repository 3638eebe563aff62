package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRequestLogMiddleware_AssignsID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/api/workouts", nil)
	rr := httptest.NewRecorder()
	RequestLogMiddleware(newTestLogger(&buf))(handler).ServeHTTP(rr, req)

	id := rr.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("response request id %q is not a uuid: %v", id, err)
	}
	if seen != id {
		t.Errorf("context id = %q, header id = %q", seen, id)
	}

	line := buf.String()
	for _, want := range []string{"request_id=" + id, "method=POST", "path=/api/workouts", "status=201"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestRequestLogMiddleware_ReusesIncomingID(t *testing.T) {
	var buf bytes.Buffer
	incoming := uuid.NewString()

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rr := httptest.NewRecorder()
	RequestLogMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("request id = %q, want %q", got, incoming)
	}
	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("implicit 200 not logged: %q", buf.String())
	}
}

func TestRequestLogMiddleware_RejectsMalformedID(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest("GET", "/api/sessions", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nforged=1")
	rr := httptest.NewRecorder()
	RequestLogMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})).ServeHTTP(rr, req)

	got := rr.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("malformed id was not replaced: %q", got)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("5xx should log at error level: %q", buf.String())
	}
}
