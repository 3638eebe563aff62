package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifyAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		want     bool
	}{
		{"valid key", "test-api-key-32-chars-minimum!!", "test-api-key-32-chars-minimum!!", true},
		{"invalid key", "wrong-key", "test-api-key-32-chars-minimum!!", false},
		{"empty provided", "", "test-api-key-32-chars-minimum!!", false},
		{"empty expected", "test-api-key-32-chars-minimum!!", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyAPIKey(tt.provided, tt.expected); got != tt.want {
				t.Errorf("VerifyAPIKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"plain", "runner-42", "runner-42", true},
		{"trimmed", "  alice ", "alice", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"control char", "ali\x07ce", "", false},
		{"too long", strings.Repeat("a", UserIDMaxLen+1), "", false},
		{"max length", strings.Repeat("a", UserIDMaxLen), strings.Repeat("a", UserIDMaxLen), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUserID(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseUserID(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	expectedKey := "test-api-key-32-chars-minimum!!"
	middleware := APIKeyMiddleware(expectedKey)

	var seenUser string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})

	t.Run("valid API key and user", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/test", nil)
		req.Header.Set("X-API-Key", expectedKey)
		req.Header.Set(UserIDHeader, "alice")
		rr := httptest.NewRecorder()

		middleware(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if seenUser != "alice" {
			t.Errorf("expected user alice in context, got %q", seenUser)
		}
	})

	t.Run("missing API key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/test", nil)
		req.Header.Set(UserIDHeader, "alice")
		rr := httptest.NewRecorder()

		middleware(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
		}
	})

	t.Run("invalid API key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/test", nil)
		req.Header.Set("X-API-Key", "wrong-key")
		req.Header.Set(UserIDHeader, "alice")
		rr := httptest.NewRecorder()

		middleware(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/test", nil)
		req.Header.Set("X-API-Key", expectedKey)
		rr := httptest.NewRecorder()

		middleware(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED body, got %s", rr.Body.String())
		}
	})
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Error("expected no user id in a bare context")
	}
	if _, ok := UserIDFromContext(WithUserID(req.Context(), "")); ok {
		t.Error("an empty user id must not count as authenticated")
	}
}
