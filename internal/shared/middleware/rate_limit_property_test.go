package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pgregory.net/rapid"

	"run-tracker/internal/shared/clock"
)

// Feature: run-tracker, Property 11: rate limiting
// *For any* limit and interleaving of API calls from several clients within
// one minute:
// - each client gets exactly limit successful calls, the rest answer 429
// - every 429 carries a Retry-After between 1 and 60 seconds
// - clients never consume each other's budget
// - once the window has passed, every client is admitted again

func TestRateLimit_Property11_PerClientBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 8).Draw(t, "limit")
		clients := rapid.IntRange(1, 4).Draw(t, "clients")
		calls := rapid.SliceOfN(rapid.IntRange(0, clients-1), 0, 40).Draw(t, "calls")

		fixed := clock.NewFixed(time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC))
		limiter := NewRateLimiterWithClock(limit, fixed)
		defer limiter.Stop()
		handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		send := func(client int) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?limit=20", nil)
			req.RemoteAddr = fmt.Sprintf("10.0.0.%d:5%03d", client+1, client)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			return rr
		}

		allowed := make([]int, clients)
		for _, client := range calls {
			fixed.Advance(time.Duration(rapid.IntRange(0, 500).Draw(t, "gapMillis")) * time.Millisecond)
			rr := send(client)

			switch rr.Code {
			case http.StatusOK:
				allowed[client]++
			case http.StatusTooManyRequests:
				retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
				if err != nil || retry < 1 || retry > 60 {
					t.Fatalf("Retry-After = %q, want 1..60", rr.Header().Get("Retry-After"))
				}
			default:
				t.Fatalf("unexpected status %d", rr.Code)
			}
		}

		for client := 0; client < clients; client++ {
			sent := 0
			for _, c := range calls {
				if c == client {
					sent++
				}
			}
			want := sent
			if want > limit {
				want = limit
			}
			if allowed[client] != want {
				t.Fatalf("client %d: %d of %d calls admitted, want %d", client, allowed[client], sent, want)
			}
		}

		fixed.Advance(time.Minute)
		for client := 0; client < clients; client++ {
			if rr := send(client); rr.Code != http.StatusOK {
				t.Fatalf("client %d after the window: got %d", client, rr.Code)
			}
		}
	})
}
