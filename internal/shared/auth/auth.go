// Package auth authenticates API callers and carries the caller's user id.
package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"unicode/utf8"

	apperrors "run-tracker/internal/shared/errors"
	"run-tracker/internal/shared/validation"
)

// UserIDHeader names the header identifying the user a request acts for.
const UserIDHeader = "X-User-ID"

// UserIDMaxLen bounds the user id accepted from UserIDHeader.
const UserIDMaxLen = 64

type userIDKey struct{}

// VerifyAPIKey performs constant-time comparison of API keys to prevent timing attacks.
// Returns true if the provided key matches the expected key.
func VerifyAPIKey(provided, expected string) bool {
	if len(provided) == 0 || len(expected) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// ParseUserID validates a raw user id header value.
func ParseUserID(raw string) (string, bool) {
	id := validation.SanitizeString(raw)
	if id == "" || utf8.RuneCountInString(id) > UserIDMaxLen || validation.ContainsControlChars(id) {
		return "", false
	}
	return id, true
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// APIKeyMiddleware validates the X-API-Key header and the X-User-ID header,
// and stores the user id in the request context.
func APIKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !VerifyAPIKey(r.Header.Get("X-API-Key"), expectedKey) {
				apperrors.WriteError(w, apperrors.UnauthorizedError("Invalid or missing API key"))
				return
			}

			userID, ok := ParseUserID(r.Header.Get(UserIDHeader))
			if !ok {
				apperrors.WriteError(w, apperrors.UnauthorizedError("Invalid or missing user id"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
