// Package jwtverify is the authorization gate applied to every protected
// route. It runs strictly before any handler body: no handler logic is
// reachable without a verified bearer token.
package jwtverify

import (
	"context"
	"net/http"
	"strings"

	apperrors "webchat/internal/common/errors"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/logger"
)

// Verifier checks a bearer token and returns the username it binds.
type Verifier interface {
	Verify(token string) (string, error)
}

type contextKey string

const authorizedUserKey contextKey = "authorized_user"

func Middleware(tokens Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := ExtractBearer(r)
			if !ok {
				log.Warnf("auth gate path=%s: missing bearer token", r.URL.Path)
				commonhttp.WriteAppError(w, apperrors.Client(
					"MissingToken",
					http.StatusUnauthorized,
					"Please log in to access this page.",
				))
				return
			}

			username, err := tokens.Verify(raw)
			if err != nil {
				log.Warnf("auth gate path=%s: %v", r.URL.Path, err)
				commonhttp.WriteAppError(w, apperrors.Client(
					"InvalidToken",
					http.StatusUnauthorized,
					"Please log in to access this page.",
				))
				return
			}

			ctx := context.WithValue(r.Context(), authorizedUserKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the username the gate verified for this request.
func FromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(authorizedUserKey).(string)
	return username, ok && username != ""
}

// ExtractBearer pulls the token out of the Authorization header.
func ExtractBearer(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimPrefix(raw, "Bearer ")
	return tokenString, tokenString != ""
}
