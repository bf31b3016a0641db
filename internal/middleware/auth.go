// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenHeader is the request header carrying the session token.
const TokenHeader = "Authorization"

// TokenVerifier resolves a session token to the account ID it asserts.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenAuth is a middleware that enforces session-token authentication.
//
// A request without a token is rejected with 401 "No Token Present" before
// anything else is checked. A token that fails verification is rejected with
// 401 "Unauthorized". On success the account ID is stored in the request
// context for GetUserIDFromContext.
func TokenAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(TokenHeader))
			token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
			if token == "" {
				unauthorized(w, "No Token Present")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// GetUserIDFromContext extracts the authenticated account ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
