package wallet_http

import (
	"context"
	"net/http"
	"strings"

	"wallet/internal/auth"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// RequireAuth verifies the bearer token and stores the caller's user id in the
// request context. Handlers read it with UserIDFromContext and pass it to
// services explicitly; nothing below the handler layer touches the request.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			if !strings.HasPrefix(authorization, "Bearer ") {
				writeMessage(w, http.StatusForbidden, "Missing bearer token")
				return
			}

			userID, err := tokens.Parse(strings.TrimPrefix(authorization, "Bearer "))
			if err != nil {
				writeMessage(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}
