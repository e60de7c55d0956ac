package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mseiser/SelfMemo2/internal/models"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (int, models.Role, error)
}

// AuthMiddleware validates the JWT access token and stores userID and role in the request context.
// The token is read from the Authorization header, the access_token cookie or, when allowQuery is set,
// the access_token query parameter used by calendar clients.
func AuthMiddleware(validator TokenValidator, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, allowQuery)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, role)))
		})
	}
}

// RequireRole rejects authenticated users whose role is below requiredRole
func RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok || role < requiredRole {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request, allowQuery bool) string {
	// Expected format: "Bearer <token>"
	if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}

	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if allowQuery {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the user role from context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

// WithUser returns a context carrying an authenticated user
func WithUser(ctx context.Context, userID int, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
