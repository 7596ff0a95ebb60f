package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// Sessions resolves bearer credentials to users.
type Sessions interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	RequireAuth(ctx context.Context, accessToken string) (models.User, error)
}

type userContextKey struct{}

// UserFromContext returns the authenticated user attached by Auth, or nil
// for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey{}).(*models.User)
	return user
}

// Auth resolves the request's access token to a user. Optional paths treat a
// missing or invalid token as anonymous; Required paths answer 401.
type Auth struct {
	Sessions Sessions
}

// Optional attaches the user when a valid token is present and continues
// anonymously otherwise.
func (a Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := a.Sessions.Authenticate(ctx, accessToken(r))
		if err != nil {
			logging.FromContext(ctx).Error("authenticate request", "error", err)
			writeAuthError(w, "unable to verify credentials", http.StatusInternalServerError)
			return
		}
		if user != nil {
			ctx = context.WithValue(ctx, userContextKey{}, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Required rejects requests without a valid access token.
func (a Auth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := a.Sessions.RequireAuth(ctx, accessToken(r))
		if err != nil {
			writeAuthError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		ctx = context.WithValue(ctx, userContextKey{}, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie("accessToken"); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"success":    false,
		"message":    message,
	})
}
