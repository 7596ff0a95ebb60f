package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
)

type fakeSessions struct {
	user    models.User
	authErr error
}

func (f *fakeSessions) Authenticate(_ context.Context, accessToken string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if accessToken == "" {
		return nil, nil
	}
	user := f.user
	return &user, nil
}

func (f *fakeSessions) RequireAuth(_ context.Context, accessToken string) (models.User, error) {
	if f.authErr != nil {
		return models.User{}, f.authErr
	}
	if accessToken == "" {
		return models.User{}, apperror.Unauthenticated("authentication required")
	}
	return f.user, nil
}

func recordUser(captured **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthOptionalContinuesAnonymously(t *testing.T) {
	auth := Auth{Sessions: &fakeSessions{}}
	var captured *models.User

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()
	auth.Optional(recordUser(&captured)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if captured != nil {
		t.Fatalf("expected anonymous context, got %+v", captured)
	}
}

func TestAuthOptionalAttachesUser(t *testing.T) {
	auth := Auth{Sessions: &fakeSessions{user: models.User{ID: "u-1"}}}
	var captured *models.User

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	rec := httptest.NewRecorder()
	auth.Optional(recordUser(&captured)).ServeHTTP(rec, req)

	if captured == nil || captured.ID != "u-1" {
		t.Fatalf("expected user attached to context, got %+v", captured)
	}
}

func TestAuthOptionalStoreFailureIsServerError(t *testing.T) {
	auth := Auth{Sessions: &fakeSessions{authErr: apperror.Internal("load user", nil)}}
	var captured *models.User

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	rec := httptest.NewRecorder()
	auth.Optional(recordUser(&captured)).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}

	var body struct {
		StatusCode int    `json:"statusCode"`
		Success    bool   `json:"success"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected error envelope %+v", body)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	auth := Auth{Sessions: &fakeSessions{}}
	var captured *models.User

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()
	auth.Required(recordUser(&captured)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if captured != nil {
		t.Fatal("handler must not run for unauthenticated requests")
	}
}
