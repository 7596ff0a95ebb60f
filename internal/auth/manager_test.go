package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type memoryUserStore struct {
	users map[string]models.User
}

func newMemoryUserStore(users ...models.User) *memoryUserStore {
	s := &memoryUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return tokens
}

func TestTokenServiceSignAndVerify(t *testing.T) {
	tokens := newTestTokenService(t)
	user := models.User{ID: "user-1", Username: "ada", Email: "ada@example.com"}

	access, _, err := tokens.SignAccess(user)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	id, err := tokens.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if id != "user-1" {
		t.Fatalf("expected subject user-1 got %q", id)
	}

	refresh, _, err := tokens.SignRefresh("user-1")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	if _, err := tokens.VerifyRefresh(refresh); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	// The two credentials use distinct secrets and must not cross-validate.
	if _, err := tokens.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for refresh-as-access got %v", err)
	}
	if _, err := tokens.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for access-as-refresh got %v", err)
	}
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	tokens := newTestTokenService(t)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	access, _, err := tokens.SignAccess(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}

	tokens.now = time.Now
	if _, err := tokens.VerifyAccess(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection got %v", err)
	}
}

func TestTokenServiceRejectsTampered(t *testing.T) {
	tokens := newTestTokenService(t)
	access, _, err := tokens.SignAccess(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if _, err := tokens.VerifyAccess(access + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token rejection got %v", err)
	}
}

func TestManagerIssuePersistsRefreshToken(t *testing.T) {
	store := newMemoryUserStore(models.User{ID: "user-1", Username: "ada"})
	manager := NewManager(newTestTokenService(t), store)

	tokens, err := manager.Issue(context.Background(), store.users["user-1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if store.users["user-1"].RefreshToken != tokens.RefreshToken {
		t.Fatal("refresh token was not persisted on the user record")
	}
}

func TestManagerRefreshRotates(t *testing.T) {
	svc := newTestTokenService(t)
	// Distinct issue timestamps so rotation produces a different signature.
	base := time.Now()
	offset := 0
	svc.now = func() time.Time {
		offset++
		return base.Add(time.Duration(offset) * time.Second)
	}

	store := newMemoryUserStore(models.User{ID: "user-1", Username: "ada"})
	manager := NewManager(svc, store)

	first, err := manager.Issue(context.Background(), store.users["user-1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, second, err := manager.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token after rotation")
	}

	// The pre-rotation token no longer matches the stored one.
	if _, _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for stale token got %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	store := newMemoryUserStore(models.User{ID: "user-1"})
	manager := NewManager(newTestTokenService(t), store)

	if _, _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token got %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for garbage token got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), store.users["user-1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after revoke got %v", err)
	}
}

func TestManagerAuthenticateAnonymousPaths(t *testing.T) {
	store := newMemoryUserStore(models.User{ID: "user-1", Username: "ada", Password: "hash", RefreshToken: "tok"})
	manager := NewManager(newTestTokenService(t), store)

	user, err := manager.Authenticate(context.Background(), "")
	if err != nil || user != nil {
		t.Fatalf("expected anonymous for empty token, got user=%v err=%v", user, err)
	}

	user, err = manager.Authenticate(context.Background(), "bogus")
	if err != nil || user != nil {
		t.Fatalf("expected anonymous for invalid token, got user=%v err=%v", user, err)
	}

	tokens, err := manager.Issue(context.Background(), store.users["user-1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err = manager.Authenticate(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Fatalf("expected user-1 got %+v", user)
	}
	if user.Password != "" || user.RefreshToken != "" {
		t.Fatal("authenticated user must be sanitized")
	}

	// Valid token for a deleted user is treated as anonymous.
	delete(store.users, "user-1")
	user, err = manager.Authenticate(context.Background(), tokens.AccessToken)
	if err != nil || user != nil {
		t.Fatalf("expected anonymous for deleted user, got user=%v err=%v", user, err)
	}
}

func TestManagerRequireAuth(t *testing.T) {
	store := newMemoryUserStore(models.User{ID: "user-1", Username: "ada"})
	manager := NewManager(newTestTokenService(t), store)

	if _, err := manager.RequireAuth(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for missing token got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), store.users["user-1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err := manager.RequireAuth(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("require auth: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1 got %q", user.ID)
	}

	delete(store.users, "user-1")
	if _, err := manager.RequireAuth(context.Background(), tokens.AccessToken); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for revoked session got %v", err)
	}
}
