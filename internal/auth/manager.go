package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserTokenStore captures the persistence the session manager needs: loading
// users and storing the single active refresh token on the user record.
type UserTokenStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
}

// Manager manages the access/refresh session lifecycle. The platform runs a
// single-active-session policy: issuing a new pair overwrites the stored
// refresh token, invalidating any prior session.
type Manager struct {
	tokens *TokenService
	users  UserTokenStore
}

// NewManager constructs a Manager over the provided collaborators.
func NewManager(tokens *TokenService, users UserTokenStore) *Manager {
	if tokens == nil || users == nil {
		panic("auth: manager collaborators must not be nil")
	}
	return &Manager{tokens: tokens, users: users}
}

// Issue creates a new token pair for the user and persists the refresh token.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("auth: user id must be provided")
	}

	access, accessExp, err := m.tokens.SignAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, refreshExp, err := m.tokens.SignRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate resolves an access token to a sanitized user. A missing or
// invalid token yields a nil user rather than an error so optional-auth
// endpoints can proceed anonymously.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, nil
	}

	userID, err := m.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, nil
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// RequireAuth resolves an access token to a sanitized user, failing with
// Unauthenticated when no valid token is presented. A valid token whose user
// no longer exists is treated as revoked.
func (m *Manager) RequireAuth(ctx context.Context, accessToken string) (models.User, error) {
	if accessToken == "" {
		return models.User{}, apperror.Unauthenticated("authentication required")
	}

	userID, err := m.tokens.VerifyAccess(accessToken)
	if err != nil {
		return models.User{}, apperror.Unauthenticated("invalid or expired access token")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.Unauthenticated("session has been revoked")
		}
		return models.User{}, err
	}

	return user.Sanitized(), nil
}

// Refresh rotates a session: the presented refresh token must match the one
// persisted on the user record, after which both tokens are re-issued. Stale
// tokens from before a rotation are rejected.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.User, models.SessionTokens, error) {
	if refreshToken == "" {
		return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("refresh token is required")
	}

	userID, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("invalid or expired refresh token")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("session has been revoked")
		}
		return models.User{}, models.SessionTokens{}, err
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("refresh token has been rotated")
	}

	tokens, err := m.Issue(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	return user.Sanitized(), tokens, nil
}

// Revoke clears the stored refresh token, ending the session server-side.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.users.SetRefreshToken(ctx, userID, "")
}
