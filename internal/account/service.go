package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// ErrNoChanges signals that a profile update matched the stored state and
// nothing was written.
var ErrNoChanges = errors.New("no changes provided")

// UserStore is the subset of the user repository the service writes through.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateProfile(ctx context.Context, id, displayName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetAvatar(ctx context.Context, id, url string) error
	SetCover(ctx context.Context, id, url string) error
}

// PurgeStore removes a user and everything referencing them atomically.
type PurgeStore interface {
	PurgeUser(ctx context.Context, userID string) (repositories.PurgedAssets, error)
}

// BlobStore persists and releases uploaded media.
type BlobStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// SessionIssuer creates and revokes bearer sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(hash, plaintext string) error
}

// Service owns the account lifecycle: registration, credentials, profile
// media and the cascading delete.
type Service struct {
	users    UserStore
	purge    PurgeStore
	blobs    BlobStore
	sessions SessionIssuer
	hasher   PasswordHasher

	now   func() time.Time
	newID func() string
}

// NewService wires an account service over the provided collaborators.
func NewService(users UserStore, purge PurgeStore, blobs BlobStore, sessions SessionIssuer, hasher PasswordHasher) *Service {
	if users == nil || purge == nil || blobs == nil || sessions == nil || hasher == nil {
		panic("account: service requires all collaborators")
	}
	return &Service{
		users:    users,
		purge:    purge,
		blobs:    blobs,
		sessions: sessions,
		hasher:   hasher,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides time and id generation, for tests.
func (s *Service) WithClock(now func() time.Time, newID func() string) *Service {
	if now != nil {
		s.now = now
	}
	if newID != nil {
		s.newID = newID
	}
	return s
}

// RegisterInput carries the fields and blobs of a registration request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Avatar      *storage.File
	Cover       *storage.File
}

// Register creates an account and logs it in. Username and email are stored
// lower-cased; an avatar is mandatory, a cover image optional.
func (s *Service) Register(ctx context.Context, input RegisterInput) (models.User, models.SessionTokens, error) {
	username := strings.TrimSpace(strings.ToLower(input.Username))
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if username == "" {
		return models.User{}, models.SessionTokens{}, apperror.InvalidInput("username", "username is required")
	}
	if !strings.Contains(email, "@") {
		return models.User{}, models.SessionTokens{}, apperror.InvalidInput("email", "a valid email address is required")
	}
	if len(input.Password) < 8 {
		return models.User{}, models.SessionTokens{}, apperror.InvalidInput("password", "password must be at least 8 characters")
	}
	if input.Avatar == nil {
		return models.User{}, models.SessionTokens{}, apperror.InvalidInput("avatar", "an avatar image is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, models.SessionTokens{}, apperror.Conflict("email", "email is already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, models.SessionTokens{}, apperror.Internal("check email", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return models.User{}, models.SessionTokens{}, apperror.Conflict("username", "username is taken")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, models.SessionTokens{}, apperror.Internal("check username", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Internal("hash password", err)
	}

	id := s.newID()
	avatarURL, err := s.blobs.Upload(ctx, blobKey("avatars", id, input.Avatar.Name), input.Avatar.Reader)
	if err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Internal("store avatar", err)
	}

	var coverURL string
	if input.Cover != nil {
		coverURL, err = s.blobs.Upload(ctx, blobKey("covers", id, input.Cover.Name), input.Cover.Reader)
		if err != nil {
			s.releaseBlob(ctx, avatarURL)
			return models.User{}, models.SessionTokens{}, apperror.Internal("store cover", err)
		}
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	now := s.now()
	user := models.User{
		ID:          id,
		Username:    username,
		Email:       email,
		Password:    hash,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CoverURL:    coverURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.releaseBlob(ctx, avatarURL)
		s.releaseBlob(ctx, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, models.SessionTokens{}, apperror.Conflict("email", "account already exists")
		}
		return models.User{}, models.SessionTokens{}, apperror.Internal("create user", err)
	}

	tokens, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Internal("issue session", err)
	}
	return user.Sanitized(), tokens, nil
}

// Login verifies credentials and issues a fresh session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, models.SessionTokens, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, models.SessionTokens{}, apperror.InvalidInput("email", "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("invalid credentials")
		}
		return models.User{}, models.SessionTokens{}, apperror.Internal("load user", err)
	}

	if err := s.hasher.Compare(user.Password, password); err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Unauthenticated("invalid credentials")
	}

	tokens, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, apperror.Internal("issue session", err)
	}
	return user.Sanitized(), tokens, nil
}

// Logout revokes the stored refresh token, ending the single active session.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		return apperror.Internal("revoke session", err)
	}
	return nil
}

// CurrentUser loads the caller's sanitized record.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.NotFound("user not found")
		}
		return models.User{}, apperror.Internal("load user", err)
	}
	return user.Sanitized(), nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, updated string) error {
	if len(updated) < 8 {
		return apperror.InvalidInput("newPassword", "password must be at least 8 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("load user", err)
	}

	if err := s.hasher.Compare(user.Password, current); err != nil {
		return apperror.Unauthenticated("current password is incorrect")
	}

	hash, err := s.hasher.Hash(updated)
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.Internal("update password", err)
	}
	return nil
}

// UpdateProfile changes display name and/or email. Submitting neither is
// ErrNoChanges.
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName, email string) (models.User, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.TrimSpace(strings.ToLower(email))
	if displayName == "" && email == "" {
		return models.User{}, ErrNoChanges
	}
	if email != "" && !strings.Contains(email, "@") {
		return models.User{}, apperror.InvalidInput("email", "a valid email address is required")
	}

	if email != "" {
		if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing.ID != userID {
			return models.User{}, apperror.Conflict("email", "email is already registered")
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.Internal("check email", err)
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, displayName, email)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.User{}, apperror.NotFound("user not found")
		case errors.Is(err, repositories.ErrConflict):
			return models.User{}, apperror.Conflict("email", "email is already registered")
		default:
			return models.User{}, apperror.Internal("update profile", err)
		}
	}
	return user.Sanitized(), nil
}

// UpdateAvatar stores a new avatar and releases the previous one best-effort.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, file *storage.File) (models.User, error) {
	return s.updateImage(ctx, userID, file, "avatar", "avatars")
}

// UpdateCover stores a new cover image and releases the previous one
// best-effort.
func (s *Service) UpdateCover(ctx context.Context, userID string, file *storage.File) (models.User, error) {
	return s.updateImage(ctx, userID, file, "cover", "covers")
}

func (s *Service) updateImage(ctx context.Context, userID string, file *storage.File, field, prefix string) (models.User, error) {
	if file == nil {
		return models.User{}, apperror.InvalidInput(field, fmt.Sprintf("a %s image is required", field))
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.NotFound("user not found")
		}
		return models.User{}, apperror.Internal("load user", err)
	}

	url, err := s.blobs.Upload(ctx, blobKey(prefix, s.newID(), file.Name), file.Reader)
	if err != nil {
		return models.User{}, apperror.Internal(fmt.Sprintf("store %s", field), err)
	}

	var oldURL string
	if field == "avatar" {
		oldURL = user.AvatarURL
		err = s.users.SetAvatar(ctx, userID, url)
		user.AvatarURL = url
	} else {
		oldURL = user.CoverURL
		err = s.users.SetCover(ctx, userID, url)
		user.CoverURL = url
	}
	if err != nil {
		s.releaseBlob(ctx, url)
		return models.User{}, apperror.Internal(fmt.Sprintf("update %s", field), err)
	}

	s.releaseBlob(ctx, oldURL)
	return user.Sanitized(), nil
}

// DeleteAccount purges the user and all dependent rows in one transaction,
// then releases the account's blobs. Blob cleanup happens only after the
// commit; a transaction failure leaves both rows and blobs untouched.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	assets, err := s.purge.PurgeUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("purge account", err)
	}

	s.releaseBlob(ctx, assets.AvatarURL)
	s.releaseBlob(ctx, assets.CoverURL)
	for _, url := range assets.VideoAssets {
		s.releaseBlob(ctx, url)
	}
	return nil
}

// releaseBlob deletes a stored object, logging and swallowing failures so
// cleanup never fails the parent request.
func (s *Service) releaseBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn("blob cleanup failed", "url", url, "error", err)
	}
}

func blobKey(prefix, id, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", prefix, id, ext)
}
