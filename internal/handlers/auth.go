package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/account"
	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
)

// AuthHandler implements registration, login and account endpoints.
type AuthHandler struct {
	Accounts AccountService
	Sessions SessionManager
	Limiter  RateLimiter
}

// Register handles POST /api/v1/users/register (multipart).
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		tooManyRequests(ctx, w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.InvalidInput("body", "invalid multipart form"))
		return
	}

	avatar, avatarClose, err := formFile(r, "avatar")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if avatarClose != nil {
		defer avatarClose.Close()
	}

	cover, coverClose, err := formFile(r, "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if coverClose != nil {
		defer coverClose.Close()
	}

	user, tokens, err := h.Accounts.Register(ctx, account.RegisterInput{
		Username:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		DisplayName: r.FormValue("displayName"),
		Avatar:      avatar,
		Cover:       cover,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusCreated, registerResponse{User: user, Tokens: tokens}, "account created")
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		tooManyRequests(ctx, w)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, tokens, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, registerResponse{User: user, Tokens: tokens}, "logged in")
}

// Logout handles POST /api/v1/users/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Accounts.Logout(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, nil, "logged out")
}

// Refresh handles POST /api/v1/users/refresh-token: rotates both tokens
// against the stored refresh token.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		tooManyRequests(ctx, w)
		return
	}

	token := refreshTokenFromRequest(r)
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(ctx, w, apperror.Unauthenticated("refresh token is required"))
		return
	}

	user, tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("refresh rejected", "error", err)
		// A store outage is not a revoked session; only credential failures
		// take the cookies with them.
		if errors.Is(err, apperror.ErrUnauthenticated) {
			clearSessionCookies(w)
		}
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, registerResponse{User: user, Tokens: tokens}, "session refreshed")
}

// Me handles GET /api/v1/users/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	current, err := h.Accounts.CurrentUser(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, current, "current user")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Accounts.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, nil, "password changed")
}

// UpdateProfile handles PATCH /api/v1/users/update-profile.
func (h AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Accounts.UpdateProfile(ctx, user.ID, req.DisplayName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "profile updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart).
func (h AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Accounts.UpdateAvatar)
}

// UpdateCover handles PATCH /api/v1/users/cover-image (multipart).
func (h AuthHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Accounts.UpdateCover)
}

func (h AuthHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(ctx context.Context, userID string, file *storage.File) (models.User, error)) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.InvalidInput("body", "invalid multipart form"))
		return
	}

	file, closer, err := formFile(r, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	updated, err := update(ctx, user.ID, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "image updated")
}

// DeleteAccount handles DELETE /api/v1/users/me: purges the account and
// everything it owns.
func (h AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Accounts.DeleteAccount(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, nil, "account deleted")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type registerResponse struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}
