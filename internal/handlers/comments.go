package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// CommentHandler implements comment listing and editing endpoints.
type CommentHandler struct {
	Views     ViewComposer
	Mutations MutationEngine
}

// List handles GET /api/v1/videos/{videoId}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	comments, err := h.Views.Comments(ctx, r.PathValue("videoId"), viewerID(r), page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, comments, "comments fetched")
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Mutations.AddComment(ctx, user.ID, r.PathValue("videoId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, comment, "comment added")
}

// Edit handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Mutations.EditComment(ctx, user.ID, r.PathValue("commentId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, comment, "comment updated")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Mutations.DeleteComment(ctx, user.ID, r.PathValue("commentId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, nil, "comment deleted")
}

// ToggleLikeOnVideo handles POST /api/v1/likes/videos/{videoId}.
func (h CommentHandler) ToggleLikeOnVideo(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.VideoTarget(r.PathValue("videoId")))
}

// ToggleLikeOnComment handles POST /api/v1/likes/comments/{commentId}.
func (h CommentHandler) ToggleLikeOnComment(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.CommentTarget(r.PathValue("commentId")))
}

func (h CommentHandler) toggleLike(w http.ResponseWriter, r *http.Request, target models.LikeTarget) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Mutations.ToggleLike(ctx, user.ID, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "like removed"
	if result.Added {
		message = "like added"
	}
	respond(ctx, w, http.StatusOK, result, message)
}

type commentRequest struct {
	Content string `json:"content"`
}
