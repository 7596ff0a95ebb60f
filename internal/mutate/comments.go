package mutate

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// AddComment attaches a new comment to a video, freezing the author's
// username and avatar on the row.
func (e *Engine) AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperror.InvalidInput("content", "comment content is required")
	}

	if _, err := e.videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperror.NotFound("video not found")
		}
		return models.Comment{}, apperror.Internal("load video", err)
	}

	author, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return models.Comment{}, apperror.Internal("load author", err)
	}

	now := e.now()
	comment := models.Comment{
		ID:            e.newID(),
		Content:       content,
		OwnerID:       author.ID,
		VideoID:       videoID,
		OwnerUsername: author.Username,
		OwnerAvatar:   author.AvatarURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperror.NotFound("video not found")
		}
		return models.Comment{}, apperror.Internal("create comment", err)
	}
	return comment, nil
}

// EditComment replaces a comment's content. Submitting the stored content
// verbatim is reported as ErrNoChanges before any ownership check, matching
// the edit endpoint's contract.
func (e *Engine) EditComment(ctx context.Context, userID, commentID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperror.InvalidInput("content", "comment content is required")
	}

	comment, err := e.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperror.NotFound("comment not found")
		}
		return models.Comment{}, apperror.Internal("load comment", err)
	}

	if content == comment.Content {
		return models.Comment{}, ErrNoChanges
	}
	if err := requireOwner(comment.OwnerID, userID, "comment"); err != nil {
		return models.Comment{}, err
	}

	updated, err := e.comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperror.NotFound("comment not found")
		}
		return models.Comment{}, apperror.Internal("update comment", err)
	}
	return updated, nil
}

// DeleteComment removes a comment and every like attached to it.
func (e *Engine) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := e.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("comment not found")
		}
		return apperror.Internal("load comment", err)
	}
	if err := requireOwner(comment.OwnerID, userID, "comment"); err != nil {
		return err
	}

	if err := e.likes.DeleteForComment(ctx, comment.ID); err != nil {
		return apperror.Internal("delete comment likes", err)
	}
	if err := e.comments.Delete(ctx, comment.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperror.Internal("delete comment", err)
	}
	return nil
}
