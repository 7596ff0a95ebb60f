package mutate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// UploadVideoInput carries the fields and blobs of a video upload.
type UploadVideoInput struct {
	Title       string
	Description string
	Media       *storage.File
	Thumbnail   *storage.File
}

// UploadVideo stores the media and thumbnail blobs, probes the media's
// playback duration and persists the video with the owner snapshot frozen.
func (e *Engine) UploadVideo(ctx context.Context, userID string, input UploadVideoInput) (models.Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Video{}, apperror.InvalidInput("title", "title is required")
	}
	if input.Media == nil {
		return models.Video{}, apperror.InvalidInput("videoFile", "video file is required")
	}
	if input.Thumbnail == nil {
		return models.Video{}, apperror.InvalidInput("thumbnail", "thumbnail is required")
	}

	owner, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return models.Video{}, apperror.Internal("load owner", err)
	}

	id := e.newID()
	logger := logging.FromContext(ctx)

	mediaURL, err := e.blobs.Upload(ctx, blobKey("videos", id, input.Media.Name), input.Media.Reader)
	if err != nil {
		return models.Video{}, apperror.Internal("store video file", err)
	}

	var duration float64
	if e.probe != nil {
		duration, err = e.probe.Duration(ctx, mediaURL)
		if err != nil {
			// Duration is display metadata; a probe failure should not
			// discard an otherwise successful upload.
			logger.Warn("media duration probe failed", "videoId", id, "error", err)
			duration = 0
		}
	}

	thumbnailURL, err := e.blobs.Upload(ctx, blobKey("thumbnails", id, input.Thumbnail.Name), input.Thumbnail.Reader)
	if err != nil {
		e.releaseBlob(ctx, mediaURL)
		return models.Video{}, apperror.Internal("store thumbnail", err)
	}

	now := e.now()
	video := models.Video{
		ID:              id,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		MediaURL:        mediaURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: duration,
		PublishStatus:   models.PublishStatusPublic,
		OwnerID:         owner.ID,
		OwnerName:       owner.DisplayName,
		OwnerUsername:   owner.Username,
		OwnerAvatar:     owner.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.videos.Create(ctx, video); err != nil {
		e.releaseBlob(ctx, mediaURL)
		e.releaseBlob(ctx, thumbnailURL)
		return models.Video{}, apperror.Internal("create video", err)
	}
	return video, nil
}

// UpdateVideoDetails changes title, description and optionally the
// thumbnail. A replaced thumbnail's old blob is released best-effort after
// the row is updated.
func (e *Engine) UpdateVideoDetails(ctx context.Context, userID, videoID, title, description string, thumbnail *storage.File) (models.Video, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" && description == "" && thumbnail == nil {
		return models.Video{}, ErrNoChanges
	}

	video, err := e.loadOwnedVideo(ctx, userID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	var newThumbnailURL string
	if thumbnail != nil {
		newThumbnailURL, err = e.blobs.Upload(ctx, blobKey("thumbnails", e.newID(), thumbnail.Name), thumbnail.Reader)
		if err != nil {
			return models.Video{}, apperror.Internal("store thumbnail", err)
		}
	}

	updated, err := e.videos.UpdateDetails(ctx, video.ID, title, description, newThumbnailURL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperror.NotFound("video not found")
		}
		return models.Video{}, apperror.Internal("update video", err)
	}

	if newThumbnailURL != "" && video.ThumbnailURL != "" {
		e.releaseBlob(ctx, video.ThumbnailURL)
	}
	return updated, nil
}

// DeleteVideo removes the video row along with its comments, its likes and
// the likes on those comments, then releases the blobs best-effort. The row
// deletes are individual statements; a failure part-way leaves engagement
// partially removed but never a dangling like or comment referencing a
// video that is already gone.
func (e *Engine) DeleteVideo(ctx context.Context, userID, videoID string) error {
	video, err := e.loadOwnedVideo(ctx, userID, videoID)
	if err != nil {
		return err
	}

	commentIDs, err := e.comments.DeleteForVideo(ctx, video.ID)
	if err != nil {
		return apperror.Internal("delete video comments", err)
	}
	if err := e.likes.DeleteForComments(ctx, commentIDs); err != nil {
		return apperror.Internal("delete comment likes", err)
	}
	if err := e.likes.DeleteForVideo(ctx, video.ID); err != nil {
		return apperror.Internal("delete video likes", err)
	}
	if err := e.videos.Delete(ctx, video.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperror.Internal("delete video", err)
	}

	e.releaseBlob(ctx, video.MediaURL)
	e.releaseBlob(ctx, video.ThumbnailURL)
	return nil
}

// TogglePublishStatus switches a video between public and private. Asking
// for the status the video already has is ErrNoChanges, checked before
// ownership.
func (e *Engine) TogglePublishStatus(ctx context.Context, userID, videoID, status string) (models.Video, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.PublishStatusPublic && status != models.PublishStatusPrivate {
		return models.Video{}, apperror.InvalidInput("publishStatus", "publish status must be public or private")
	}

	video, err := e.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperror.NotFound("video not found")
		}
		return models.Video{}, apperror.Internal("load video", err)
	}

	if status == video.PublishStatus {
		return models.Video{}, ErrNoChanges
	}
	if err := requireOwner(video.OwnerID, userID, "video"); err != nil {
		return models.Video{}, err
	}

	updated, err := e.videos.SetPublishStatus(ctx, video.ID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperror.NotFound("video not found")
		}
		return models.Video{}, apperror.Internal("update publish status", err)
	}
	return updated, nil
}

func (e *Engine) loadOwnedVideo(ctx context.Context, userID, videoID string) (models.Video, error) {
	video, err := e.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperror.NotFound("video not found")
		}
		return models.Video{}, apperror.Internal("load video", err)
	}
	if err := requireOwner(video.OwnerID, userID, "video"); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

// releaseBlob deletes a stored object, logging and swallowing failures so
// cleanup never fails the parent request.
func (e *Engine) releaseBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := e.blobs.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn("blob cleanup failed", "url", url, "error", err)
	}
}

func blobKey(prefix, id, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", prefix, id, ext)
}
