package views

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoPlayView is the denormalized video-play page.
type VideoPlayView struct {
	Video         models.Video
	LikesCount    int64
	LikedByViewer bool
	Channel       ChannelSummary
	UpNext        []models.Video
}

// VideoPlay assembles the play page for a video. A private video is visible
// only when selfView is set and the viewer owns it; anything else is
// NotFound, never Forbidden, so the response does not reveal that the video
// exists. Every successful fetch counts one view and moves the video to the
// front of the viewer's watch history.
func (c *Composer) VideoPlay(ctx context.Context, videoID, viewerID string, selfView bool) (VideoPlayView, error) {
	video, err := c.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return VideoPlayView{}, apperror.NotFound("video not found")
		}
		return VideoPlayView{}, apperror.Internal("load video", err)
	}

	visible := video.PublishStatus == models.PublishStatusPublic ||
		(selfView && video.OwnerID == viewerID)
	if !visible {
		return VideoPlayView{}, apperror.NotFound("video not found")
	}

	target := models.VideoTarget(video.ID)
	likesCount, err := c.likes.Count(ctx, target)
	if err != nil {
		return VideoPlayView{}, apperror.Internal("count likes", err)
	}

	liked, err := c.likes.Exists(ctx, viewerID, target)
	if err != nil {
		return VideoPlayView{}, apperror.Internal("check like", err)
	}

	channel, err := c.channelSummary(ctx, video.OwnerID, viewerID)
	if err != nil {
		return VideoPlayView{}, apperror.Internal("compose channel summary", err)
	}

	upNext, err := c.videos.SamplePublic(ctx, video.ID, viewerID, upNextCount)
	if err != nil {
		return VideoPlayView{}, apperror.Internal("sample up next", err)
	}

	// One view per successful fetch, repeat plays included.
	if err := c.videos.IncrementViewCount(ctx, video.ID); err != nil {
		return VideoPlayView{}, apperror.Internal("count view", err)
	}
	video.ViewCount++

	if viewerID != "" {
		if err := c.users.PushWatchHistory(ctx, viewerID, video.ID); err != nil {
			return VideoPlayView{}, apperror.Internal("record watch history", err)
		}
	}

	return VideoPlayView{
		Video:         video,
		LikesCount:    likesCount,
		LikedByViewer: liked,
		Channel:       channel,
		UpNext:        upNext,
	}, nil
}

// Comments returns a page of a video's comments, newest first, annotated
// with like aggregates for the viewer.
func (c *Composer) Comments(ctx context.Context, videoID, viewerID string, page, limit int) ([]models.CommentWithLikes, error) {
	if _, err := c.videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("video not found")
		}
		return nil, apperror.Internal("load video", err)
	}

	_, limit, offset := normalizePage(page, limit)
	comments, err := c.comments.ListForVideo(ctx, videoID, viewerID, limit, offset)
	if err != nil {
		return nil, apperror.Internal("list comments", err)
	}
	return comments, nil
}
