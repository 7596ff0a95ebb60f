package views

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// FeedPage is one page of the home or search feed.
type FeedPage struct {
	Videos []models.Video
	Page   int
	Limit  int
}

// Feed returns a page of public videos, excluding the viewer's own when
// authenticated. A text query ranks matches over title and channel name;
// without one the page is a random sample, so consecutive visits vary.
func (c *Composer) Feed(ctx context.Context, viewerID, query string, page, limit int) (FeedPage, error) {
	page, limit, offset := normalizePage(page, limit)

	var (
		videos []models.Video
		err    error
	)
	if q := strings.TrimSpace(query); q != "" {
		videos, err = c.videos.SearchPublic(ctx, q, viewerID, limit, offset)
	} else {
		videos, err = c.videos.ListPublic(ctx, viewerID, limit, offset)
	}
	if err != nil {
		return FeedPage{}, apperror.Internal("list feed", err)
	}

	return FeedPage{Videos: videos, Page: page, Limit: limit}, nil
}

// WatchHistory resolves the user's history ids to videos, most recent first.
// A user who never watched anything gets ErrEmptyHistory instead of an empty
// list so the transport can answer with no body at all.
func (c *Composer) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("load user", err)
	}

	if len(user.WatchHistory) == 0 {
		return nil, ErrEmptyHistory
	}

	videos, err := c.videos.FindByIDs(ctx, user.WatchHistory)
	if err != nil {
		return nil, apperror.Internal("resolve watch history", err)
	}
	return videos, nil
}
