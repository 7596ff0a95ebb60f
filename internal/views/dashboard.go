package views

import (
	"context"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
)

// DashboardStatsView aggregates a channel owner's totals.
type DashboardStatsView struct {
	TotalVideos      int64
	TotalPlaylists   int64
	TotalLikes       int64
	TotalComments    int64
	TotalSubscribers int64
}

// sortColumns whitelists the sortable fields of the channel videos listing.
// Values are the actual column names handed to the store.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "view_count",
	"title":     "title",
	"duration":  "duration_seconds",
}

// DashboardStats aggregates totals across everything the owner has published.
func (c *Composer) DashboardStats(ctx context.Context, ownerID string) (DashboardStatsView, error) {
	engagement, err := c.videos.EngagementTotals(ctx, ownerID)
	if err != nil {
		return DashboardStatsView{}, apperror.Internal("aggregate video engagement", err)
	}

	playlists, err := c.playlists.CountForOwner(ctx, ownerID)
	if err != nil {
		return DashboardStatsView{}, apperror.Internal("count playlists", err)
	}

	subscribers, err := c.subscriptions.CountForChannel(ctx, ownerID)
	if err != nil {
		return DashboardStatsView{}, apperror.Internal("count subscribers", err)
	}

	return DashboardStatsView{
		TotalVideos:      engagement.Videos,
		TotalPlaylists:   playlists,
		TotalLikes:       engagement.Likes,
		TotalComments:    engagement.Comments,
		TotalSubscribers: subscribers,
	}, nil
}

// ChannelVideos pages through the owner's public videos with per-video
// like and comment counts. sortBy must name a whitelisted field; order is
// asc or desc.
func (c *Composer) ChannelVideos(ctx context.Context, ownerID string, page, limit int, sortBy, order string) ([]models.VideoWithCounts, error) {
	_, limit, offset := normalizePage(page, limit)

	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, apperror.InvalidInput("sortBy", "unsupported sort field")
	}

	direction := strings.ToLower(strings.TrimSpace(order))
	switch direction {
	case "":
		direction = "desc"
	case "asc", "desc":
	default:
		return nil, apperror.InvalidInput("order", "order must be asc or desc")
	}

	videos, err := c.videos.ListForOwnerWithCounts(ctx, ownerID, column, direction, limit, offset)
	if err != nil {
		return nil, apperror.Internal("list channel videos", err)
	}
	return videos, nil
}
