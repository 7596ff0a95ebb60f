package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelView is the denormalized channel page.
type ChannelView struct {
	Channel            models.User
	SubscriberCount    int64
	SubscribedByViewer bool
	TotalVideos        int64
	TopByViews         []models.Video
	MostRecent         []models.Video
}

// Channel assembles the public page for a channel identified by username.
// Viewing one's own channel through this path returns NotFound: the product
// keeps self-views on the dashboard, not the public listing.
func (c *Composer) Channel(ctx context.Context, channelUsername, viewerID string) (ChannelView, error) {
	username := strings.TrimSpace(strings.ToLower(channelUsername))
	if username == "" {
		return ChannelView{}, apperror.InvalidInput("username", "username is required")
	}

	channel, err := c.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ChannelView{}, apperror.NotFound("channel not found")
		}
		return ChannelView{}, apperror.Internal("load channel", err)
	}
	if viewerID != "" && channel.ID == viewerID {
		return ChannelView{}, apperror.NotFound("channel not found")
	}

	subscriberCount, err := c.subscriptions.CountForChannel(ctx, channel.ID)
	if err != nil {
		return ChannelView{}, apperror.Internal("count subscribers", err)
	}

	subscribed, err := c.subscriptions.Exists(ctx, viewerID, channel.ID)
	if err != nil {
		return ChannelView{}, apperror.Internal("check subscription", err)
	}

	totalVideos, err := c.videos.CountPublicForOwner(ctx, channel.ID)
	if err != nil {
		return ChannelView{}, apperror.Internal("count channel videos", err)
	}

	topByViews, err := c.videos.ListTopByViews(ctx, channel.ID, channelTopN)
	if err != nil {
		return ChannelView{}, apperror.Internal("list top videos", err)
	}

	mostRecent, err := c.videos.ListRecent(ctx, channel.ID, channelTopN)
	if err != nil {
		return ChannelView{}, apperror.Internal("list recent videos", err)
	}

	return ChannelView{
		Channel:            channel.Sanitized(),
		SubscriberCount:    subscriberCount,
		SubscribedByViewer: subscribed,
		TotalVideos:        totalVideos,
		TopByViews:         topByViews,
		MostRecent:         mostRecent,
	}, nil
}

// ChannelSummary is the owner block embedded in a video-play view.
type ChannelSummary struct {
	ID                 string
	Username           string
	DisplayName        string
	AvatarURL          string
	SubscriberCount    int64
	SubscribedByViewer bool
}

func (c *Composer) channelSummary(ctx context.Context, ownerID, viewerID string) (ChannelSummary, error) {
	owner, err := c.users.FindByID(ctx, ownerID)
	if err != nil {
		return ChannelSummary{}, fmt.Errorf("load owner %s: %w", ownerID, err)
	}

	subscriberCount, err := c.subscriptions.CountForChannel(ctx, owner.ID)
	if err != nil {
		return ChannelSummary{}, fmt.Errorf("count subscribers: %w", err)
	}

	subscribed, err := c.subscriptions.Exists(ctx, viewerID, owner.ID)
	if err != nil {
		return ChannelSummary{}, fmt.Errorf("check subscription: %w", err)
	}

	return ChannelSummary{
		ID:                 owner.ID,
		Username:           owner.Username,
		DisplayName:        owner.DisplayName,
		AvatarURL:          owner.AvatarURL,
		SubscriberCount:    subscriberCount,
		SubscribedByViewer: subscribed,
	}, nil
}
