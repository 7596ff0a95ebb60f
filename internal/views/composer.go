package views

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/models"
)

// ErrEmptyHistory signals that a user has never watched anything. Handlers
// translate it into an empty-body response rather than an error envelope.
var ErrEmptyHistory = errors.New("watch history is empty")

// UserStore is the subset of the user repository the composer reads from.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	PushWatchHistory(ctx context.Context, id, videoID string) error
}

// VideoStore is the subset of the video repository the composer reads from.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	IncrementViewCount(ctx context.Context, id string) error
	CountPublicForOwner(ctx context.Context, ownerID string) (int64, error)
	ListTopByViews(ctx context.Context, ownerID string, n int) ([]models.Video, error)
	ListRecent(ctx context.Context, ownerID string, n int) ([]models.Video, error)
	SamplePublic(ctx context.Context, excludeVideoID, excludeOwnerID string, n int) ([]models.Video, error)
	ListPublic(ctx context.Context, excludeOwnerID string, limit, offset int) ([]models.Video, error)
	SearchPublic(ctx context.Context, query, excludeOwnerID string, limit, offset int) ([]models.Video, error)
	ListForOwnerWithCounts(ctx context.Context, ownerID, sortColumn, direction string, limit, offset int) ([]models.VideoWithCounts, error)
	EngagementTotals(ctx context.Context, ownerID string) (models.VideoEngagementTotals, error)
}

// CommentStore lists annotated comments for a video.
type CommentStore interface {
	ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentWithLikes, error)
}

// LikeStore answers like aggregate queries.
type LikeStore interface {
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
	Exists(ctx context.Context, userID string, target models.LikeTarget) (bool, error)
}

// SubscriptionStore answers subscription aggregate queries.
type SubscriptionStore interface {
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// PlaylistStore is the subset of the playlist repository the composer reads from.
type PlaylistStore interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Playlist, error)
	CountForOwner(ctx context.Context, ownerID string) (int64, error)
}

const (
	// channelTopN bounds the per-ranking video lists on a channel page.
	channelTopN = 5
	// upNextCount bounds the random sample attached to a video-play view.
	upNextCount = 10
	// defaultPageSize applies when a caller passes a non-positive limit.
	defaultPageSize = 10
)

// Composer assembles denormalized read models by joining entity stores at
// request time. It never caches; every call reflects the stores as they are.
type Composer struct {
	users         UserStore
	videos        VideoStore
	comments      CommentStore
	likes         LikeStore
	subscriptions SubscriptionStore
	playlists     PlaylistStore
}

// NewComposer wires a view composer over the provided stores.
func NewComposer(users UserStore, videos VideoStore, comments CommentStore, likes LikeStore, subscriptions SubscriptionStore, playlists PlaylistStore) *Composer {
	if users == nil || videos == nil || comments == nil || likes == nil || subscriptions == nil || playlists == nil {
		panic("views: composer requires all stores")
	}
	return &Composer{
		users:         users,
		videos:        videos,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
		playlists:     playlists,
	}
}

func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return page, limit, (page - 1) * limit
}
