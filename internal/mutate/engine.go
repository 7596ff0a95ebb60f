package mutate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
)

// ErrNoChanges signals that a mutation matched the stored state exactly and
// nothing was written. Handlers answer with a 400 envelope, mirroring the
// edit endpoints' contract.
var ErrNoChanges = errors.New("no changes provided")

// UserStore is the subset of the user repository the engine reads from.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// VideoStore is the subset of the video repository the engine writes through.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	SetPublishStatus(ctx context.Context, id, status string) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// CommentStore is the subset of the comment repository the engine writes through.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteForVideo(ctx context.Context, videoID string) ([]string, error)
}

// LikeStore is the subset of the like repository the engine writes through.
type LikeStore interface {
	Create(ctx context.Context, like models.Like) error
	Find(ctx context.Context, userID string, target models.LikeTarget) (models.Like, error)
	Delete(ctx context.Context, id string) error
	DeleteForVideo(ctx context.Context, videoID string) error
	DeleteForComment(ctx context.Context, commentID string) error
	DeleteForComments(ctx context.Context, commentIDs []string) error
}

// SubscriptionStore is the subset of the subscription repository the engine
// writes through.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Delete(ctx context.Context, id string) error
}

// PlaylistStore is the subset of the playlist repository the engine writes
// through.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	FindByName(ctx context.Context, name string) (models.Playlist, error)
	UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error)
	SetVideos(ctx context.Context, id string, videoIDs []string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore persists and releases uploaded media.
type BlobStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// DurationProber reports the playback duration of stored media.
type DurationProber interface {
	Duration(ctx context.Context, url string) (float64, error)
}

// Engine applies ownership-guarded writes: toggles, comments, playlists and
// video management. Every operation loads the entity first, answers NotFound
// when it is absent and Forbidden when the caller does not own it.
type Engine struct {
	users         UserStore
	videos        VideoStore
	comments      CommentStore
	likes         LikeStore
	subscriptions SubscriptionStore
	playlists     PlaylistStore
	blobs         BlobStore
	probe         DurationProber

	now   func() time.Time
	newID func() string
}

// NewEngine wires a mutation engine over the provided stores.
func NewEngine(users UserStore, videos VideoStore, comments CommentStore, likes LikeStore, subscriptions SubscriptionStore, playlists PlaylistStore, blobs BlobStore, probe DurationProber) *Engine {
	if users == nil || videos == nil || comments == nil || likes == nil || subscriptions == nil || playlists == nil || blobs == nil {
		panic("mutate: engine requires all stores")
	}
	return &Engine{
		users:         users,
		videos:        videos,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
		playlists:     playlists,
		blobs:         blobs,
		probe:         probe,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// WithClock overrides time and id generation, for tests.
func (e *Engine) WithClock(now func() time.Time, newID func() string) *Engine {
	if now != nil {
		e.now = now
	}
	if newID != nil {
		e.newID = newID
	}
	return e
}

func requireOwner(ownerID, userID, resource string) error {
	if ownerID != userID {
		return apperror.Forbidden(fmt.Sprintf("not the owner of this %s", resource))
	}
	return nil
}

func validIDs(field string, ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return apperror.InvalidInput(field, fmt.Sprintf("malformed id %q", id))
		}
	}
	return nil
}
