package mutate

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ToggleResult reports which way a toggle flipped.
type ToggleResult struct {
	Added bool
}

// ToggleLike flips the caller's like on a video or comment. The check and
// the write are separate statements; two simultaneous flips of the same pair
// can both observe the like absent, in which case the unique index lets one
// insert win and the loser observes the same Added outcome.
func (e *Engine) ToggleLike(ctx context.Context, userID string, target models.LikeTarget) (ToggleResult, error) {
	if err := e.targetExists(ctx, target); err != nil {
		return ToggleResult{}, err
	}

	existing, err := e.likes.Find(ctx, userID, target)
	switch {
	case err == nil:
		if err := e.likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return ToggleResult{}, apperror.Internal("remove like", err)
		}
		return ToggleResult{Added: false}, nil
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return ToggleResult{}, apperror.Internal("look up like", err)
	}

	like := models.Like{
		ID:        e.newID(),
		LikedBy:   userID,
		Target:    target,
		CreatedAt: e.now(),
	}
	if err := e.likes.Create(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Lost the race to a concurrent flip; the like exists.
			return ToggleResult{Added: true}, nil
		}
		return ToggleResult{}, apperror.Internal("add like", err)
	}
	return ToggleResult{Added: true}, nil
}

func (e *Engine) targetExists(ctx context.Context, target models.LikeTarget) error {
	switch target.Kind {
	case models.TargetVideo:
		if _, err := e.videos.FindByID(ctx, target.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.NotFound("video not found")
			}
			return apperror.Internal("load video", err)
		}
	case models.TargetComment:
		if _, err := e.comments.FindByID(ctx, target.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.NotFound("comment not found")
			}
			return apperror.Internal("load comment", err)
		}
	default:
		return apperror.InvalidInput("target", "like target must be a video or a comment")
	}
	return nil
}

// ToggleSubscription flips the caller's subscription to a channel.
// Subscribing to oneself is rejected outright.
func (e *Engine) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (ToggleResult, error) {
	if subscriberID == channelID {
		return ToggleResult{}, apperror.InvalidInput("channelId", "cannot subscribe to your own channel")
	}

	if _, err := e.users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ToggleResult{}, apperror.NotFound("channel not found")
		}
		return ToggleResult{}, apperror.Internal("load channel", err)
	}

	existing, err := e.subscriptions.Find(ctx, subscriberID, channelID)
	switch {
	case err == nil:
		if err := e.subscriptions.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return ToggleResult{}, apperror.Internal("remove subscription", err)
		}
		return ToggleResult{Added: false}, nil
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return ToggleResult{}, apperror.Internal("look up subscription", err)
	}

	sub := models.Subscription{
		ID:           e.newID(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    e.now(),
	}
	if err := e.subscriptions.Create(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return ToggleResult{Added: true}, nil
		case errors.Is(err, repositories.ErrNotFound):
			return ToggleResult{}, apperror.NotFound("channel not found")
		default:
			return ToggleResult{}, apperror.Internal("add subscription", err)
		}
	}
	return ToggleResult{Added: true}, nil
}
