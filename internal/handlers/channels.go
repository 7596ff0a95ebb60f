package handlers

import (
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/views"
)

// ChannelHandler implements channel pages, watch history and the owner
// dashboard.
type ChannelHandler struct {
	Views     ViewComposer
	Mutations MutationEngine
}

// Channel handles GET /api/v1/channels/{username}.
func (h ChannelHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.Views.Channel(ctx, r.PathValue("username"), viewerID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, view, "channel fetched")
}

// WatchHistory handles GET /api/v1/users/watch-history. A user with no
// history at all gets 204 and no body.
func (h ChannelHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Views.WatchHistory(ctx, user.ID)
	if err != nil {
		if errors.Is(err, views.ErrEmptyHistory) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, videos, "watch history fetched")
}

// Stats handles GET /api/v1/dashboard/stats.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	stats, err := h.Views.DashboardStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, stats, "channel stats fetched")
}

// Videos handles GET /api/v1/dashboard/videos.
func (h ChannelHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	q := r.URL.Query()
	videos, err := h.Views.ChannelVideos(ctx, user.ID, page, limit, q.Get("sortBy"), q.Get("order"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, videos, "channel videos fetched")
}

// ToggleSubscription handles POST /api/v1/subscriptions/{channelId}.
func (h ChannelHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Mutations.ToggleSubscription(ctx, user.ID, r.PathValue("channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "unsubscribed"
	if result.Added {
		message = "subscribed"
	}
	respond(ctx, w, http.StatusOK, result, message)
}
