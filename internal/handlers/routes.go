package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Sessions    SessionManager
	Views       ViewComposer
	Mutations   MutationEngine
	AuthLimiter RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Read paths
// carry optional authentication so views can annotate for the viewer; write
// paths require it.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{Views: deps.Views, Mutations: deps.Mutations}
	channels := ChannelHandler{Views: deps.Views, Mutations: deps.Mutations}
	comments := CommentHandler{Views: deps.Views, Mutations: deps.Mutations}
	playlists := PlaylistHandler{Views: deps.Views, Mutations: deps.Mutations}

	guard := middleware.Auth{Sessions: deps.Sessions}
	optional := func(h http.HandlerFunc) http.Handler { return guard.Optional(h) }
	required := func(h http.HandlerFunc) http.Handler { return guard.Required(h) }

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", auth.Register)
	mux.HandleFunc("POST /api/v1/users/login", auth.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", auth.Refresh)
	mux.Handle("POST /api/v1/users/logout", required(auth.Logout))
	mux.Handle("GET /api/v1/users/me", required(auth.Me))
	mux.Handle("DELETE /api/v1/users/me", required(auth.DeleteAccount))
	mux.Handle("PATCH /api/v1/users/change-password", required(auth.ChangePassword))
	mux.Handle("PATCH /api/v1/users/update-profile", required(auth.UpdateProfile))
	mux.Handle("PATCH /api/v1/users/avatar", required(auth.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/cover-image", required(auth.UpdateCover))
	mux.Handle("GET /api/v1/users/watch-history", required(channels.WatchHistory))
	mux.Handle("GET /api/v1/users/{userId}/playlists", optional(playlists.ListForUser))

	mux.Handle("GET /api/v1/channels/{username}", optional(channels.Channel))
	mux.Handle("POST /api/v1/subscriptions/{channelId}", required(channels.ToggleSubscription))

	mux.Handle("POST /api/v1/videos", required(videos.Upload))
	mux.Handle("GET /api/v1/videos", optional(videos.Feed))
	mux.Handle("GET /api/v1/videos/{videoId}", optional(videos.Play))
	mux.Handle("PATCH /api/v1/videos/{videoId}", required(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", required(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/{videoId}/publish-status", required(videos.TogglePublish))

	mux.Handle("GET /api/v1/videos/{videoId}/comments", optional(comments.List))
	mux.Handle("POST /api/v1/videos/{videoId}/comments", required(comments.Add))
	mux.Handle("PATCH /api/v1/comments/{commentId}", required(comments.Edit))
	mux.Handle("DELETE /api/v1/comments/{commentId}", required(comments.Delete))
	mux.Handle("POST /api/v1/likes/videos/{videoId}", required(comments.ToggleLikeOnVideo))
	mux.Handle("POST /api/v1/likes/comments/{commentId}", required(comments.ToggleLikeOnComment))

	mux.Handle("GET /api/v1/dashboard/stats", required(channels.Stats))
	mux.Handle("GET /api/v1/dashboard/videos", required(channels.Videos))

	mux.Handle("POST /api/v1/playlists", required(playlists.Create))
	mux.Handle("GET /api/v1/playlists/{playlistId}", optional(playlists.Get))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", required(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", required(playlists.Delete))
	mux.Handle("POST /api/v1/playlists/{playlistId}/videos", required(playlists.AddVideos))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}/videos", required(playlists.RemoveVideos))
}
