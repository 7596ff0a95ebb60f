package handlers

import "net/http"

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Views     ViewComposer
	Mutations MutationEngine
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Mutations.CreatePlaylist(ctx, user.ID, req.Name, req.Description, req.VideoIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.Views.Playlist(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, view, "playlist fetched")
}

// ListForUser handles GET /api/v1/users/{userId}/playlists.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	playlists, err := h.Views.Playlists(ctx, r.PathValue("userId"), page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlists, "playlists fetched")
}

// AddVideos handles POST /api/v1/playlists/{playlistId}/videos.
func (h PlaylistHandler) AddVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistVideosRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Mutations.AddVideosToPlaylist(ctx, user.ID, r.PathValue("playlistId"), req.VideoIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "videos added to playlist")
}

// RemoveVideos handles DELETE /api/v1/playlists/{playlistId}/videos.
func (h PlaylistHandler) RemoveVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistVideosRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Mutations.RemoveVideosFromPlaylist(ctx, user.ID, r.PathValue("playlistId"), req.VideoIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "videos removed from playlist")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Mutations.UpdatePlaylistDetails(ctx, user.ID, r.PathValue("playlistId"), req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Mutations.DeletePlaylist(ctx, user.ID, r.PathValue("playlistId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, nil, "playlist deleted")
}

type playlistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoIDs    []string `json:"videoIds"`
}

type playlistVideosRequest struct {
	VideoIDs []string `json:"videoIds"`
}
