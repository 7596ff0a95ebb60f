package mutate

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CreatePlaylist creates a playlist owned by the caller. Names are unique
// across the whole platform, not per owner. The cover is frozen from the
// first resolved video's thumbnail.
func (e *Engine) CreatePlaylist(ctx context.Context, userID, name, description string, videoIDs []string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, apperror.InvalidInput("name", "playlist name is required")
	}
	if err := validIDs("videoIds", videoIDs); err != nil {
		return models.Playlist{}, err
	}

	if _, err := e.playlists.FindByName(ctx, name); err == nil {
		return models.Playlist{}, apperror.Conflict("name", "a playlist with this name already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.Playlist{}, apperror.Internal("check playlist name", err)
	}

	owner, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return models.Playlist{}, apperror.Internal("load owner", err)
	}

	ids := dedupe(videoIDs)
	var coverURL string
	if len(ids) > 0 {
		videos, err := e.videos.FindByIDs(ctx, ids)
		if err != nil {
			return models.Playlist{}, apperror.Internal("resolve playlist videos", err)
		}
		if len(videos) != len(ids) {
			return models.Playlist{}, apperror.NotFound("one or more videos not found")
		}
		coverURL = videos[0].ThumbnailURL
	}

	now := e.now()
	playlist := models.Playlist{
		ID:          e.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		VideoIDs:    ids,
		CoverURL:    coverURL,
		OwnerID:     owner.ID,
		OwnerName:   owner.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperror.Conflict("name", "a playlist with this name already exists")
		}
		return models.Playlist{}, apperror.Internal("create playlist", err)
	}
	return playlist, nil
}

// AddVideosToPlaylist appends the given ids that are not already present,
// keeping the existing order. Ids already in the playlist are ignored.
func (e *Engine) AddVideosToPlaylist(ctx context.Context, userID, playlistID string, videoIDs []string) (models.Playlist, error) {
	if len(videoIDs) == 0 {
		return models.Playlist{}, apperror.InvalidInput("videoIds", "at least one video id is required")
	}
	if err := validIDs("videoIds", videoIDs); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := e.loadOwnedPlaylist(ctx, userID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	videos, err := e.videos.FindByIDs(ctx, dedupe(videoIDs))
	if err != nil {
		return models.Playlist{}, apperror.Internal("resolve videos", err)
	}
	if len(videos) != len(dedupe(videoIDs)) {
		return models.Playlist{}, apperror.NotFound("one or more videos not found")
	}

	present := make(map[string]bool, len(playlist.VideoIDs))
	for _, id := range playlist.VideoIDs {
		present[id] = true
	}
	merged := append([]string{}, playlist.VideoIDs...)
	for _, v := range videos {
		if !present[v.ID] {
			merged = append(merged, v.ID)
			present[v.ID] = true
		}
	}
	if len(merged) == len(playlist.VideoIDs) {
		return playlist, nil
	}

	updated, err := e.playlists.SetVideos(ctx, playlist.ID, merged)
	if err != nil {
		return models.Playlist{}, apperror.Internal("update playlist videos", err)
	}
	return updated, nil
}

// RemoveVideosFromPlaylist drops the given ids from the playlist. Ids not in
// the playlist are ignored.
func (e *Engine) RemoveVideosFromPlaylist(ctx context.Context, userID, playlistID string, videoIDs []string) (models.Playlist, error) {
	if len(videoIDs) == 0 {
		return models.Playlist{}, apperror.InvalidInput("videoIds", "at least one video id is required")
	}
	if err := validIDs("videoIds", videoIDs); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := e.loadOwnedPlaylist(ctx, userID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	drop := make(map[string]bool, len(videoIDs))
	for _, id := range videoIDs {
		drop[id] = true
	}
	kept := make([]string, 0, len(playlist.VideoIDs))
	for _, id := range playlist.VideoIDs {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(playlist.VideoIDs) {
		return playlist, nil
	}

	updated, err := e.playlists.SetVideos(ctx, playlist.ID, kept)
	if err != nil {
		return models.Playlist{}, apperror.Internal("update playlist videos", err)
	}
	return updated, nil
}

// UpdatePlaylistDetails changes the name and/or description. Name changes
// stay subject to the global uniqueness rule.
func (e *Engine) UpdatePlaylistDetails(ctx context.Context, userID, playlistID, name, description string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" && description == "" {
		return models.Playlist{}, ErrNoChanges
	}

	playlist, err := e.loadOwnedPlaylist(ctx, userID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	updated, err := e.playlists.UpdateDetails(ctx, playlist.ID, name, description)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.Playlist{}, apperror.Conflict("name", "a playlist with this name already exists")
		case errors.Is(err, repositories.ErrNotFound):
			return models.Playlist{}, apperror.NotFound("playlist not found")
		default:
			return models.Playlist{}, apperror.Internal("update playlist", err)
		}
	}
	return updated, nil
}

// DeletePlaylist removes a playlist the caller owns.
func (e *Engine) DeletePlaylist(ctx context.Context, userID, playlistID string) error {
	playlist, err := e.loadOwnedPlaylist(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	if err := e.playlists.Delete(ctx, playlist.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperror.Internal("delete playlist", err)
	}
	return nil
}

func (e *Engine) loadOwnedPlaylist(ctx context.Context, userID, playlistID string) (models.Playlist, error) {
	playlist, err := e.playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperror.NotFound("playlist not found")
		}
		return models.Playlist{}, apperror.Internal("load playlist", err)
	}
	if err := requireOwner(playlist.OwnerID, userID, "playlist"); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
