package views

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// PlaylistView is a playlist with its video ids resolved.
type PlaylistView struct {
	Playlist   models.Playlist
	Videos     []models.Video
	TotalViews int64
}

// Playlist resolves a playlist's video ids to full videos, preserving the
// stored order, and sums their view counts.
func (c *Composer) Playlist(ctx context.Context, playlistID string) (PlaylistView, error) {
	playlist, err := c.playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return PlaylistView{}, apperror.NotFound("playlist not found")
		}
		return PlaylistView{}, apperror.Internal("load playlist", err)
	}

	var videos []models.Video
	if len(playlist.VideoIDs) > 0 {
		videos, err = c.videos.FindByIDs(ctx, playlist.VideoIDs)
		if err != nil {
			return PlaylistView{}, apperror.Internal("resolve playlist videos", err)
		}
	}

	var totalViews int64
	for _, v := range videos {
		totalViews += v.ViewCount
	}

	return PlaylistView{Playlist: playlist, Videos: videos, TotalViews: totalViews}, nil
}

// Playlists pages through a channel owner's playlists.
func (c *Composer) Playlists(ctx context.Context, ownerID string, page, limit int) ([]models.Playlist, error) {
	_, limit, offset := normalizePage(page, limit)
	playlists, err := c.playlists.ListForOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, apperror.Internal("list playlists", err)
	}
	return playlists, nil
}
