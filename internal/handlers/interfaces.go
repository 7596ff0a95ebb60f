package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/account"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/mutate"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// SessionManager exchanges bearer credentials for users and fresh tokens.
type SessionManager interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	RequireAuth(ctx context.Context, accessToken string) (models.User, error)
	Refresh(ctx context.Context, refreshToken string) (models.User, models.SessionTokens, error)
}

// AccountService captures the account lifecycle operations used by handlers.
type AccountService interface {
	Register(ctx context.Context, input account.RegisterInput) (models.User, models.SessionTokens, error)
	Login(ctx context.Context, email, password string) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	ChangePassword(ctx context.Context, userID, current, updated string) error
	UpdateProfile(ctx context.Context, userID, displayName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, file *storage.File) (models.User, error)
	UpdateCover(ctx context.Context, userID string, file *storage.File) (models.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// ViewComposer captures the read-model operations used by handlers.
type ViewComposer interface {
	Channel(ctx context.Context, channelUsername, viewerID string) (views.ChannelView, error)
	VideoPlay(ctx context.Context, videoID, viewerID string, selfView bool) (views.VideoPlayView, error)
	Feed(ctx context.Context, viewerID, query string, page, limit int) (views.FeedPage, error)
	Comments(ctx context.Context, videoID, viewerID string, page, limit int) ([]models.CommentWithLikes, error)
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
	DashboardStats(ctx context.Context, ownerID string) (views.DashboardStatsView, error)
	ChannelVideos(ctx context.Context, ownerID string, page, limit int, sortBy, order string) ([]models.VideoWithCounts, error)
	Playlist(ctx context.Context, playlistID string) (views.PlaylistView, error)
	Playlists(ctx context.Context, ownerID string, page, limit int) ([]models.Playlist, error)
}

// MutationEngine captures the write operations used by handlers.
type MutationEngine interface {
	ToggleLike(ctx context.Context, userID string, target models.LikeTarget) (mutate.ToggleResult, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (mutate.ToggleResult, error)
	AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error)
	EditComment(ctx context.Context, userID, commentID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
	CreatePlaylist(ctx context.Context, userID, name, description string, videoIDs []string) (models.Playlist, error)
	AddVideosToPlaylist(ctx context.Context, userID, playlistID string, videoIDs []string) (models.Playlist, error)
	RemoveVideosFromPlaylist(ctx context.Context, userID, playlistID string, videoIDs []string) (models.Playlist, error)
	UpdatePlaylistDetails(ctx context.Context, userID, playlistID, name, description string) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, userID, playlistID string) error
	UploadVideo(ctx context.Context, userID string, input mutate.UploadVideoInput) (models.Video, error)
	UpdateVideoDetails(ctx context.Context, userID, videoID, title, description string, thumbnail *storage.File) (models.Video, error)
	DeleteVideo(ctx context.Context, userID, videoID string) error
	TogglePublishStatus(ctx context.Context, userID, videoID, status string) (models.Video, error)
}
