package app

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/account"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/mutate"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	accounts := repositories.NewPostgresAccountRepository(pool)

	tokens, err := auth.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure token service: %w", err)
	}
	sessions := auth.NewManager(tokens, users)

	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}
	probe := storage.NewMediaProbe(cfg.FFProbePath, cfg.FFProbeTimeout)

	composer := views.NewComposer(users, videos, comments, likes, subscriptions, playlists)
	engine := mutate.NewEngine(users, videos, comments, likes, subscriptions, playlists, blobs, probe)
	accountSvc := account.NewService(users, accounts, blobs, sessions, auth.NewHasher())

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, 5*cfg.AuthRateWindow)

	return handlers.Dependencies{
		Accounts:    accountSvc,
		Sessions:    sessions,
		Views:       composer,
		Mutations:   engine,
		AuthLimiter: limiter,
	}, nil
}
