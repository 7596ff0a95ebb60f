package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
)

// PurgedAssets lists the blob URLs that belonged to a purged account. The
// caller releases them from object storage after the transaction commits.
type PurgedAssets struct {
	AvatarURL   string
	CoverURL    string
	VideoAssets []string
}

// AccountRepository removes a user and every row that references them.
type AccountRepository interface {
	PurgeUser(ctx context.Context, userID string) (PurgedAssets, error)
}

// PostgresAccountRepository implements account purge against PostgreSQL.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// PurgeUser deletes the user's videos, comments, likes, playlists,
// subscriptions and finally the user row, all in one transaction. Either
// every row goes or none do. Blob URLs are collected along the way and
// returned so storage cleanup can happen outside the transaction.
func (r *PostgresAccountRepository) PurgeUser(ctx context.Context, userID string) (PurgedAssets, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return PurgedAssets{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PurgedAssets{}, fmt.Errorf("begin purge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var assets PurgedAssets

	row := tx.QueryRow(ctx, `SELECT avatar_url, cover_url FROM users WHERE id = $1`, userID)
	if err := row.Scan(&assets.AvatarURL, &assets.CoverURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurgedAssets{}, ErrNotFound
		}
		return PurgedAssets{}, fmt.Errorf("select user assets: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT media_url, thumbnail_url FROM videos WHERE owner_id = $1`, userID)
	if err != nil {
		return PurgedAssets{}, fmt.Errorf("select video assets: %w", err)
	}
	for rows.Next() {
		var mediaURL, thumbnailURL string
		if err := rows.Scan(&mediaURL, &thumbnailURL); err != nil {
			rows.Close()
			return PurgedAssets{}, fmt.Errorf("scan video assets: %w", err)
		}
		assets.VideoAssets = append(assets.VideoAssets, mediaURL, thumbnailURL)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return PurgedAssets{}, fmt.Errorf("iterate video assets: %w", err)
	}

	// Engagement on the user's content goes first so no foreign key is left
	// dangling mid-transaction: likes on comments under their videos, likes
	// on the videos, the comments, then the videos themselves.
	steps := []struct {
		name string
		sql  string
	}{
		{"comment likes on owned videos", `
            DELETE FROM likes WHERE comment_id IN (
                SELECT c.id FROM comments c
                JOIN videos v ON v.id = c.video_id
                WHERE v.owner_id = $1
            )`},
		{"likes on owned videos", `
            DELETE FROM likes WHERE video_id IN (
                SELECT id FROM videos WHERE owner_id = $1
            )`},
		{"comments on owned videos", `
            DELETE FROM comments WHERE video_id IN (
                SELECT id FROM videos WHERE owner_id = $1
            )`},
		{"owned videos", `DELETE FROM videos WHERE owner_id = $1`},
		{"likes by user", `DELETE FROM likes WHERE liked_by = $1`},
		{"likes on remaining comments by user", `
            DELETE FROM likes WHERE comment_id IN (
                SELECT id FROM comments WHERE owner_id = $1
            )`},
		{"comments by user", `DELETE FROM comments WHERE owner_id = $1`},
		{"playlists", `DELETE FROM playlists WHERE owner_id = $1`},
		{"subscriptions", `DELETE FROM subscriptions WHERE subscriber_id = $1 OR channel_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.sql, userID); err != nil {
			return PurgedAssets{}, fmt.Errorf("delete %s: %w", step.name, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return PurgedAssets{}, fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return PurgedAssets{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return PurgedAssets{}, fmt.Errorf("commit purge transaction: %w", err)
	}
	return assets, nil
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
