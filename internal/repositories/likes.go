package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// LikeRepository exposes data access for likes. Targets are polymorphic
// (video or comment); the tagged models.LikeTarget picks the column.
type LikeRepository interface {
	Create(ctx context.Context, like models.Like) error
	Find(ctx context.Context, userID string, target models.LikeTarget) (models.Like, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
	Exists(ctx context.Context, userID string, target models.LikeTarget) (bool, error)
	DeleteForVideo(ctx context.Context, videoID string) error
	DeleteForComment(ctx context.Context, commentID string) error
	DeleteForComments(ctx context.Context, commentIDs []string) error
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func targetColumn(target models.LikeTarget) (string, error) {
	switch target.Kind {
	case models.TargetVideo:
		return "video_id", nil
	case models.TargetComment:
		return "comment_id", nil
	default:
		return "", fmt.Errorf("unknown like target kind %q", target.Kind)
	}
}

// Create persists a new like. The partial unique indexes on
// (liked_by, video_id) and (liked_by, comment_id) surface races as ErrConflict.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	column, err := targetColumn(like.Target)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
    `, like.ID, like.LikedBy, like.Target.ID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Find returns the like a user placed on a target, if any.
func (r *PostgresLikeRepository) Find(ctx context.Context, userID string, target models.LikeTarget) (models.Like, error) {
	column, err := targetColumn(target)
	if err != nil {
		return models.Like{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, liked_by, created_at FROM likes WHERE liked_by = $1 AND `+column+` = $2
    `, userID, target.ID)

	like := models.Like{Target: target}
	if err := row.Scan(&like.ID, &like.LikedBy, &like.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}
	return like, nil
}

// Delete removes a like by id.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of likes on a target.
func (r *PostgresLikeRepository) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	column, err := targetColumn(target)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE `+column+` = $1`, target.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// Exists reports whether the user has liked the target.
func (r *PostgresLikeRepository) Exists(ctx context.Context, userID string, target models.LikeTarget) (bool, error) {
	if userID == "" {
		return false, nil
	}

	column, err := targetColumn(target)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM likes WHERE liked_by = $1 AND `+column+` = $2)
    `, userID, target.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check like existence: %w", err)
	}
	return exists, nil
}

// DeleteForVideo removes all likes targeting a video.
func (r *PostgresLikeRepository) DeleteForVideo(ctx context.Context, videoID string) error {
	return r.deleteWhere(ctx, `DELETE FROM likes WHERE video_id = $1`, videoID)
}

// DeleteForComment removes all likes targeting a comment.
func (r *PostgresLikeRepository) DeleteForComment(ctx context.Context, commentID string) error {
	return r.deleteWhere(ctx, `DELETE FROM likes WHERE comment_id = $1`, commentID)
}

// DeleteForComments removes all likes targeting any of the provided comments.
func (r *PostgresLikeRepository) DeleteForComments(ctx context.Context, commentIDs []string) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.deleteWhere(ctx, `DELETE FROM likes WHERE comment_id = ANY($1)`, commentIDs)
}

func (r *PostgresLikeRepository) deleteWhere(ctx context.Context, sql string, arg any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sql, arg); err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}
	return nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
