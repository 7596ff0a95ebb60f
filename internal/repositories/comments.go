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

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteForVideo(ctx context.Context, videoID string) ([]string, error)
	ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentWithLikes, error)
}

const commentColumns = `id, content, owner_id, video_id, owner_username, owner_avatar, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, owner_id, video_id, owner_username, owner_avatar, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, comment.ID, comment.Content, comment.OwnerID, comment.VideoID,
		comment.OwnerUsername, comment.OwnerAvatar, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FindByID fetches a comment by id.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)

	var c models.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.OwnerID, &c.VideoID, &c.OwnerUsername, &c.OwnerAvatar, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return c, nil
}

// UpdateContent replaces the comment body and returns the updated record.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1
        RETURNING `+commentColumns, id, content)

	var c models.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.OwnerID, &c.VideoID, &c.OwnerUsername, &c.OwnerAvatar, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForVideo removes all comments on a video and returns the deleted ids
// so the caller can cascade to likes targeting them.
func (r *PostgresCommentRepository) DeleteForVideo(ctx context.Context, videoID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `DELETE FROM comments WHERE video_id = $1 RETURNING id`, videoID)
	if err != nil {
		return nil, fmt.Errorf("delete comments for video: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted comment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted comments: %w", err)
	}
	return ids, nil
}

// ListForVideo returns a newest-first page of comments, each annotated with
// its like count and whether the viewer liked it. An empty viewerID yields
// likedByViewer=false throughout.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentWithLikes, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+prefixColumns("c", commentColumns)+`,
               (SELECT COUNT(*) FROM likes l WHERE l.comment_id = c.id) AS likes_count,
               EXISTS(SELECT 1 FROM likes l WHERE l.comment_id = c.id AND l.liked_by = $2) AS liked_by_viewer
        FROM comments c
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $3 OFFSET $4
    `, videoID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []models.CommentWithLikes
	for rows.Next() {
		var c models.CommentWithLikes
		if err := rows.Scan(
			&c.ID, &c.Content, &c.OwnerID, &c.VideoID, &c.OwnerUsername, &c.OwnerAvatar,
			&c.CreatedAt, &c.UpdatedAt, &c.LikesCount, &c.LikedByViewer,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
