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

// VideoRepository exposes data access for videos, including the read-time
// query primitives the view composer joins over.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	IncrementViewCount(ctx context.Context, id string) error
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	SetPublishStatus(ctx context.Context, id, status string) (models.Video, error)
	Delete(ctx context.Context, id string) error

	CountPublicForOwner(ctx context.Context, ownerID string) (int64, error)
	ListTopByViews(ctx context.Context, ownerID string, n int) ([]models.Video, error)
	ListRecent(ctx context.Context, ownerID string, n int) ([]models.Video, error)
	SamplePublic(ctx context.Context, excludeVideoID, excludeOwnerID string, n int) ([]models.Video, error)
	ListPublic(ctx context.Context, excludeOwnerID string, limit, offset int) ([]models.Video, error)
	SearchPublic(ctx context.Context, query, excludeOwnerID string, limit, offset int) ([]models.Video, error)
	ListForOwnerWithCounts(ctx context.Context, ownerID, sortColumn, direction string, limit, offset int) ([]models.VideoWithCounts, error)
	EngagementTotals(ctx context.Context, ownerID string) (models.VideoEngagementTotals, error)
}

const videoColumns = `id, title, description, media_url, thumbnail_url, duration_seconds, view_count, publish_status, owner_id, owner_name, owner_username, owner_avatar, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create persists a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, media_url, thumbnail_url, duration_seconds, view_count, publish_status, owner_id, owner_name, owner_username, owner_avatar, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, video.ID, video.Title, video.Description, video.MediaURL, video.ThumbnailURL,
		video.DurationSeconds, video.ViewCount, video.PublishStatus, video.OwnerID,
		video.OwnerName, video.OwnerUsername, video.OwnerAvatar, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// FindByIDs fetches a batch of videos, preserving the order of the provided
// id sequence. Ids with no backing record are skipped.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query videos by ids: %w", err)
	}

	fetched, err := collectVideos(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Video, len(fetched))
	for _, v := range fetched {
		byID[v.ID] = v
	}

	ordered := make([]models.Video, 0, len(fetched))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

// IncrementViewCount bumps the monotonic view counter by exactly one.
func (r *PostgresVideoRepository) IncrementViewCount(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetails modifies title, description, and/or thumbnail; empty fields
// keep their stored value. Returns the updated record.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = COALESCE(NULLIF($2, ''), title),
            description = COALESCE(NULLIF($3, ''), description),
            thumbnail_url = COALESCE(NULLIF($4, ''), thumbnail_url),
            updated_at = NOW()
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description, thumbnailURL)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video details: %w", err)
	}
	return video, nil
}

// SetPublishStatus flips the visibility of a video.
func (r *PostgresVideoRepository) SetPublishStatus(ctx context.Context, id, status string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos SET publish_status = $2, updated_at = NOW() WHERE id = $1
        RETURNING `+videoColumns, id, status)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update publish status: %w", err)
	}
	return video, nil
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPublicForOwner counts the owner's public videos.
func (r *PostgresVideoRepository) CountPublicForOwner(ctx context.Context, ownerID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM videos WHERE owner_id = $1 AND publish_status = 'public'
    `, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count videos for owner: %w", err)
	}
	return count, nil
}

// ListTopByViews returns the owner's most viewed public videos.
func (r *PostgresVideoRepository) ListTopByViews(ctx context.Context, ownerID string, n int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE owner_id = $1 AND publish_status = 'public'
        ORDER BY view_count DESC
        LIMIT $2
    `, ownerID, n)
}

// ListRecent returns the owner's newest public videos.
func (r *PostgresVideoRepository) ListRecent(ctx context.Context, ownerID string, n int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE owner_id = $1 AND publish_status = 'public'
        ORDER BY created_at DESC
        LIMIT $2
    `, ownerID, n)
}

// SamplePublic returns up to n random public videos, excluding one video and
// one owner. Empty exclusions match nothing.
func (r *PostgresVideoRepository) SamplePublic(ctx context.Context, excludeVideoID, excludeOwnerID string, n int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE publish_status = 'public' AND id <> $1 AND owner_id <> $2
        ORDER BY random()
        LIMIT $3
    `, excludeVideoID, excludeOwnerID, n)
}

// ListPublic returns a randomly ordered page of public videos. The feed is
// deliberately sampled rather than ranked by recency.
func (r *PostgresVideoRepository) ListPublic(ctx context.Context, excludeOwnerID string, limit, offset int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE publish_status = 'public' AND owner_id <> $1
        ORDER BY random()
        LIMIT $2 OFFSET $3
    `, excludeOwnerID, limit, offset)
}

// SearchPublic ranks public videos by a text match over title and channel name.
func (r *PostgresVideoRepository) SearchPublic(ctx context.Context, query, excludeOwnerID string, limit, offset int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE publish_status = 'public'
          AND owner_id <> $2
          AND to_tsvector('simple', title || ' ' || owner_name) @@ plainto_tsquery('simple', $1)
        ORDER BY ts_rank(to_tsvector('simple', title || ' ' || owner_name), plainto_tsquery('simple', $1)) DESC
        LIMIT $3 OFFSET $4
    `, query, excludeOwnerID, limit, offset)
}

// ListForOwnerWithCounts returns the owner's public videos with per-video
// like and comment counts. sortColumn must come from the caller's whitelist;
// it is interpolated, never taken from a request verbatim.
func (r *PostgresVideoRepository) ListForOwnerWithCounts(ctx context.Context, ownerID, sortColumn, direction string, limit, offset int) ([]models.VideoWithCounts, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s,
               (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id) AS likes_count,
               (SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id) AS comments_count
        FROM videos v
        WHERE owner_id = $1 AND publish_status = 'public'
        ORDER BY %s %s
        LIMIT $2 OFFSET $3
    `, prefixColumns("v", videoColumns), sortColumn, direction), ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query owner videos: %w", err)
	}
	defer rows.Close()

	var out []models.VideoWithCounts
	for rows.Next() {
		var vc models.VideoWithCounts
		if err := rows.Scan(
			&vc.ID, &vc.Title, &vc.Description, &vc.MediaURL, &vc.ThumbnailURL,
			&vc.DurationSeconds, &vc.ViewCount, &vc.PublishStatus, &vc.OwnerID,
			&vc.OwnerName, &vc.OwnerUsername, &vc.OwnerAvatar, &vc.CreatedAt, &vc.UpdatedAt,
			&vc.LikesCount, &vc.CommentsCount,
		); err != nil {
			return nil, fmt.Errorf("scan owner video: %w", err)
		}
		out = append(out, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owner videos: %w", err)
	}
	return out, nil
}

// EngagementTotals sums likes and comments across all videos owned by the user.
func (r *PostgresVideoRepository) EngagementTotals(ctx context.Context, ownerID string) (models.VideoEngagementTotals, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoEngagementTotals{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var totals models.VideoEngagementTotals
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM((SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id)), 0),
               COALESCE(SUM((SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id)), 0)
        FROM videos v
        WHERE owner_id = $1
    `, ownerID).Scan(&totals.Videos, &totals.Likes, &totals.Comments)
	if err != nil {
		return models.VideoEngagementTotals{}, fmt.Errorf("sum video engagement: %w", err)
	}
	return totals, nil
}

func (r *PostgresVideoRepository) list(ctx context.Context, sql string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.MediaURL, &v.ThumbnailURL,
		&v.DurationSeconds, &v.ViewCount, &v.PublishStatus, &v.OwnerID,
		&v.OwnerName, &v.OwnerUsername, &v.OwnerAvatar, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
