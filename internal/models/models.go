package models

import "time"

// PublishStatus values for videos.
const (
	PublishStatusPublic  = "public"
	PublishStatusPrivate = "private"
)

// User represents an account within the VidTube platform. A user acting as a
// content owner is referred to elsewhere as a channel.
type User struct {
	ID           string
	Username     string
	Email        string
	Password     string
	DisplayName  string
	AvatarURL    string
	CoverURL     string
	WatchHistory []string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of the user with credential fields cleared.
// Handlers must never serialize the original record.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}

// Video stores an uploaded video along with the owner display fields frozen
// at creation time. Renaming a channel does not rewrite past videos.
type Video struct {
	ID              string
	Title           string
	Description     string
	MediaURL        string
	ThumbnailURL    string
	DurationSeconds float64
	ViewCount       int64
	PublishStatus   string
	OwnerID         string
	OwnerName       string
	OwnerUsername   string
	OwnerAvatar     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Comment belongs to exactly one video and carries the author snapshot taken
// when it was written.
type Comment struct {
	ID            string
	Content       string
	OwnerID       string
	VideoID       string
	OwnerUsername string
	OwnerAvatar   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TargetKind discriminates what a like points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// LikeTarget is the tagged target of a like: a video or a comment, never both.
type LikeTarget struct {
	Kind TargetKind
	ID   string
}

// VideoTarget builds a like target pointing at a video.
func VideoTarget(videoID string) LikeTarget {
	return LikeTarget{Kind: TargetVideo, ID: videoID}
}

// CommentTarget builds a like target pointing at a comment.
func CommentTarget(commentID string) LikeTarget {
	return LikeTarget{Kind: TargetComment, ID: commentID}
}

// Like records that a user liked a single target. At most one like exists per
// (LikedBy, Target) pair; the mutation engine enforces the flip semantics.
type Like struct {
	ID        string
	LikedBy   string
	Target    LikeTarget
	CreatedAt time.Time
}

// Subscription links a subscriber to a channel. At most one per pair.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Playlist is an ordered video id sequence with set semantics for add/remove.
type Playlist struct {
	ID          string
	Name        string
	Description string
	VideoIDs    []string
	CoverURL    string
	OwnerID     string
	OwnerName   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// CommentWithLikes annotates a comment with read-time like aggregates.
type CommentWithLikes struct {
	Comment
	LikesCount    int64
	LikedByViewer bool
}

// VideoWithCounts annotates a video with read-time engagement aggregates.
type VideoWithCounts struct {
	Video
	LikesCount    int64
	CommentsCount int64
}

// VideoEngagementTotals aggregates engagement across all videos of one owner.
type VideoEngagementTotals struct {
	Videos   int64
	Likes    int64
	Comments int64
}
