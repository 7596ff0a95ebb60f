package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateConflictsAndProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice@example.com",
		Password:     "secret-hash",
		DisplayName:  "Alice",
		WatchHistory: []string{},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dupEmail := models.User{
		ID:        uuid.NewString(),
		Username:  "someone-else",
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, dupEmail); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	dupUsername := models.User{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Email:     "fresh@example.com",
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, dupUsername); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	fetched, err := repo.FindByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if fetched.ID != user.ID || fetched.Email != user.Email || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}
	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	// Empty fields keep their stored value.
	updated, err := repo.UpdateProfile(ctx, user.ID, "Alice Prime", "")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.DisplayName != "Alice Prime" || updated.Email != user.Email {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "rotated-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := repo.SetRefreshToken(ctx, user.ID, "refresh-abc"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id after updates: %v", err)
	}
	if fetched.Password != "rotated-hash" || fetched.RefreshToken != "refresh-abc" {
		t.Fatalf("expected rotated credentials, got %+v", fetched)
	}

	// Clearing the token stores NULL, which reads back empty.
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id after revoke: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("expected empty refresh token, got %q", fetched.RefreshToken)
	}

	if _, err := repo.UpdateProfile(ctx, uuid.NewString(), "ghost", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_WatchHistoryPrepend(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	viewer := createTestUser(t, repo, "viewer")
	owner := createTestUser(t, repo, "owner")

	videoRepo := NewPostgresVideoRepository(testPool)
	first := createTestVideo(t, videoRepo, owner, "First", models.PublishStatusPublic)
	second := createTestVideo(t, videoRepo, owner, "Second", models.PublishStatusPublic)

	for _, videoID := range []string{first.ID, second.ID, first.ID} {
		if err := repo.PushWatchHistory(ctx, viewer.ID, videoID); err != nil {
			t.Fatalf("push watch history %s: %v", videoID, err)
		}
	}

	fetched, err := repo.FindByID(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("find viewer: %v", err)
	}

	// Rewatching moves the entry to the front instead of duplicating it.
	if len(fetched.WatchHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(fetched.WatchHistory))
	}
	if fetched.WatchHistory[0] != first.ID || fetched.WatchHistory[1] != second.ID {
		t.Fatalf("unexpected history order: %v", fetched.WatchHistory)
	}

	if err := repo.PushWatchHistory(ctx, uuid.NewString(), first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown viewer, got %v", err)
	}
}

func TestPostgresVideoRepository_VisibilityAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "creator")
	other := createTestUser(t, userRepo, "bystander")

	repo := NewPostgresVideoRepository(testPool)
	public := createTestVideo(t, repo, owner, "Public Clip", models.PublishStatusPublic)
	private := createTestVideo(t, repo, owner, "Private Clip", models.PublishStatusPrivate)
	foreign := createTestVideo(t, repo, other, "Bystander Clip", models.PublishStatusPublic)

	missingOwner := models.Video{
		ID:        uuid.NewString(),
		Title:     "Orphan",
		MediaURL:  "https://cdn.example.com/videos/orphan.mp4",
		OwnerID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, missingOwner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}

	feed, err := repo.ListPublic(ctx, other.ID, 10, 0)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != public.ID {
		t.Fatalf("expected only the public clip in the feed, got %+v", feed)
	}

	results, err := repo.SearchPublic(ctx, "bystander", "", 10, 0)
	if err != nil {
		t.Fatalf("search public: %v", err)
	}
	if len(results) != 1 || results[0].ID != foreign.ID {
		t.Fatalf("unexpected search results: %+v", results)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViewCount(ctx, public.ID); err != nil {
			t.Fatalf("increment view count: %v", err)
		}
	}
	fetched, err := repo.FindByID(ctx, public.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.ViewCount != 3 {
		t.Fatalf("expected 3 views, got %d", fetched.ViewCount)
	}

	count, err := repo.CountPublicForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count public for owner: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 public video for owner, got %d", count)
	}

	flipped, err := repo.SetPublishStatus(ctx, private.ID, models.PublishStatusPublic)
	if err != nil {
		t.Fatalf("set publish status: %v", err)
	}
	if flipped.PublishStatus != models.PublishStatusPublic {
		t.Fatalf("expected public status, got %s", flipped.PublishStatus)
	}

	withCounts, err := repo.ListForOwnerWithCounts(ctx, owner.ID, "created_at", "desc", 10, 0)
	if err != nil {
		t.Fatalf("list for owner with counts: %v", err)
	}
	if len(withCounts) != 2 {
		t.Fatalf("expected 2 owner videos after publish, got %d", len(withCounts))
	}

	ordered, err := repo.FindByIDs(ctx, []string{foreign.ID, uuid.NewString(), public.ID})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(ordered) != 2 || ordered[0].ID != foreign.ID || ordered[1].ID != public.ID {
		t.Fatalf("expected input order with missing ids skipped, got %+v", ordered)
	}
}

func TestPostgresCommentRepository_ListAnnotatesLikes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	viewer := createTestUser(t, userRepo, "viewer")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner, "Discussed", models.PublishStatusPublic)

	repo := NewPostgresCommentRepository(testPool)
	older := models.Comment{
		ID:            uuid.NewString(),
		Content:       "first!",
		OwnerID:       viewer.ID,
		VideoID:       video.ID,
		OwnerUsername: viewer.Username,
		CreatedAt:     time.Now().UTC().Add(-time.Hour),
		UpdatedAt:     time.Now().UTC().Add(-time.Hour),
	}
	newer := models.Comment{
		ID:            uuid.NewString(),
		Content:       "nice clip",
		OwnerID:       owner.ID,
		VideoID:       video.ID,
		OwnerUsername: owner.Username,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	for _, comment := range []models.Comment{older, newer} {
		if err := repo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %s: %v", comment.ID, err)
		}
	}

	likeRepo := NewPostgresLikeRepository(testPool)
	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   viewer.ID,
		Target:    models.CommentTarget(newer.ID),
		CreatedAt: time.Now().UTC(),
	}
	if err := likeRepo.Create(ctx, like); err != nil {
		t.Fatalf("create comment like: %v", err)
	}

	listed, err := repo.ListForVideo(ctx, video.ID, viewer.ID, 10, 0)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(listed))
	}
	if listed[0].ID != newer.ID || listed[1].ID != older.ID {
		t.Fatalf("expected newest-first order, got %+v", listed)
	}
	if listed[0].LikesCount != 1 || !listed[0].LikedByViewer {
		t.Fatalf("expected liked annotation on newest comment, got %+v", listed[0])
	}
	if listed[1].LikesCount != 0 || listed[1].LikedByViewer {
		t.Fatalf("expected no likes on oldest comment, got %+v", listed[1])
	}

	// Anonymous viewers never see likedByViewer set.
	anon, err := repo.ListForVideo(ctx, video.ID, "", 10, 0)
	if err != nil {
		t.Fatalf("list comments anonymously: %v", err)
	}
	if anon[0].LikedByViewer {
		t.Fatalf("expected likedByViewer false for anonymous viewer")
	}

	edited, err := repo.UpdateContent(ctx, older.ID, "first, actually")
	if err != nil {
		t.Fatalf("update comment content: %v", err)
	}
	if edited.Content != "first, actually" {
		t.Fatalf("expected edited content, got %q", edited.Content)
	}

	deleted, err := repo.DeleteForVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("delete comments for video: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted comment ids, got %v", deleted)
	}
	if _, err := repo.FindByID(ctx, newer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cascade delete, got %v", err)
	}
}

func TestPostgresLikeRepository_PairUniqueness(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	fan := createTestUser(t, userRepo, "fan")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner, "Liked", models.PublishStatusPublic)

	repo := NewPostgresLikeRepository(testPool)
	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   fan.ID,
		Target:    models.VideoTarget(video.ID),
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, like); err != nil {
		t.Fatalf("create like: %v", err)
	}

	duplicate := like
	duplicate.ID = uuid.NewString()
	if err := repo.Create(ctx, duplicate); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	exists, err := repo.Exists(ctx, fan.ID, models.VideoTarget(video.ID))
	if err != nil {
		t.Fatalf("check like exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected like to exist")
	}

	count, err := repo.Count(ctx, models.VideoTarget(video.ID))
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 like, got %d", count)
	}

	found, err := repo.Find(ctx, fan.ID, models.VideoTarget(video.ID))
	if err != nil {
		t.Fatalf("find like: %v", err)
	}
	if found.ID != like.ID {
		t.Fatalf("expected like %s, got %s", like.ID, found.ID)
	}

	if err := repo.Delete(ctx, like.ID); err != nil {
		t.Fatalf("delete like: %v", err)
	}
	if err := repo.Delete(ctx, like.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}

	// With the row gone the pair is free again.
	if err := repo.Create(ctx, duplicate); err != nil {
		t.Fatalf("recreate like after delete: %v", err)
	}
	if err := repo.DeleteForVideo(ctx, video.ID); err != nil {
		t.Fatalf("delete likes for video: %v", err)
	}
	if _, err := repo.Find(ctx, fan.ID, models.VideoTarget(video.ID)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after video-wide delete, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_PairUniqueness(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subscriber := createTestUser(t, userRepo, "subscriber")
	channel := createTestUser(t, userRepo, "channel")

	repo := NewPostgresSubscriptionRepository(testPool)
	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	duplicate := sub
	duplicate.ID = uuid.NewString()
	if err := repo.Create(ctx, duplicate); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	found, err := repo.Find(ctx, subscriber.ID, channel.ID)
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if found.ID != sub.ID {
		t.Fatalf("expected subscription %s, got %s", sub.ID, found.ID)
	}

	count, err := repo.CountForChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count subscribers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 subscriber, got %d", count)
	}

	exists, err := repo.Exists(ctx, channel.ID, subscriber.ID)
	if err != nil {
		t.Fatalf("check reverse pair: %v", err)
	}
	if exists {
		t.Fatalf("pair must be directional, reverse should not exist")
	}

	if err := repo.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if err := repo.Delete(ctx, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresPlaylistRepository_NameConflictAndVideoOrder(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "curator")

	videoRepo := NewPostgresVideoRepository(testPool)
	first := createTestVideo(t, videoRepo, owner, "Track One", models.PublishStatusPublic)
	second := createTestVideo(t, videoRepo, owner, "Track Two", models.PublishStatusPublic)

	repo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{
		ID:        uuid.NewString(),
		Name:      "Favorites",
		VideoIDs:  []string{first.ID},
		OwnerID:   owner.ID,
		OwnerName: owner.Username,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	duplicate := playlist
	duplicate.ID = uuid.NewString()
	if err := repo.Create(ctx, duplicate); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}

	reordered, err := repo.SetVideos(ctx, playlist.ID, []string{second.ID, first.ID})
	if err != nil {
		t.Fatalf("set playlist videos: %v", err)
	}
	if len(reordered.VideoIDs) != 2 || reordered.VideoIDs[0] != second.ID || reordered.VideoIDs[1] != first.ID {
		t.Fatalf("expected persisted order, got %v", reordered.VideoIDs)
	}

	renamed, err := repo.UpdateDetails(ctx, playlist.ID, "Essentials", "")
	if err != nil {
		t.Fatalf("rename playlist: %v", err)
	}
	if renamed.Name != "Essentials" {
		t.Fatalf("expected renamed playlist, got %q", renamed.Name)
	}

	if _, err := repo.FindByName(ctx, "Favorites"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old name to be free, got %v", err)
	}

	listed, err := repo.ListForOwner(ctx, owner.ID, 10, 0)
	if err != nil {
		t.Fatalf("list playlists: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != playlist.ID {
		t.Fatalf("unexpected playlists for owner: %+v", listed)
	}
}

func TestPostgresAccountRepository_PurgeCascades(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	doomed := createTestUser(t, userRepo, "doomed")
	bystander := createTestUser(t, userRepo, "bystander")

	videoRepo := NewPostgresVideoRepository(testPool)
	ownVideo := createTestVideo(t, videoRepo, doomed, "Mine", models.PublishStatusPublic)
	otherVideo := createTestVideo(t, videoRepo, bystander, "Theirs", models.PublishStatusPublic)

	commentRepo := NewPostgresCommentRepository(testPool)
	onOwn := models.Comment{
		ID: uuid.NewString(), Content: "hello", OwnerID: bystander.ID, VideoID: ownVideo.ID,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	onOther := models.Comment{
		ID: uuid.NewString(), Content: "bye", OwnerID: doomed.ID, VideoID: otherVideo.ID,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	for _, comment := range []models.Comment{onOwn, onOther} {
		if err := commentRepo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	likeRepo := NewPostgresLikeRepository(testPool)
	likes := []models.Like{
		{ID: uuid.NewString(), LikedBy: bystander.ID, Target: models.VideoTarget(ownVideo.ID), CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), LikedBy: bystander.ID, Target: models.CommentTarget(onOwn.ID), CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), LikedBy: doomed.ID, Target: models.VideoTarget(otherVideo.ID), CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), LikedBy: bystander.ID, Target: models.CommentTarget(onOther.ID), CreatedAt: time.Now().UTC()},
	}
	for _, like := range likes {
		if err := likeRepo.Create(ctx, like); err != nil {
			t.Fatalf("create like: %v", err)
		}
	}

	subRepo := NewPostgresSubscriptionRepository(testPool)
	subs := []models.Subscription{
		{ID: uuid.NewString(), SubscriberID: doomed.ID, ChannelID: bystander.ID, CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), SubscriberID: bystander.ID, ChannelID: doomed.ID, CreatedAt: time.Now().UTC()},
	}
	for _, sub := range subs {
		if err := subRepo.Create(ctx, sub); err != nil {
			t.Fatalf("create subscription: %v", err)
		}
	}

	playlistRepo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{
		ID: uuid.NewString(), Name: "Doomed Mix", VideoIDs: []string{ownVideo.ID},
		OwnerID: doomed.ID, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := playlistRepo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	repo := NewPostgresAccountRepository(testPool)
	assets, err := repo.PurgeUser(ctx, doomed.ID)
	if err != nil {
		t.Fatalf("purge user: %v", err)
	}
	if len(assets.VideoAssets) != 2 {
		t.Fatalf("expected media and thumbnail urls for the owned video, got %v", assets.VideoAssets)
	}

	if _, err := userRepo.FindByID(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user row gone, got %v", err)
	}
	if _, err := videoRepo.FindByID(ctx, ownVideo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected owned video gone, got %v", err)
	}
	if _, err := commentRepo.FindByID(ctx, onOwn.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected comment on owned video gone, got %v", err)
	}
	if _, err := commentRepo.FindByID(ctx, onOther.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected doomed user's comment gone, got %v", err)
	}
	if _, err := playlistRepo.FindByID(ctx, playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected playlist gone, got %v", err)
	}
	for _, sub := range subs {
		if _, err := subRepo.Find(ctx, sub.SubscriberID, sub.ChannelID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected subscription %s gone, got %v", sub.ID, err)
		}
	}

	// Content that only referenced the purged user's activity stays put.
	if _, err := videoRepo.FindByID(ctx, otherVideo.ID); err != nil {
		t.Fatalf("expected bystander video to survive: %v", err)
	}
	count, err := likeRepo.Count(ctx, models.VideoTarget(otherVideo.ID))
	if err != nil {
		t.Fatalf("count likes on surviving video: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected doomed user's like removed, got %d", count)
	}

	if _, err := repo.PurgeUser(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound purging twice, got %v", err)
	}
}

func TestPostgresAccountRepository_PurgeRollsBackOnStepFailure(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	doomed := createTestUser(t, userRepo, "doomed")

	videoRepo := NewPostgresVideoRepository(testPool)
	ownVideo := createTestVideo(t, videoRepo, doomed, "Mine", models.PublishStatusPublic)

	commentRepo := NewPostgresCommentRepository(testPool)
	comment := models.Comment{
		ID: uuid.NewString(), Content: "hello", OwnerID: doomed.ID, VideoID: ownVideo.ID,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := commentRepo.Create(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	// The playlist delete runs after videos and comments are already gone
	// inside the transaction; breaking it proves those earlier steps are
	// rolled back rather than committed piecemeal.
	execSQL(t, "ALTER TABLE playlists RENAME TO playlists_broken")
	defer execSQL(t, "ALTER TABLE playlists_broken RENAME TO playlists")

	repo := NewPostgresAccountRepository(testPool)
	if _, err := repo.PurgeUser(ctx, doomed.ID); err == nil {
		t.Fatal("expected purge to fail with the playlists step broken")
	}

	if _, err := userRepo.FindByID(ctx, doomed.ID); err != nil {
		t.Fatalf("expected user row to survive the failed purge: %v", err)
	}
	if _, err := videoRepo.FindByID(ctx, ownVideo.ID); err != nil {
		t.Fatalf("expected owned video restored by rollback: %v", err)
	}
	if _, err := commentRepo.FindByID(ctx, comment.ID); err != nil {
		t.Fatalf("expected comment restored by rollback: %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, comments, subscriptions, playlists, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func execSQL(t *testing.T, sql string) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sql); err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		Password:     "password-hash",
		DisplayName:  username,
		WatchHistory: []string{},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, owner models.User, title, status string) models.Video {
	t.Helper()
	video := models.Video{
		ID:            uuid.NewString(),
		Title:         title,
		MediaURL:      "https://cdn.example.com/videos/" + uuid.NewString() + ".mp4",
		ThumbnailURL:  "https://cdn.example.com/thumbnails/" + uuid.NewString() + ".png",
		PublishStatus: status,
		OwnerID:       owner.ID,
		OwnerName:     owner.DisplayName,
		OwnerUsername: owner.Username,
		OwnerAvatar:   owner.AvatarURL,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}
