package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surfsocial/backend/internal/auth"
	"github.com/surfsocial/backend/internal/models"
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

func TestPostgresUserRepository_UpsertGetAndSearch(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:          "alice",
		DisplayName: "Alice",
		Bio:         "surfer",
		Email:       "alice@example.com",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	fetched, err := repo.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if fetched.DisplayName != "Alice" || fetched.Bio != "surfer" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	// A second upsert for the same id updates in place.
	user.Bio = "longboarder"
	user.UpdatedAt = time.Now().UTC()
	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("upsert updated user: %v", err)
	}

	fetched, err = repo.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get updated user: %v", err)
	}
	if fetched.Bio != "longboarder" {
		t.Fatalf("expected updated bio, got %q", fetched.Bio)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	createTestUser(t, repo, "bob", "Bobby Rivers")
	createTestUser(t, repo, "carol", "Bobbi Shore")

	results, err := repo.Search(ctx, "bobb", "bob", 10)
	if err != nil {
		t.Fatalf("search users: %v", err)
	}
	if len(results) != 1 || results[0].ID != "carol" {
		t.Fatalf("expected search to match carol and exclude the caller, got %+v", results)
	}
}

func TestPostgresFriendRequestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	requests := NewPostgresFriendRequestRepository(testPool)
	edges := NewPostgresFriendEdgeRepository(testPool)

	alice := createTestUser(t, userRepo, "alice", "Alice")
	bob := createTestUser(t, userRepo, "bob", "Bob")
	carol := createTestUser(t, userRepo, "carol", "Carol")

	request := models.FriendRequest{
		ID:        uuid.NewString(),
		Requester: alice.ID,
		Receiver:  bob.ID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := requests.Create(ctx, request); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	// The same pair may not have a second open request in either direction.
	duplicate := request
	duplicate.ID = uuid.NewString()
	if err := requests.Create(ctx, duplicate); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate request, got %v", err)
	}
	reverse := models.FriendRequest{
		ID:        uuid.NewString(),
		Requester: bob.ID,
		Receiver:  alice.ID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := requests.Create(ctx, reverse); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on reverse duplicate, got %v", err)
	}

	pending, err := requests.ListPendingReceived(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list pending received: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("expected bob to have one pending request, got %+v", pending)
	}

	partners, err := requests.OpenPartners(ctx, alice.ID)
	if err != nil {
		t.Fatalf("open partners: %v", err)
	}
	if len(partners) != 1 || partners[0] != bob.ID {
		t.Fatalf("expected bob as open partner, got %v", partners)
	}

	if err := requests.Accept(ctx, request.ID); err != nil {
		t.Fatalf("accept friend request: %v", err)
	}

	// Acceptance resolves the request and materializes both edge directions
	// in the same transaction.
	accepted, err := requests.Get(ctx, request.ID)
	if err != nil {
		t.Fatalf("get accepted request: %v", err)
	}
	if accepted.Status != models.RequestStatusAccepted || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted request: %+v", accepted)
	}

	areFriends, err := edges.AreFriends(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if !areFriends {
		t.Fatal("expected edges in both directions after acceptance")
	}

	if err := requests.Accept(ctx, request.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict accepting twice, got %v", err)
	}
	if err := requests.Reject(ctx, request.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict rejecting an accepted request, got %v", err)
	}
	if err := requests.Accept(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown request, got %v", err)
	}

	// A rejected pair frees the unique slot for another attempt.
	toCarol := models.FriendRequest{
		ID:        uuid.NewString(),
		Requester: alice.ID,
		Receiver:  carol.ID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := requests.Create(ctx, toCarol); err != nil {
		t.Fatalf("create request to carol: %v", err)
	}
	if err := requests.Reject(ctx, toCarol.ID); err != nil {
		t.Fatalf("reject request: %v", err)
	}
	retry := models.FriendRequest{
		ID:        uuid.NewString(),
		Requester: carol.ID,
		Receiver:  alice.ID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := requests.Create(ctx, retry); err != nil {
		t.Fatalf("expected retry after rejection to succeed: %v", err)
	}

	if err := requests.Delete(ctx, retry.ID); err != nil {
		t.Fatalf("delete request: %v", err)
	}
	if err := requests.Delete(ctx, retry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresFriendRequestRepository_ConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	requests := NewPostgresFriendRequestRepository(testPool)
	edges := NewPostgresFriendEdgeRepository(testPool)

	alice := createTestUser(t, userRepo, "alice", "Alice")
	bob := createTestUser(t, userRepo, "bob", "Bob")

	request := models.FriendRequest{
		ID:        uuid.NewString(),
		Requester: alice.ID,
		Receiver:  bob.ID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := requests.Create(ctx, request); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	const attempts = 4
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = requests.Accept(ctx, request.ID)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != attempts-1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", succeeded, conflicted)
	}

	friends, err := edges.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 || friends[0] != bob.ID {
		t.Fatalf("expected exactly one edge for alice, got %v", friends)
	}
}

func TestPostgresFriendEdgeRepository_AddEdge(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	edges := NewPostgresFriendEdgeRepository(testPool)

	alice := createTestUser(t, userRepo, "alice", "Alice")
	bob := createTestUser(t, userRepo, "bob", "Bob")

	if err := edges.AddEdge(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	// Re-adding must be a no-op, not a constraint failure.
	if err := edges.AddEdge(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("re-add edge: %v", err)
	}

	for _, userID := range []string{alice.ID, bob.ID} {
		friends, err := edges.ListFriends(ctx, userID)
		if err != nil {
			t.Fatalf("list friends for %s: %v", userID, err)
		}
		if len(friends) != 1 {
			t.Fatalf("expected one friend for %s, got %v", userID, friends)
		}
	}

	if err := edges.AddEdge(ctx, alice.ID, alice.ID); err == nil {
		t.Fatal("expected self edge to be rejected")
	}
}

func TestPostgresPostRepository_FeedAndLikes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	edges := NewPostgresFriendEdgeRepository(testPool)
	posts := NewPostgresPostRepository(testPool)

	viewer := createTestUser(t, userRepo, "viewer", "Viewer")
	friend := createTestUser(t, userRepo, "friend", "Friend")
	stranger := createTestUser(t, userRepo, "stranger", "Stranger")

	if err := edges.AddEdge(ctx, viewer.ID, friend.ID); err != nil {
		t.Fatalf("add edge: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	var feedIDs []string
	for i := 0; i < 3; i++ {
		own := models.Post{
			ID:        fmt.Sprintf("own-%d", i),
			AuthorID:  viewer.ID,
			Content:   fmt.Sprintf("own post %d", i),
			Privacy:   models.PrivacyPublic,
			CreatedAt: base.Add(time.Duration(2*i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(2*i) * time.Minute),
		}
		if err := posts.Create(ctx, own); err != nil {
			t.Fatalf("create own post: %v", err)
		}
		feedIDs = append(feedIDs, own.ID)

		friendly := models.Post{
			ID:        fmt.Sprintf("friend-%d", i),
			AuthorID:  friend.ID,
			Content:   fmt.Sprintf("friend post %d", i),
			Privacy:   models.PrivacyFriends,
			CreatedAt: base.Add(time.Duration(2*i+1) * time.Minute),
			UpdatedAt: base.Add(time.Duration(2*i+1) * time.Minute),
		}
		if err := posts.Create(ctx, friendly); err != nil {
			t.Fatalf("create friend post: %v", err)
		}
		feedIDs = append(feedIDs, friendly.ID)
	}
	outsider := models.Post{
		ID:        "stranger-0",
		AuthorID:  stranger.ID,
		Content:   "not your feed",
		Privacy:   models.PrivacyPublic,
		CreatedAt: base.Add(30 * time.Minute),
		UpdatedAt: base.Add(30 * time.Minute),
	}
	if err := posts.Create(ctx, outsider); err != nil {
		t.Fatalf("create stranger post: %v", err)
	}

	page, err := posts.ListFeed(ctx, viewer.ID, 4, "")
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(page.Posts) != 4 || !page.HasMore {
		t.Fatalf("expected a full first page with more remaining, got %+v", page)
	}
	if page.Posts[0].ID != "friend-2" {
		t.Fatalf("expected newest post first, got %s", page.Posts[0].ID)
	}

	second, err := posts.ListFeed(ctx, viewer.ID, 4, page.NextLastID)
	if err != nil {
		t.Fatalf("list second feed page: %v", err)
	}
	if len(second.Posts) != 2 || second.HasMore {
		t.Fatalf("expected final page of 2, got %+v", second)
	}

	var seen []string
	for _, post := range append(page.Posts, second.Posts...) {
		if post.AuthorID == stranger.ID {
			t.Fatalf("unexpected stranger post %s in feed", post.ID)
		}
		seen = append(seen, post.ID)
	}
	sort.Strings(seen)
	sort.Strings(feedIDs)
	if len(seen) != len(feedIDs) {
		t.Fatalf("expected feed to cover %v, got %v", feedIDs, seen)
	}

	liked, err := posts.ToggleLike(ctx, "own-0", friend.ID)
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if liked.LikeCount != 1 {
		t.Fatalf("expected like count 1, got %d", liked.LikeCount)
	}

	unliked, err := posts.ToggleLike(ctx, "own-0", friend.ID)
	if err != nil {
		t.Fatalf("toggle like off: %v", err)
	}
	if unliked.LikeCount != 0 {
		t.Fatalf("expected like count back to 0, got %d", unliked.LikeCount)
	}

	if _, err := posts.ToggleLike(ctx, "missing", friend.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking missing post, got %v", err)
	}
}

func TestPostgresPostRepository_UpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	posts := NewPostgresPostRepository(testPool)

	author := createTestUser(t, userRepo, "author", "Author")

	post := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Content:   "before",
		Privacy:   models.PrivacyPublic,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := posts.Create(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	post.Content = "after"
	post.MediaURLs = []string{"https://example.com/wave.jpg"}
	post.Feeling = "stoked"
	post.Location = "Pipeline"
	post.TaggedFriends = []string{"bob", "carol"}
	post.Privacy = models.PrivacyFriends
	post.UpdatedAt = time.Now().UTC().Add(time.Minute)

	if err := posts.Update(ctx, post); err != nil {
		t.Fatalf("update post: %v", err)
	}

	// Every mutable field must survive a re-read, not just the echo of the
	// update call.
	stored, err := posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get updated post: %v", err)
	}
	if stored.Content != "after" || stored.Privacy != models.PrivacyFriends {
		t.Fatalf("expected content and privacy to persist, got %+v", stored)
	}
	if stored.Feeling != "stoked" || stored.Location != "Pipeline" {
		t.Fatalf("expected feeling and location to persist, got %+v", stored)
	}
	if len(stored.TaggedFriends) != 2 || stored.TaggedFriends[0] != "bob" {
		t.Fatalf("expected tagged friends to persist, got %v", stored.TaggedFriends)
	}
	if len(stored.MediaURLs) != 1 || stored.MediaURLs[0] != "https://example.com/wave.jpg" {
		t.Fatalf("expected media urls to persist, got %v", stored.MediaURLs)
	}

	missing := post
	missing.ID = uuid.NewString()
	if err := posts.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing post, got %v", err)
	}
}

func TestPostgresCommentRepository_CountsAndOrder(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	posts := NewPostgresPostRepository(testPool)
	comments := NewPostgresCommentRepository(testPool)

	author := createTestUser(t, userRepo, "author", "Author")
	reader := createTestUser(t, userRepo, "reader", "Reader")

	post := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Content:   "discuss",
		Privacy:   models.PrivacyPublic,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := posts.Create(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := models.Comment{
		ID: uuid.NewString(), PostID: post.ID, AuthorID: reader.ID,
		Content: "first", CreatedAt: base, UpdatedAt: base,
	}
	second := models.Comment{
		ID: uuid.NewString(), PostID: post.ID, AuthorID: author.ID,
		Content: "second", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	if err := comments.Create(ctx, first); err != nil {
		t.Fatalf("create first comment: %v", err)
	}
	if err := comments.Create(ctx, second); err != nil {
		t.Fatalf("create second comment: %v", err)
	}

	// Comment writes keep the post's denormalized reply count in step.
	stored, err := posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.ReplyCount != 2 {
		t.Fatalf("expected reply count 2, got %d", stored.ReplyCount)
	}

	listed, err := comments.ListForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(listed) != 2 || listed[0].Content != "first" {
		t.Fatalf("expected comments oldest first, got %+v", listed)
	}

	liked, err := comments.ToggleLike(ctx, first.ID, author.ID)
	if err != nil {
		t.Fatalf("toggle comment like: %v", err)
	}
	if liked.LikeCount != 1 {
		t.Fatalf("expected comment like count 1, got %d", liked.LikeCount)
	}

	if err := comments.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	stored, err = posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post after delete: %v", err)
	}
	if stored.ReplyCount != 1 {
		t.Fatalf("expected reply count 1 after delete, got %d", stored.ReplyCount)
	}

	if _, err := comments.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted comment, got %v", err)
	}
}

func TestPostgresSessionStore_Find(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner", "Owner")

	expires := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond)
	token := uuid.NewString()

	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	_, err = conn.Exec(ctx, `INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`, token, user.ID, expires)
	conn.Release()
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}

	store := NewPostgresSessionStore(testPool)

	loaded, err := store.Find(ctx, token)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.UserID != user.ID || !timesClose(loaded.ExpiresAt, expires, time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	if _, err := store.Find(ctx, "unknown"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown token, got %v", err)
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

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE comment_likes, comments, post_likes, posts, friend_edges, friend_requests, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, id, name string) models.User {
	t.Helper()
	user := models.User{
		ID:          id,
		DisplayName: name,
		Email:       id + "@example.com",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Upsert(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
