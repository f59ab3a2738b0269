package handlers

import (
	"context"

	"github.com/surfsocial/backend/internal/friends"
	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/repositories"
)

// FriendService captures the friend-relationship operations required by the
// friend handlers.
type FriendService interface {
	Send(ctx context.Context, fromID, toID string) (models.FriendRequest, error)
	Respond(ctx context.Context, requestID, actorID, action string) (models.FriendRequest, error)
	Cancel(ctx context.Context, requestID, actorID string) error
	ListFriends(ctx context.Context, userID string) ([]friends.Profile, error)
	ListPendingIncoming(ctx context.Context, userID string) ([]friends.PendingRequest, error)
	Suggest(ctx context.Context, userID string, limit int) ([]friends.Profile, error)
}

// FriendChecker answers whether two users share a confirmed friendship.
// Post handlers use it to gate friends-only content.
type FriendChecker interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

// UserStore captures the profile operations required by the user handlers.
type UserStore interface {
	Upsert(ctx context.Context, user models.User) error
	Get(ctx context.Context, id string) (models.User, error)
	Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error)
}

// PostStore captures persistence for timeline posts.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	Get(ctx context.Context, id string) (models.Post, error)
	Update(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (models.Post, error)
	ListFeed(ctx context.Context, userID string, limit int, lastID string) (repositories.FeedPage, error)
}

// CommentStore captures persistence for post comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	Get(ctx context.Context, id string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, commentID, userID string) (models.Comment, error)
	ListForPost(ctx context.Context, postID string) ([]models.Comment, error)
}
