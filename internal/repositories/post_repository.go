package repositories

import (
	"context"

	"github.com/surfsocial/backend/internal/models"
)

// FeedPage is one page of the reverse-chronological timeline.
type FeedPage struct {
	Posts      []models.Post
	HasMore    bool
	NextLastID string
}

// PostRepository exposes data access for timeline posts.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	Get(ctx context.Context, id string) (models.Post, error)
	Update(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (models.Post, error)
	ListFeed(ctx context.Context, userID string, limit int, lastID string) (FeedPage, error)
}

// CommentRepository exposes data access for post comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	Get(ctx context.Context, id string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, commentID, userID string) (models.Comment, error)
	ListForPost(ctx context.Context, postID string) ([]models.Comment, error)
}
