package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/surfsocial/backend/internal/db"
	"github.com/surfsocial/backend/internal/models"
)

// PostgresPostRepository provides PostgreSQL-backed persistence for posts.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

const postColumns = `id, author_id, content, media_urls, feeling, location, tagged_friends,
        privacy, like_count, reply_count, created_at, updated_at`

// Create stores a new post record.
func (r *PostgresPostRepository) Create(ctx context.Context, post models.Post) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO posts (id, author_id, content, media_urls, feeling, location, tagged_friends, privacy, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, post.ID, post.AuthorID, post.Content, post.MediaURLs, post.Feeling, post.Location, post.TaggedFriends, post.Privacy, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrConflict
		case isForeignKeyViolation(err):
			return ErrNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// Get fetches a post by id.
func (r *PostgresPostRepository) Get(ctx context.Context, id string) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("select post: %w", err)
	}

	return post, nil
}

// Update modifies the mutable fields of an existing post.
func (r *PostgresPostRepository) Update(ctx context.Context, post models.Post) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET content = $2, media_urls = $3, feeling = $4, location = $5,
            tagged_friends = $6, privacy = $7, updated_at = $8
        WHERE id = $1
    `, post.ID, post.Content, post.MediaURLs, post.Feeling, post.Location,
		post.TaggedFriends, post.Privacy, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a post and, through cascading constraints, its comments and likes.
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ToggleLike flips the user's like on the post and keeps the denormalized
// count in step, all in one transaction. The updated post is returned.
func (r *PostgresPostRepository) ToggleLike(ctx context.Context, postID, userID string) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var post models.Post
	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2
        `, postID, userID)
		if err != nil {
			return fmt.Errorf("remove post like: %w", err)
		}

		delta := -1
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `
                INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
            `, postID, userID); err != nil {
				if isForeignKeyViolation(err) {
					return ErrNotFound
				}
				return fmt.Errorf("insert post like: %w", err)
			}
			delta = 1
		}

		row := tx.QueryRow(ctx, `
            UPDATE posts
            SET like_count = like_count + $2, updated_at = $3
            WHERE id = $1
            RETURNING `+postColumns+`
        `, postID, delta, time.Now().UTC())

		post, err = scanPost(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update post like count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("toggle post like: %w", err)
	}

	return post, nil
}

// ListFeed returns one page of the reverse-chronological feed visible to the
// user: their own posts plus those of confirmed friends. Pagination is keyset
// based on the last post of the previous page.
func (r *PostgresPostRepository) ListFeed(ctx context.Context, userID string, limit int, lastID string) (FeedPage, error) {
	if limit <= 0 {
		limit = 20
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return FeedPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	cursorTime := time.Time{}
	cursorID := ""
	if lastID != "" {
		// An unknown cursor is ignored, matching a feed whose anchor post
		// was deleted between pages.
		err := conn.QueryRow(ctx, `SELECT id, created_at FROM posts WHERE id = $1`, lastID).Scan(&cursorID, &cursorTime)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return FeedPage{}, fmt.Errorf("resolve feed cursor: %w", err)
		}
	}

	rows, err := conn.Query(ctx, `
        SELECT `+postColumns+`
        FROM posts
        WHERE (author_id = $1 OR author_id IN (
                SELECT friend_id FROM friend_edges WHERE user_id = $1
            ))
          AND ($3 = '' OR (created_at, id) < ($4::TIMESTAMPTZ, $3))
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, userID, limit+1, cursorID, cursorTime)
	if err != nil {
		return FeedPage{}, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return FeedPage{}, fmt.Errorf("scan feed post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return FeedPage{}, fmt.Errorf("iterate feed: %w", err)
	}

	page := FeedPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		page.HasMore = true
	}
	if len(page.Posts) > 0 {
		page.NextLastID = page.Posts[len(page.Posts)-1].ID
	}

	return page, nil
}

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.AuthorID, &post.Content, &post.MediaURLs, &post.Feeling,
		&post.Location, &post.TaggedFriends, &post.Privacy, &post.LikeCount, &post.ReplyCount,
		&post.CreatedAt, &post.UpdatedAt)
	return post, err
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentColumns = `id, post_id, author_id, content, like_count, created_at, updated_at`

// Create stores a comment and bumps the parent post's reply count together.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO comments (id, post_id, author_id, content, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt); err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE posts SET reply_count = reply_count + 1, updated_at = $2 WHERE id = $1
        `, comment.PostID, time.Now().UTC()); err != nil {
			return fmt.Errorf("bump post reply count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// Get fetches a comment by id.
func (r *PostgresCommentRepository) Get(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)

	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment and decrements the parent post's reply count.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var postID string
		err := tx.QueryRow(ctx, `DELETE FROM comments WHERE id = $1 RETURNING post_id`, id).Scan(&postID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE posts SET reply_count = GREATEST(reply_count - 1, 0), updated_at = $2 WHERE id = $1
        `, postID, time.Now().UTC()); err != nil {
			return fmt.Errorf("drop post reply count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

// ToggleLike flips the user's like on the comment, keeping the count in step.
func (r *PostgresCommentRepository) ToggleLike(ctx context.Context, commentID, userID string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var comment models.Comment
	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2
        `, commentID, userID)
		if err != nil {
			return fmt.Errorf("remove comment like: %w", err)
		}

		delta := -1
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `
                INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)
            `, commentID, userID); err != nil {
				if isForeignKeyViolation(err) {
					return ErrNotFound
				}
				return fmt.Errorf("insert comment like: %w", err)
			}
			delta = 1
		}

		row := tx.QueryRow(ctx, `
            UPDATE comments
            SET like_count = like_count + $2, updated_at = $3
            WHERE id = $1
            RETURNING `+commentColumns+`
        `, commentID, delta, time.Now().UTC())

		comment, err = scanComment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update comment like count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("toggle comment like: %w", err)
	}

	return comment, nil
}

// ListForPost returns a post's comments in ascending creation order.
func (r *PostgresCommentRepository) ListForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE post_id = $1
        ORDER BY created_at, id
    `, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Content,
		&comment.LikeCount, &comment.CreatedAt, &comment.UpdatedAt)
	return comment, err
}

var _ PostRepository = (*PostgresPostRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
