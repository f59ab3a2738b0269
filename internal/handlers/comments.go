package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surfsocial/backend/internal/logging"
	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/repositories"
)

// CommentHandler exposes the comment endpoints nested under posts.
type CommentHandler struct {
	Comments CommentStore
	Posts    PostStore
	Friends  FriendChecker
	NowFunc  func() time.Time
	IDFunc   func() string
}

// ListForPost handles GET /api/v1/posts/{id}/comments, oldest first.
func (h CommentHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.visiblePost(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	comments, err := h.Comments.ListForPost(ctx, post.ID)
	if err != nil {
		logging.FromContext(ctx).Error("list comments", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentOf(comment))
	}
	respondJSON(ctx, w, http.StatusOK, commentListResponse{Comments: out})
}

// Create handles POST /api/v1/posts/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.visiblePost(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment requires content")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        h.newID(),
		PostID:    post.ID,
		AuthorID:  callerID(r),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "post not found")
			return
		}
		logging.FromContext(ctx).Error("create comment", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentOf(comment))
}

// Delete handles DELETE /api/v1/comments/{id}. Only the author may delete,
// and a foreign comment is reported as missing.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.Comments.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.respondCommentError(ctx, w, err)
		return
	}
	if comment.AuthorID != callerID(r) {
		respondError(ctx, w, http.StatusNotFound, "comment not found")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		h.respondCommentError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /api/v1/comments/{id}/like as a toggle.
func (h CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	updated, err := h.Comments.ToggleLike(ctx, r.PathValue("id"), callerID(r))
	if err != nil {
		h.respondCommentError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{LikeCount: updated.LikeCount})
}

func (h CommentHandler) visiblePost(w http.ResponseWriter, r *http.Request, id string) (models.Post, bool) {
	helper := PostHandler{Posts: h.Posts, Friends: h.Friends}
	return helper.visiblePost(w, r, id)
}

func (h CommentHandler) respondCommentError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "comment not found")
		return
	}
	logging.FromContext(ctx).Error("comment store", "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "internal error")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h CommentHandler) newID() string {
	if h.IDFunc != nil {
		return h.IDFunc()
	}
	return uuid.NewString()
}

type createCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type commentListResponse struct {
	Comments []commentResponse `json:"comments"`
}

func commentOf(comment models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		LikeCount: comment.LikeCount,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}
