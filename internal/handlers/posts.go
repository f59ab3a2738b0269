package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surfsocial/backend/internal/logging"
	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/repositories"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// PostHandler exposes the timeline post endpoints.
type PostHandler struct {
	Posts   PostStore
	Friends FriendChecker
	NowFunc func() time.Time
	IDFunc  func() string
}

// Create handles POST /api/v1/posts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid post payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.MediaURLs) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "post requires content or media")
		return
	}

	privacy := req.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if privacy != models.PrivacyPublic && privacy != models.PrivacyFriends {
		respondError(ctx, w, http.StatusBadRequest, "unknown privacy setting")
		return
	}

	now := h.now()
	post := models.Post{
		ID:            h.newID(),
		AuthorID:      callerID(r),
		Content:       content,
		MediaURLs:     req.MediaURLs,
		Feeling:       req.Feeling,
		Location:      req.Location,
		TaggedFriends: req.TaggedFriends,
		Privacy:       privacy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Posts.Create(ctx, post); err != nil {
		logging.FromContext(ctx).Error("create post", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create post")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, postOf(post))
}

// Get handles GET /api/v1/posts/{id}.
func (h PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.visiblePost(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	respondJSON(ctx, w, http.StatusOK, postOf(post))
}

// Update handles PATCH /api/v1/posts/{id}. Only the author may edit, and a
// foreign post is reported as missing rather than forbidden.
func (h PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.Posts.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.respondPostError(ctx, w, err)
		return
	}
	if post.AuthorID != callerID(r) {
		respondError(ctx, w, http.StatusNotFound, "post not found")
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid post payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content != nil {
		post.Content = strings.TrimSpace(*req.Content)
	}
	if req.MediaURLs != nil {
		post.MediaURLs = *req.MediaURLs
	}
	if req.Feeling != nil {
		post.Feeling = *req.Feeling
	}
	if req.Location != nil {
		post.Location = *req.Location
	}
	if req.TaggedFriends != nil {
		post.TaggedFriends = *req.TaggedFriends
	}
	if req.Privacy != nil {
		if *req.Privacy != models.PrivacyPublic && *req.Privacy != models.PrivacyFriends {
			respondError(ctx, w, http.StatusBadRequest, "unknown privacy setting")
			return
		}
		post.Privacy = *req.Privacy
	}
	if post.Content == "" && len(post.MediaURLs) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "post requires content or media")
		return
	}
	post.UpdatedAt = h.now()

	if err := h.Posts.Update(ctx, post); err != nil {
		h.respondPostError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, postOf(post))
}

// Delete handles DELETE /api/v1/posts/{id}.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.Posts.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.respondPostError(ctx, w, err)
		return
	}
	if post.AuthorID != callerID(r) {
		respondError(ctx, w, http.StatusNotFound, "post not found")
		return
	}

	if err := h.Posts.Delete(ctx, post.ID); err != nil {
		h.respondPostError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /api/v1/posts/{id}/like. A second like from the same
// user removes the first.
func (h PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.visiblePost(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	updated, err := h.Posts.ToggleLike(ctx, post.ID, callerID(r))
	if err != nil {
		h.respondPostError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{LikeCount: updated.LikeCount})
}

// Feed handles GET /api/v1/feed. Results are newest-first and keyset
// paginated via lastId.
func (h PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	page, err := h.Posts.ListFeed(ctx, callerID(r), limit, r.URL.Query().Get("lastId"))
	if err != nil {
		logging.FromContext(ctx).Error("list feed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]postResponse, 0, len(page.Posts))
	for _, post := range page.Posts {
		out = append(out, postOf(post))
	}
	respondJSON(ctx, w, http.StatusOK, feedResponse{
		Posts:   out,
		HasMore: page.HasMore,
		LastID:  page.NextLastID,
	})
}

// visiblePost loads a post and applies the viewer's visibility rules. A post
// the caller may not see is reported as missing.
func (h PostHandler) visiblePost(w http.ResponseWriter, r *http.Request, id string) (models.Post, bool) {
	ctx := r.Context()

	post, err := h.Posts.Get(ctx, id)
	if err != nil {
		h.respondPostError(ctx, w, err)
		return models.Post{}, false
	}

	viewer := callerID(r)
	if post.AuthorID == viewer || post.Privacy == models.PrivacyPublic {
		return post, true
	}

	allowed, err := h.Friends.AreFriends(ctx, post.AuthorID, viewer)
	if err != nil {
		logging.FromContext(ctx).Error("check friendship", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return models.Post{}, false
	}
	if !allowed {
		respondError(ctx, w, http.StatusNotFound, "post not found")
		return models.Post{}, false
	}
	return post, true
}

func (h PostHandler) respondPostError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "post not found")
		return
	}
	logging.FromContext(ctx).Error("post store", "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "internal error")
}

func (h PostHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h PostHandler) newID() string {
	if h.IDFunc != nil {
		return h.IDFunc()
	}
	return uuid.NewString()
}

type createPostRequest struct {
	Content       string   `json:"content"`
	MediaURLs     []string `json:"mediaUrls"`
	Feeling       string   `json:"feeling"`
	Location      string   `json:"location"`
	TaggedFriends []string `json:"taggedFriends"`
	Privacy       string   `json:"privacy"`
}

type updatePostRequest struct {
	Content       *string   `json:"content"`
	MediaURLs     *[]string `json:"mediaUrls"`
	Feeling       *string   `json:"feeling"`
	Location      *string   `json:"location"`
	TaggedFriends *[]string `json:"taggedFriends"`
	Privacy       *string   `json:"privacy"`
}

type postResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Content       string    `json:"content"`
	MediaURLs     []string  `json:"mediaUrls,omitempty"`
	Feeling       string    `json:"feeling,omitempty"`
	Location      string    `json:"location,omitempty"`
	TaggedFriends []string  `json:"taggedFriends,omitempty"`
	Privacy       string    `json:"privacy"`
	LikeCount     int       `json:"likeCount"`
	ReplyCount    int       `json:"replyCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type likeResponse struct {
	LikeCount int `json:"likeCount"`
}

type feedResponse struct {
	Posts   []postResponse `json:"posts"`
	HasMore bool           `json:"hasMore"`
	LastID  string         `json:"lastId,omitempty"`
}

func postOf(post models.Post) postResponse {
	return postResponse{
		ID:            post.ID,
		AuthorID:      post.AuthorID,
		Content:       post.Content,
		MediaURLs:     post.MediaURLs,
		Feeling:       post.Feeling,
		Location:      post.Location,
		TaggedFriends: post.TaggedFriends,
		Privacy:       post.Privacy,
		LikeCount:     post.LikeCount,
		ReplyCount:    post.ReplyCount,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}
