package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/surfsocial/backend/internal/logging"
	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/repositories"
)

const searchLimit = 20

// UserHandler exposes directory profile endpoints.
type UserHandler struct {
	Users   UserStore
	NowFunc func() time.Time
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.Get(ctx, callerID(r))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "profile not found")
			return
		}
		logging.FromContext(ctx).Error("load profile", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileOf(user))
}

// UpdateMe handles PUT /api/v1/users/me. The first write creates the
// directory record; later writes update only the provided fields.
func (h UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := h.now()
	userID := callerID(r)

	user, err := h.Users.Get(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		user = models.User{ID: userID, CreatedAt: now}
	case err != nil:
		logging.FromContext(ctx).Error("load profile for update", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	user.UpdatedAt = now

	if err := h.Users.Upsert(ctx, user); err != nil {
		logging.FromContext(ctx).Error("save profile", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileOf(user))
}

// Get handles GET /api/v1/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		logging.FromContext(ctx).Error("load user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileOf(user))
}

// Search handles GET /api/v1/users/search?q=. An empty query matches nobody.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondJSON(ctx, w, http.StatusOK, userListResponse{Users: []profileResponse{}})
		return
	}

	users, err := h.Users.Search(ctx, query, callerID(r), searchLimit)
	if err != nil {
		logging.FromContext(ctx).Error("search users", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]profileResponse, 0, len(users))
	for _, user := range users {
		out = append(out, profileOf(user))
	}
	respondJSON(ctx, w, http.StatusOK, userListResponse{Users: out})
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatarUrl"`
	Email       *string `json:"email"`
}

type profileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

type userListResponse struct {
	Users []profileResponse `json:"users"`
}

func profileOf(user models.User) profileResponse {
	return profileResponse{
		ID:        user.ID,
		Name:      user.DisplayName,
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
	}
}
