package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surfsocial/backend/internal/friends"
	"github.com/surfsocial/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// respondFriendError maps the friend-service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an infrastructure failure.
func respondFriendError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friends.ErrInvalidTarget):
		respondError(ctx, w, http.StatusBadRequest, "invalid target user")
	case errors.Is(err, friends.ErrAlreadyFriends):
		respondError(ctx, w, http.StatusConflict, "already friends")
	case errors.Is(err, friends.ErrRequestExists):
		respondError(ctx, w, http.StatusConflict, "friend request already exists")
	case errors.Is(err, friends.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "friend request not found")
	case errors.Is(err, friends.ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "not a party to this request")
	case errors.Is(err, friends.ErrAlreadyResolved):
		respondError(ctx, w, http.StatusConflict, "friend request already handled")
	default:
		logging.FromContext(ctx).Error("friend operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
