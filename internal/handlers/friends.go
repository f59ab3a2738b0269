package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/surfsocial/backend/internal/friends"
	"github.com/surfsocial/backend/internal/logging"
	"github.com/surfsocial/backend/internal/metrics"
)

// FriendHandler exposes the friend-relationship endpoints.
type FriendHandler struct {
	Friends FriendService
	Limiter RateLimiter
}

// List handles GET /api/v1/friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, err := h.Friends.ListFriends(ctx, callerID(r))
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: profiles})
}

// PendingIncoming handles GET /api/v1/friends/requests.
func (h FriendHandler) PendingIncoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.Friends.ListPendingIncoming(ctx, callerID(r))
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, pendingRequestsResponse{Requests: requests})
}

// Send handles POST /api/v1/friends/requests.
func (h FriendHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "friend-send") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many friend requests, slow down")
		return
	}

	var req sendFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid friend request payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Friends.Send(ctx, callerID(r), req.ToID)
	if err != nil {
		metrics.FriendRequestOutcomes.WithLabelValues(sendOutcome(err)).Inc()
		respondFriendError(ctx, w, err)
		return
	}
	metrics.FriendRequestOutcomes.WithLabelValues("created").Inc()

	respondJSON(ctx, w, http.StatusCreated, friendRequestResponse{
		ID:        request.ID,
		ToID:      request.Receiver,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	})
}

// Respond handles PATCH /api/v1/friends/requests/{id}.
func (h FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req respondFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid respond payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Action != friends.ActionAccept && req.Action != friends.ActionReject {
		respondError(ctx, w, http.StatusBadRequest, "action must be accept or reject")
		return
	}

	request, err := h.Friends.Respond(ctx, r.PathValue("id"), callerID(r), req.Action)
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendRequestResponse{
		ID:     request.ID,
		Status: request.Status,
	})
}

// Cancel handles DELETE /api/v1/friends/requests/{id}.
func (h FriendHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Friends.Cancel(ctx, r.PathValue("id"), callerID(r)); err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Suggestions handles GET /api/v1/friends/suggestions.
func (h FriendHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	suggestions, err := h.Friends.Suggest(ctx, callerID(r), limit)
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

func sendOutcome(err error) string {
	switch {
	case errors.Is(err, friends.ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, friends.ErrAlreadyFriends):
		return "already_friends"
	case errors.Is(err, friends.ErrRequestExists):
		return "request_exists"
	default:
		return "error"
	}
}

type sendFriendRequest struct {
	ToID string `json:"toId"`
}

type respondFriendRequest struct {
	Action string `json:"action"`
}

type friendRequestResponse struct {
	ID        string    `json:"id"`
	ToID      string    `json:"toId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type friendListResponse struct {
	Friends []friends.Profile `json:"friends"`
}

type pendingRequestsResponse struct {
	Requests []friends.PendingRequest `json:"requests"`
}

type suggestionsResponse struct {
	Suggestions []friends.Profile `json:"suggestions"`
}
