// Package friends implements the friend-relationship core: the request
// lifecycle state machine, the confirmed edge set, and the suggestion engine
// derived from both.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/surfsocial/backend/internal/logging"
	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/notify"
	"github.com/surfsocial/backend/internal/repositories"
)

// Actions a receiver may take on a pending request.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Notification events emitted by the service.
const (
	EventRequestReceived = "friendRequestReceived"
	EventRequestAccepted = "friendRequestAccepted"
)

// Suggestion limits: callers asking for nothing get the default, callers
// asking for more than the cap are clamped.
const (
	DefaultSuggestionLimit = 20
	MaxSuggestionLimit     = 50
)

// RequestStore persists friend requests and performs the resolution
// transitions. Accept must flip the status and insert both edge rows as a
// single atomic unit; Accept and Reject are compare-and-set on the pending
// status and must fail with repositories.ErrConflict once the request has
// been resolved.
type RequestStore interface {
	Create(ctx context.Context, request models.FriendRequest) error
	Get(ctx context.Context, id string) (models.FriendRequest, error)
	Accept(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequest, error)
	OpenPartners(ctx context.Context, userID string) ([]string, error)
}

// EdgeStore reads the confirmed, symmetric friendship edge set. All writes to
// it happen inside RequestStore.Accept.
type EdgeStore interface {
	ListFriends(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// UserDirectory is the read-only view of user identity records.
type UserDirectory interface {
	Get(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// Profile is the directory projection returned to callers.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// PendingRequest is an open incoming request together with the sender profile.
type PendingRequest struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestSummary is the notification payload describing a request.
type RequestSummary struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	ToID      string    `json:"toId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service enforces the friend-request state machine and derives suggestions.
// It is the only writer of requests and edges; handlers and other packages go
// through it.
type Service struct {
	requests RequestStore
	edges    EdgeStore
	users    UserDirectory
	notifier notify.Notifier

	notifyTimeout time.Duration
	defaultLimit  int
	nowFunc       func() time.Time
	idFunc        func() string
}

// Option customises a Service.
type Option func(*Service)

// WithNowFunc overrides the time source. Used by tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// WithIDFunc overrides request id generation. Used by tests.
func WithIDFunc(id func() string) Option {
	return func(s *Service) { s.idFunc = id }
}

// WithSuggestionLimit overrides the limit applied when callers do not ask
// for a specific number of suggestions.
func WithSuggestionLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithNotifyTimeout bounds how long a background notification dispatch may take.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// NewService wires the friend-relationship service. A nil notifier disables
// dispatch.
func NewService(requests RequestStore, edges EdgeStore, users UserDirectory, notifier notify.Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Service{
		requests:      requests,
		edges:         edges,
		users:         users,
		notifier:      notifier,
		notifyTimeout: 2 * time.Second,
		defaultLimit:  DefaultSuggestionLimit,
		nowFunc:       func() time.Time { return time.Now().UTC() },
		idFunc:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send creates a pending request from fromID to toID and notifies the
// receiver. The notification is best-effort and never rolls back creation.
func (s *Service) Send(ctx context.Context, fromID, toID string) (models.FriendRequest, error) {
	if fromID == "" || toID == "" || fromID == toID {
		return models.FriendRequest{}, ErrInvalidTarget
	}

	if _, err := s.users.Get(ctx, toID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrInvalidTarget
		}
		return models.FriendRequest{}, fmt.Errorf("look up receiver: %w", err)
	}

	already, err := s.edges.AreFriends(ctx, fromID, toID)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check existing edge: %w", err)
	}
	if already {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	request := models.FriendRequest{
		ID:        s.idFunc(),
		Requester: fromID,
		Receiver:  toID,
		Status:    models.RequestStatusPending,
		CreatedAt: s.nowFunc(),
	}

	if err := s.requests.Create(ctx, request); err != nil {
		// The partial unique index on the unordered pair makes the losing
		// side of two near-simultaneous sends land here.
		if errors.Is(err, repositories.ErrConflict) {
			return models.FriendRequest{}, ErrRequestExists
		}
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	s.dispatch(ctx, toID, EventRequestReceived, summarize(request))

	return request, nil
}

// Respond lets the receiver accept or reject a pending request. Accepting
// flips the status and materializes the symmetric edge as one unit of work;
// a request resolved (or deleted) concurrently surfaces ErrAlreadyResolved or
// ErrNotFound instead of applying twice.
func (s *Service) Respond(ctx context.Context, requestID, actorID, action string) (models.FriendRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return models.FriendRequest{}, err
	}

	if request.Receiver != actorID {
		return models.FriendRequest{}, ErrForbidden
	}
	if !request.Open() {
		return models.FriendRequest{}, ErrAlreadyResolved
	}

	switch action {
	case ActionAccept:
		err = s.requests.Accept(ctx, requestID)
	case ActionReject:
		err = s.requests.Reject(ctx, requestID)
	default:
		return models.FriendRequest{}, fmt.Errorf("unsupported action %q", action)
	}

	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.FriendRequest{}, ErrAlreadyResolved
		case errors.Is(err, repositories.ErrNotFound):
			return models.FriendRequest{}, ErrNotFound
		default:
			return models.FriendRequest{}, fmt.Errorf("resolve friend request: %w", err)
		}
	}

	now := s.nowFunc()
	request.RespondedAt = &now
	if action == ActionAccept {
		request.Status = models.RequestStatusAccepted
		s.dispatch(ctx, request.Requester, EventRequestAccepted, summarize(request))
	} else {
		request.Status = models.RequestStatusRejected
	}

	return request, nil
}

// Cancel removes a request outright. While pending this is a withdrawal;
// after resolution it is history cleanup. Either party may do it.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if !request.Involves(actorID) {
		return ErrForbidden
	}

	if err := s.requests.Delete(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

// ListFriends resolves the user's confirmed friends to directory profiles.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]Profile, error) {
	ids, err := s.edges.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend edges: %w", err)
	}
	if len(ids) == 0 {
		return []Profile{}, nil
	}

	directory, err := s.directoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if user, ok := directory[id]; ok {
			profiles = append(profiles, profileOf(user))
		}
	}
	return profiles, nil
}

// ListPendingIncoming returns the open requests addressed to the user, with
// sender profiles attached.
func (s *Service) ListPendingIncoming(ctx context.Context, userID string) ([]PendingRequest, error) {
	requests, err := s.requests.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	if len(requests) == 0 {
		return []PendingRequest{}, nil
	}

	directory, err := s.directoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PendingRequest, 0, len(requests))
	for _, request := range requests {
		pending := PendingRequest{
			ID:        request.ID,
			FromID:    request.Requester,
			CreatedAt: request.CreatedAt,
		}
		if sender, ok := directory[request.Requester]; ok {
			pending.Name = sender.DisplayName
			pending.AvatarURL = sender.AvatarURL
		}
		out = append(out, pending)
	}
	return out, nil
}

// Suggest computes up to limit candidate profiles for the user: every
// directory entry except the user, confirmed friends, and anyone with an open
// request in either direction. The result follows directory order; there is
// no scoring. Recomputed from current state on every call.
func (s *Service) Suggest(ctx context.Context, userID string, limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}

	exclude := map[string]struct{}{userID: {}}

	friendIDs, err := s.edges.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend edges: %w", err)
	}
	for _, id := range friendIDs {
		exclude[id] = struct{}{}
	}

	partners, err := s.requests.OpenPartners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list open request partners: %w", err)
	}
	for _, id := range partners {
		exclude[id] = struct{}{}
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}

	suggestions := make([]Profile, 0, limit)
	for _, user := range users {
		if _, skip := exclude[user.ID]; skip {
			continue
		}
		suggestions = append(suggestions, profileOf(user))
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}

func (s *Service) getRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("load friend request: %w", err)
	}
	return request, nil
}

func (s *Service) directoryIndex(ctx context.Context) (map[string]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	index := make(map[string]models.User, len(users))
	for _, user := range users {
		index[user.ID] = user
	}
	return index, nil
}

// dispatch fires a notification without blocking the calling operation.
// Failures are logged and swallowed; notification is outside the consistency
// boundary.
func (s *Service) dispatch(ctx context.Context, userID, event string, payload any) {
	logger := logging.FromContext(ctx)
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	go func() {
		defer cancel()
		if err := s.notifier.Notify(notifyCtx, userID, event, payload); err != nil {
			logger.Warn("notification dispatch failed", "event", event, "target", userID, "error", err)
		}
	}()
}

func summarize(request models.FriendRequest) RequestSummary {
	return RequestSummary{
		ID:        request.ID,
		FromID:    request.Requester,
		ToID:      request.Receiver,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}
}

func profileOf(user models.User) Profile {
	return Profile{ID: user.ID, Name: user.DisplayName, AvatarURL: user.AvatarURL}
}
