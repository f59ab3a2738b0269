package repositories

import (
	"context"

	"github.com/surfsocial/backend/internal/models"
)

// FriendRequestRepository defines data access for the request lifecycle.
//
// Create must reject a second open request for the same unordered pair, in
// either direction, with ErrConflict. That holds under concurrent sends too.
// Accept and Reject are compare-and-set on the pending status: ErrConflict
// once resolved, ErrNotFound once deleted. Accept additionally inserts both
// edge rows in the same transaction as the status flip.
type FriendRequestRepository interface {
	Create(ctx context.Context, request models.FriendRequest) error
	Get(ctx context.Context, id string) (models.FriendRequest, error)
	Accept(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequest, error)
	OpenPartners(ctx context.Context, userID string) ([]string, error)
}

// FriendEdgeRepository defines access to the confirmed friendship edge set.
// An edge is stored as two directed rows written atomically, so the set stays
// symmetric even when writers race or crash mid-operation.
type FriendEdgeRepository interface {
	AddEdge(ctx context.Context, a, b string) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
}
