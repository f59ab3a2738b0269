package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/surfsocial/backend/internal/db"
	"github.com/surfsocial/backend/internal/models"
)

// PostgresFriendRequestRepository provides PostgreSQL-backed persistence for
// friend requests. The "one open request per unordered pair" rule is enforced
// by a partial unique index, so concurrent sends cannot slip past the
// application-level checks.
type PostgresFriendRequestRepository struct {
	pool db.Pool
}

// NewPostgresFriendRequestRepository constructs a friend request repository backed by PostgreSQL.
func NewPostgresFriendRequestRepository(pool db.Pool) *PostgresFriendRequestRepository {
	return &PostgresFriendRequestRepository{pool: pool}
}

// Create persists a new friend request.
func (r *PostgresFriendRequestRepository) Create(ctx context.Context, request models.FriendRequest) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friend_requests (id, requester_id, receiver_id, status, created_at, responded_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, request.ID, request.Requester, request.Receiver, request.Status, request.CreatedAt, request.RespondedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrConflict
		case isForeignKeyViolation(err):
			return ErrNotFound
		}
		return fmt.Errorf("insert friend request: %w", err)
	}

	return nil
}

// Get loads a single friend request by id.
func (r *PostgresFriendRequestRepository) Get(ctx context.Context, id string) (models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, requester_id, receiver_id, status, created_at, responded_at
        FROM friend_requests
        WHERE id = $1
    `, id)

	request, err := scanFriendRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("select friend request: %w", err)
	}

	return request, nil
}

// Accept flips a pending request to accepted and inserts both directed edge
// rows inside one transaction. The status flip and the edge creation are a
// single unit of work: a crash or a racing resolver can never leave an
// accepted request without its edge, or a half-formed edge.
func (r *PostgresFriendRequestRepository) Accept(ctx context.Context, id string) error {
	return r.resolve(ctx, id, models.RequestStatusAccepted)
}

// Reject flips a pending request to rejected. No edge changes.
func (r *PostgresFriendRequestRepository) Reject(ctx context.Context, id string) error {
	return r.resolve(ctx, id, models.RequestStatusRejected)
}

func (r *PostgresFriendRequestRepository) resolve(ctx context.Context, id, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var requester, receiver, current string
		err := tx.QueryRow(ctx, `
            SELECT requester_id, receiver_id, status
            FROM friend_requests
            WHERE id = $1
            FOR UPDATE
        `, id).Scan(&requester, &receiver, &current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock friend request: %w", err)
		}

		if current != models.RequestStatusPending {
			return ErrConflict
		}

		if _, err := tx.Exec(ctx, `
            UPDATE friend_requests
            SET status = $2, responded_at = $3
            WHERE id = $1
        `, id, status, time.Now().UTC()); err != nil {
			return fmt.Errorf("update friend request status: %w", err)
		}

		if status == models.RequestStatusAccepted {
			if err := insertEdgePair(ctx, tx, requester, receiver); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("resolve friend request: %w", err)
	}

	return nil
}

// Delete removes a request record regardless of its status.
func (r *PostgresFriendRequestRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListPendingReceived returns the open requests addressed to the user, newest first.
func (r *PostgresFriendRequestRepository) ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, requester_id, receiver_id, status, created_at, responded_at
        FROM friend_requests
        WHERE receiver_id = $1 AND status = $2
        ORDER BY created_at DESC
    `, userID, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("query pending friend requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		request, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend requests: %w", err)
	}

	return requests, nil
}

// OpenPartners returns the counterpart user ids of every open request
// involving the user, in either direction.
func (r *PostgresFriendRequestRepository) OpenPartners(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT CASE WHEN requester_id = $1 THEN receiver_id ELSE requester_id END
        FROM friend_requests
        WHERE status = $2 AND (requester_id = $1 OR receiver_id = $1)
    `, userID, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("query open request partners: %w", err)
	}
	defer rows.Close()

	var partners []string
	for rows.Next() {
		var partner string
		if err := rows.Scan(&partner); err != nil {
			return nil, fmt.Errorf("scan request partner: %w", err)
		}
		partners = append(partners, partner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request partners: %w", err)
	}

	return partners, nil
}

func scanFriendRequest(row pgx.Row) (models.FriendRequest, error) {
	var (
		request     models.FriendRequest
		respondedAt sql.NullTime
	)
	if err := row.Scan(&request.ID, &request.Requester, &request.Receiver, &request.Status, &request.CreatedAt, &respondedAt); err != nil {
		return models.FriendRequest{}, err
	}
	if respondedAt.Valid {
		t := respondedAt.Time.UTC()
		request.RespondedAt = &t
	}
	return request, nil
}

// PostgresFriendEdgeRepository provides PostgreSQL-backed access to the
// confirmed friendship edge set. Edges are stored as two directed rows.
type PostgresFriendEdgeRepository struct {
	pool db.Pool
}

// NewPostgresFriendEdgeRepository constructs an edge repository backed by PostgreSQL.
func NewPostgresFriendEdgeRepository(pool db.Pool) *PostgresFriendEdgeRepository {
	return &PostgresFriendEdgeRepository{pool: pool}
}

// AddEdge idempotently inserts both directed rows for the pair in one
// transaction. Both sides succeed or neither does; a retry after a transient
// failure cannot produce duplicates.
func (r *PostgresFriendEdgeRepository) AddEdge(ctx context.Context, a, b string) error {
	if a == b || a == "" || b == "" {
		return fmt.Errorf("add edge: invalid pair (%q, %q)", a, b)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertEdgePair(ctx, tx, a, b)
	})
	if err != nil {
		return fmt.Errorf("add friend edge: %w", err)
	}
	return nil
}

// ListFriends returns the user's confirmed friend ids. Unknown users yield an
// empty result, never an error.
func (r *PostgresFriendEdgeRepository) ListFriends(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT friend_id
        FROM friend_edges
        WHERE user_id = $1
        ORDER BY friend_id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friend edges: %w", err)
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var friendID string
		if err := rows.Scan(&friendID); err != nil {
			return nil, fmt.Errorf("scan friend edge: %w", err)
		}
		friends = append(friends, friendID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend edges: %w", err)
	}

	return friends, nil
}

// AreFriends reports whether both directed rows exist for the pair.
func (r *PostgresFriendEdgeRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM friend_edges
        WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
    `, a, b).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count friend edges: %w", err)
	}

	return count == 2, nil
}

// insertEdgePair writes both directions of an edge inside the caller's
// transaction. ON CONFLICT DO NOTHING keeps the insert idempotent.
func insertEdgePair(ctx context.Context, tx pgx.Tx, a, b string) error {
	if _, err := tx.Exec(ctx, `
        INSERT INTO friend_edges (user_id, friend_id)
        VALUES ($1, $2), ($2, $1)
        ON CONFLICT (user_id, friend_id) DO NOTHING
    `, a, b); err != nil {
		return fmt.Errorf("insert edge pair: %w", err)
	}
	return nil
}

var _ FriendRequestRepository = (*PostgresFriendRequestRepository)(nil)
var _ FriendEdgeRepository = (*PostgresFriendEdgeRepository)(nil)
