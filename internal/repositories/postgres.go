package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/surfsocial/backend/internal/db"
	"github.com/surfsocial/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for directory profiles.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Upsert creates the profile record on first write and updates it afterwards.
func (r *PostgresUserRepository) Upsert(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, display_name, avatar_url, bio, email, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id)
        DO UPDATE SET display_name = EXCLUDED.display_name,
                      avatar_url   = EXCLUDED.avatar_url,
                      bio          = EXCLUDED.bio,
                      updated_at   = EXCLUDED.updated_at
    `, user.ID, user.DisplayName, user.AvatarURL, user.Bio, user.Email, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// Get fetches a profile by its stable id.
func (r *PostgresUserRepository) Get(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, display_name, avatar_url, bio, email, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// List returns the full directory in stable creation order. The suggestion
// engine relies on this order being deterministic between calls.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, display_name, avatar_url, bio, email, created_at, updated_at
        FROM users
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Search matches profiles whose display name contains the query,
// case-insensitively, excluding the caller.
func (r *PostgresUserRepository) Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, display_name, avatar_url, bio, email, created_at, updated_at
        FROM users
        WHERE id <> $2 AND display_name ILIKE '%' || $1 || '%'
        ORDER BY created_at, id
        LIMIT $3
    `, query, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.DisplayName, &user.AvatarURL, &user.Bio, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key error.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ UserRepository = (*PostgresUserRepository)(nil)
