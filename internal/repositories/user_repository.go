package repositories

import (
	"context"

	"github.com/surfsocial/backend/internal/models"
)

// UserRepository defines the data access contract for directory profiles.
// Upsert covers profile creation on first authenticated access as well as
// later edits. List returns the whole directory in stable creation order.
type UserRepository interface {
	Upsert(ctx context.Context, user models.User) error
	Get(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error)
}
