package app

import (
	"time"

	"github.com/surfsocial/backend/internal/auth"
	"github.com/surfsocial/backend/internal/config"
	"github.com/surfsocial/backend/internal/db"
	"github.com/surfsocial/backend/internal/friends"
	"github.com/surfsocial/backend/internal/handlers"
	"github.com/surfsocial/backend/internal/middleware"
	"github.com/surfsocial/backend/internal/notify"
	"github.com/surfsocial/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, notifier notify.Notifier) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	requests := repositories.NewPostgresFriendRequestRepository(pool)
	edges := repositories.NewPostgresFriendEdgeRepository(pool)

	friendService := friends.NewService(requests, edges, users, notifier,
		friends.WithNotifyTimeout(cfg.NotifyTimeout),
		friends.WithSuggestionLimit(cfg.SuggestionLimit),
	)

	return handlers.Dependencies{
		Verifier:    auth.NewSessionVerifier(repositories.NewPostgresSessionStore(pool)),
		Users:       users,
		Friends:     friendService,
		FriendEdges: edges,
		Posts:       repositories.NewPostgresPostRepository(pool),
		Comments:    repositories.NewPostgresCommentRepository(pool),
		SendLimiter: middleware.NewKeyRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}
}
