package handlers

import (
	"net/http"

	"github.com/surfsocial/backend/internal/auth"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// under /api/v1 requires a valid bearer credential.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users}
	friends := FriendHandler{Friends: deps.Friends, Limiter: deps.SendLimiter}
	posts := PostHandler{Posts: deps.Posts, Friends: deps.FriendEdges}
	comments := CommentHandler{Comments: deps.Comments, Posts: deps.Posts, Friends: deps.FriendEdges}

	mux.HandleFunc("/healthz", health.Handle)

	authed := RequireAuth(deps.Verifier)
	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(fn))
	}

	protect("GET /api/v1/users/me", users.Me)
	protect("PUT /api/v1/users/me", users.UpdateMe)
	protect("GET /api/v1/users/search", users.Search)
	protect("GET /api/v1/users/{id}", users.Get)

	protect("GET /api/v1/friends", friends.List)
	protect("GET /api/v1/friends/requests", friends.PendingIncoming)
	protect("POST /api/v1/friends/requests", friends.Send)
	protect("PATCH /api/v1/friends/requests/{id}", friends.Respond)
	protect("DELETE /api/v1/friends/requests/{id}", friends.Cancel)
	protect("GET /api/v1/friends/suggestions", friends.Suggestions)

	protect("POST /api/v1/posts", posts.Create)
	protect("GET /api/v1/posts/{id}", posts.Get)
	protect("PATCH /api/v1/posts/{id}", posts.Update)
	protect("DELETE /api/v1/posts/{id}", posts.Delete)
	protect("POST /api/v1/posts/{id}/like", posts.Like)
	protect("GET /api/v1/feed", posts.Feed)

	protect("GET /api/v1/posts/{id}/comments", comments.ListForPost)
	protect("POST /api/v1/posts/{id}/comments", comments.Create)
	protect("DELETE /api/v1/comments/{id}", comments.Delete)
	protect("POST /api/v1/comments/{id}/like", comments.Like)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Verifier    auth.Verifier
	Users       UserStore
	Friends     FriendService
	FriendEdges FriendChecker
	Posts       PostStore
	Comments    CommentStore
	SendLimiter RateLimiter
}
