package handlers

import (
	"net/http"
	"strings"

	"github.com/surfsocial/backend/internal/auth"
	"github.com/surfsocial/backend/internal/logging"
)

// RequireAuth resolves the bearer credential to a user id and stores it on the
// request context. Requests without a valid credential never reach the
// wrapped handler.
func RequireAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if verifier == nil {
				logging.FromContext(ctx).Error("verifier unavailable")
				respondError(ctx, w, http.StatusInternalServerError, "authentication unavailable")
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(ctx, w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			userID, err := verifier.Verify(ctx, token)
			if err != nil {
				logging.FromContext(ctx).Warn("credential rejected", "error", err)
				respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(logging.WithUserID(ctx, userID)))
		})
	}
}

// callerID returns the authenticated user id placed on the context by RequireAuth.
func callerID(r *http.Request) string {
	return logging.UserIDFromContext(r.Context())
}
