package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/surfsocial/backend/internal/auth"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(context.Context, string) (string, error) {
	return s.userID, s.err
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name     string
		verifier auth.Verifier
		header   string
		status   int
		wantUser string
	}{
		{
			name:     "valid token",
			verifier: stubVerifier{userID: "alice"},
			header:   "Bearer good-token",
			status:   http.StatusOK,
			wantUser: "alice",
		},
		{
			name:     "missing header",
			verifier: stubVerifier{userID: "alice"},
			header:   "",
			status:   http.StatusUnauthorized,
		},
		{
			name:     "wrong scheme",
			verifier: stubVerifier{userID: "alice"},
			header:   "Basic abc",
			status:   http.StatusUnauthorized,
		},
		{
			name:     "rejected token",
			verifier: stubVerifier{err: auth.ErrInvalidToken},
			header:   "Bearer bad-token",
			status:   http.StatusUnauthorized,
		},
		{
			name:   "nil verifier",
			header: "Bearer good-token",
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = callerID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			RequireAuth(tc.verifier)(next).ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			if tc.wantUser != "" && gotUser != tc.wantUser {
				t.Fatalf("expected user %q on context got %q", tc.wantUser, gotUser)
			}
		})
	}
}
