// Package auth resolves bearer credentials to stable user ids. Token issuance
// is an external concern; this package only verifies.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidToken indicates the credential does not map to a session.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the session exists but has lapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Verifier resolves a bearer credential to the stable user id it represents.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Session is an externally issued credential record.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// SessionStore loads issued sessions from durable storage.
type SessionStore interface {
	Find(ctx context.Context, token string) (Session, error)
}

// SessionVerifier verifies bearer tokens against a session store.
type SessionVerifier struct {
	store   SessionStore
	nowFunc func() time.Time
}

// NewSessionVerifier constructs a Verifier over the provided store.
func NewSessionVerifier(store SessionStore) *SessionVerifier {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &SessionVerifier{store: store, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Verify implements Verifier.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	session, err := v.store.Find(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if !session.ExpiresAt.IsZero() && !v.nowFunc().Before(session.ExpiresAt) {
		return "", ErrTokenExpired
	}

	return session.UserID, nil
}

var _ Verifier = (*SessionVerifier)(nil)
