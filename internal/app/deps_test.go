package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surfsocial/backend/internal/config"
	"github.com/surfsocial/backend/internal/notify"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		NotifyTimeout:   time.Second,
		SuggestionLimit: 20,
	}

	deps := buildDependencies(fakePool{}, cfg, notify.Nop{})

	if deps.Verifier == nil {
		t.Fatal("expected verifier to be configured")
	}
	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Friends == nil {
		t.Fatal("expected friend service to be configured")
	}
	if deps.FriendEdges == nil {
		t.Fatal("expected friend edge repository to be configured")
	}
	if deps.Posts == nil {
		t.Fatal("expected post repository to be configured")
	}
	if deps.Comments == nil {
		t.Fatal("expected comment repository to be configured")
	}
	if deps.SendLimiter == nil {
		t.Fatal("expected send rate limiter to be configured")
	}
}
