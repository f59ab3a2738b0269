package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/surfsocial/backend/internal/models"
	"github.com/surfsocial/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore(users ...models.User) *inMemoryUserStore {
	store := &inMemoryUserStore{users: make(map[string]models.User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (s *inMemoryUserStore) Upsert(_ context.Context, user models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) Get(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) Search(_ context.Context, query, excludeID string, _ int) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		if user.ID == excludeID {
			continue
		}
		if user.DisplayName == query {
			out = append(out, user)
		}
	}
	return out, nil
}

func TestUserHandlerUpdateMeCreatesProfile(t *testing.T) {
	store := newInMemoryUserStore()
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	handler := UserHandler{Users: store, NowFunc: func() time.Time { return now }}

	body := []byte(`{"displayName":"Alice","bio":"surfer"}`)
	req := authedRequest(http.MethodPut, "/api/v1/users/me", body)
	rec := httptest.NewRecorder()

	handler.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	stored, ok := store.users["alice"]
	if !ok {
		t.Fatal("expected profile to be created on first write")
	}
	if stored.DisplayName != "Alice" || stored.Bio != "surfer" {
		t.Fatalf("unexpected stored profile %+v", stored)
	}
	if !stored.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt to use NowFunc")
	}
}

func TestUserHandlerUpdateMePartialUpdate(t *testing.T) {
	store := newInMemoryUserStore(models.User{
		ID: "alice", DisplayName: "Alice", Bio: "surfer", AvatarURL: "http://img/alice",
	})
	handler := UserHandler{Users: store}

	// Only the bio is provided; the other fields must survive.
	body := []byte(`{"bio":"longboarder"}`)
	req := authedRequest(http.MethodPut, "/api/v1/users/me", body)
	rec := httptest.NewRecorder()

	handler.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	stored := store.users["alice"]
	if stored.Bio != "longboarder" {
		t.Fatalf("expected bio to be updated got %q", stored.Bio)
	}
	if stored.DisplayName != "Alice" || stored.AvatarURL != "http://img/alice" {
		t.Fatalf("expected untouched fields to survive got %+v", stored)
	}
}

func TestUserHandlerMeNotFound(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore()}

	req := authedRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestUserHandlerGet(t *testing.T) {
	store := newInMemoryUserStore(models.User{ID: "bob", DisplayName: "Bob"})
	handler := UserHandler{Users: store}

	req := authedRequest(http.MethodGet, "/api/v1/users/bob", nil)
	req.SetPathValue("id", "bob")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "bob" || resp.Name != "Bob" {
		t.Fatalf("unexpected profile %+v", resp)
	}
}

func TestUserHandlerSearch(t *testing.T) {
	store := newInMemoryUserStore(
		models.User{ID: "bob", DisplayName: "Bob"},
		models.User{ID: "alice", DisplayName: "Bob"},
	)
	handler := UserHandler{Users: store}

	// The caller never appears in their own results.
	req := authedRequest(http.MethodGet, "/api/v1/users/search?q=Bob", nil)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp userListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != "bob" {
		t.Fatalf("unexpected results %+v", resp.Users)
	}
}

func TestUserHandlerSearchEmptyQuery(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore(models.User{ID: "bob", DisplayName: "Bob"})}

	req := authedRequest(http.MethodGet, "/api/v1/users/search?q=", nil)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp userListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 0 {
		t.Fatalf("expected empty result for empty query got %+v", resp.Users)
	}
}
