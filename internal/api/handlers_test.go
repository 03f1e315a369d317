package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/oblivionis/tracker/internal/auth"
	"github.com/oblivionis/tracker/internal/domain"
	"github.com/oblivionis/tracker/internal/storage"
	"github.com/oblivionis/tracker/internal/tracker"
)

func newTestRouter(t *testing.T) (*Router, *storage.Store) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tr := tracker.New(store, 60)
	authService := auth.NewService("test-secret", time.Hour)
	return NewRouter(store, tr, authService), store
}

func doRequest(r *Router, method, path string, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T, r *Router, store *storage.Store) string {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateWebUser(context.Background(), "root", hash, true); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(LoginRequest{Username: "root", Password: "password123"})
	rec := doRequest(r, "POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, "GET", "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetGames(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	game, err := store.CreateGame(ctx, "Hades")
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(r, "GET", "/api/games", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var games []domain.Game
	if err := json.Unmarshal(rec.Body.Bytes(), &games); err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || games[0].Name != "Hades" {
		t.Errorf("games = %+v", games)
	}

	rec = doRequest(r, "GET", "/api/games/"+itoa(game.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("single game status = %d", rec.Code)
	}
	rec = doRequest(r, "GET", "/api/games/999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing game status = %d", rec.Code)
	}
}

func TestGetUserActivities(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	user, err := store.GetOrCreateUser(ctx, "u1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	game, _ := store.CreateGame(ctx, "Hades")
	if err := store.CreateActivity(ctx, &domain.Activity{
		Timestamp:  time.Now().UTC(),
		UserID:     user.ID,
		GameID:     game.ID,
		PlatformID: user.DefaultPlatformID,
		Seconds:    300,
	}); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(r, "GET", "/api/users/u1/activities", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var details []domain.ActivityDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatal(err)
	}
	if len(details) != 1 || details[0].GameName != "Hades" || details[0].Seconds != 300 {
		t.Errorf("details = %+v", details)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, store := newTestRouter(t)
	adminToken(t, r, store)

	body, _ := json.Marshal(LoginRequest{Username: "root", Password: "wrong"})
	rec := doRequest(r, "POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}

	body, _ = json.Marshal(LoginRequest{Username: "ghost", Password: "password123"})
	rec = doRequest(r, "POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAccountRoutesRequireAdmin(t *testing.T) {
	r, store := newTestRouter(t)

	rec := doRequest(r, "GET", "/api/accounts", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rec.Code)
	}

	token := adminToken(t, r, store)
	rec = doRequest(r, "GET", "/api/accounts", nil, token)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d: %s", rec.Code, rec.Body.String())
	}

	// A non-admin account gets 403
	body, _ := json.Marshal(CreateAccountRequest{Username: "viewer", Password: "password123"})
	rec = doRequest(r, "POST", "/api/accounts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	loginBody, _ := json.Marshal(LoginRequest{Username: "viewer", Password: "password123"})
	rec = doRequest(r, "POST", "/api/auth/login", loginBody, "")
	var resp LoginResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	rec = doRequest(r, "GET", "/api/accounts", nil, resp.Token)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d", rec.Code)
	}
}

func TestDeleteAccountSelfForbidden(t *testing.T) {
	r, store := newTestRouter(t)
	token := adminToken(t, r, store)

	rec := doRequest(r, "DELETE", "/api/accounts/root", nil, token)
	if rec.Code != http.StatusForbidden {
		t.Errorf("self-delete status = %d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
