package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
	"github.com/iliyamo/restaurant-booking/internal/utils"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse battery"
)

type fakeAdmins struct {
	admins []model.Admin
}

func (f *fakeAdmins) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	for _, a := range f.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Admin{}, sql.ErrNoRows
}

func (f *fakeAdmins) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Admin{}, sql.ErrNoRows
}

type fakeTokens struct {
	mu   sync.Mutex
	live map[string]uint64
}

func (f *fakeTokens) StoreRefresh(ctx context.Context, adminID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[tokenHash] = adminID
	return nil
}

func (f *fakeTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.live[tokenHash]
	if !ok {
		return 0, repository.ErrTokenInvalid
	}
	return id, nil
}

func (f *fakeTokens) Rotate(ctx context.Context, adminID uint64, oldHash, newHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live[oldHash] != adminID {
		return repository.ErrTokenInvalid
	}
	delete(f.live, oldHash)
	f.live[newHash] = adminID
	return nil
}

func (f *fakeTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, tokenHash)
	return nil
}

func (f *fakeTokens) RevokeAllForAdmin(ctx context.Context, adminID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, id := range f.live {
		if id == adminID {
			delete(f.live, h)
		}
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func newAuthEnv(t *testing.T) (*echo.Echo, *fakeTokens) {
	t.Helper()
	hash, err := utils.HashPassword(adminPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admins := &fakeAdmins{admins: []model.Admin{
		{ID: 1, Email: adminEmail, PasswordHash: hash, Role: model.RoleAdmin, IsActive: true},
		{ID: 2, Email: "retired@example.com", PasswordHash: hash, Role: model.RoleAdmin, IsActive: false},
	}}
	tokens := &fakeTokens{live: make(map[string]uint64)}
	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 15, RefreshTTLDays: 7}
	h := NewAuthHandler(cfg, admins, tokens)

	e := echo.New()
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/refresh", h.Refresh)
	e.POST("/v1/auth/logout", h.Logout)
	e.GET("/v1/me", h.Me, middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	return e, tokens
}

func postJSON(e *echo.Echo, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo) authResp {
	t.Helper()
	rec := postJSON(e, "/v1/auth/login", `{"email":" Admin@Example.com ","password":"`+adminPassword+`"}`, "")
	expectCode(t, rec, http.StatusOK)
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestLogin(t *testing.T) {
	t.Parallel()
	e, tokens := newAuthEnv(t)

	resp := login(t, e)
	if resp.Admin.ID != 1 || resp.Admin.Role != model.RoleAdmin {
		t.Fatalf("unexpected admin %+v", resp.Admin)
	}
	claims, err := utils.ParseAccessToken("secret", resp.Access.Token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if id, _ := claims.AdminID(); id != 1 || claims.Email != adminEmail {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if tokens.count() != 1 {
		t.Fatalf("expected the refresh token to be stored")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Access.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	expectCode(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), adminEmail) {
		t.Fatalf("expected /v1/me to echo the email, got %s", rec.Body.String())
	}
}

func TestLoginRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{"email":""}`, http.StatusBadRequest},
		{"unknown email", `{"email":"nobody@example.com","password":"whatever1"}`, http.StatusUnauthorized},
		{"wrong password", `{"email":"` + adminEmail + `","password":"wrong password"}`, http.StatusUnauthorized},
		{"inactive admin", `{"email":"retired@example.com","password":"` + adminPassword + `"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e, _ := newAuthEnv(t)
			expectCode(t, postJSON(e, "/v1/auth/login", tc.body, ""), tc.want)
		})
	}
}

func TestRefreshRotates(t *testing.T) {
	t.Parallel()
	e, tokens := newAuthEnv(t)
	first := login(t, e)

	rec := postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`, "")
	expectCode(t, rec, http.StatusOK)
	var second authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Refresh.Token == first.Refresh.Token {
		t.Fatalf("expected a new refresh token")
	}
	if tokens.count() != 1 {
		t.Fatalf("expected the old token to be replaced, got %d live", tokens.count())
	}

	// the rotated token is spent
	expectCode(t, postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`, ""), http.StatusUnauthorized)
	expectCode(t, postJSON(e, "/v1/auth/refresh", `{}`, ""), http.StatusBadRequest)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	e, tokens := newAuthEnv(t)

	one := login(t, e)
	expectCode(t, postJSON(e, "/v1/auth/logout", `{"refresh_token":"`+one.Refresh.Token+`"}`, ""), http.StatusNoContent)
	expectCode(t, postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+one.Refresh.Token+`"}`, ""), http.StatusUnauthorized)
	expectCode(t, postJSON(e, "/v1/auth/logout", `{"refresh_token":"`+one.Refresh.Token+`"}`, ""), http.StatusUnauthorized)

	login(t, e)
	two := login(t, e)
	if tokens.count() != 2 {
		t.Fatalf("expected two live tokens, got %d", tokens.count())
	}
	expectCode(t, postJSON(e, "/v1/auth/logout", `{}`, two.Access.Token), http.StatusNoContent)
	if tokens.count() != 0 {
		t.Fatalf("expected every token revoked, got %d", tokens.count())
	}

	expectCode(t, postJSON(e, "/v1/auth/logout", `{}`, ""), http.StatusBadRequest)
}
