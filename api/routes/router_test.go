package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/internal/auth"
	"github.com/aferreira-dev/socialio-backend/internal/users"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

type fakeAuthService struct {
	registered []auth.RegisterInput
}

func (f *fakeAuthService) Register(_ context.Context, input auth.RegisterInput) (*auth.TokenPair, *users.UserDTO, error) {
	f.registered = append(f.registered, input)
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		&users.UserDTO{ID: uuid.New(), Email: input.Email, Username: input.Username, Role: "user"}, nil
}

func (f *fakeAuthService) Login(context.Context, auth.LoginInput) (*auth.TokenPair, error) {
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAuthService) Refresh(context.Context, string) (*auth.TokenPair, error) {
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func newTestRouter(authSvc auth.Service) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "socialio", ExpirationMinutes: 30, RefreshExpMinutes: 60}
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(cfg, logg, nil, nil, authSvc, nil, nil, nil, nil, nil)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(&fakeAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Socialio-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Socialio-Env"))
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(&fakeAuthService{})

	for _, path := range []string{"/api/v1/feed", "/api/v1/users/me", "/api/v1/posts/"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestRegisterRouteDispatches(t *testing.T) {
	authSvc := &fakeAuthService{}
	router := newTestRouter(authSvc)

	body := strings.NewReader(`{"email":"casey@example.com","username":"casey","password":"super-secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(authSvc.registered) != 1 {
		t.Fatalf("expected one register call, got %d", len(authSvc.registered))
	}
	var payload struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"access_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Tokens.AccessToken != "access" {
		t.Fatalf("expected token pair in envelope, got %s", rec.Body.String())
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(&fakeAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/none", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
