package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localtourx-api/internal/config"
	"github.com/localtourx-api/internal/domain"
	jwtinfra "github.com/localtourx-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokens issues "tok:<id>:<role>" tokens.
type stubTokens struct{}

func (stubTokens) Sign(userID string, role domain.Role) (string, error) {
	return "tok:" + userID + ":" + string(role), nil
}

func (stubTokens) Verify(tokenStr string) (*jwtinfra.Claims, error) {
	parts := strings.Split(tokenStr, ":")
	if len(parts) != 3 || parts[0] != "tok" {
		return nil, jwtinfra.ErrTokenInvalid
	}
	return &jwtinfra.Claims{UserID: parts[1], Role: domain.Role(parts[2])}, nil
}

type stubUserRepo struct {
	users map[string]*domain.User
}

func (s *stubUserRepo) Put(_ context.Context, u *domain.User) error {
	s.users[u.UserID] = u
	return nil
}

func (s *stubUserRepo) Get(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (s *stubUserRepo) GetByResetToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (s *stubUserRepo) GetMany(context.Context, []string) (map[string]*domain.User, error) {
	return map[string]*domain.User{}, nil
}

func (s *stubUserRepo) Update(context.Context, string, map[string]interface{}) error {
	return errors.New("not used")
}

func (s *stubUserRepo) ScanPage(context.Context, int32, string) ([]domain.User, string, error) {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, "", nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	users := &stubUserRepo{users: map[string]*domain.User{
		"tourist": {UserID: "tourist", Role: domain.RoleTourist, IsVerified: true},
		"admin":   {UserID: "admin", Role: domain.RoleAdmin, IsVerified: true},
	}}
	cfg := &config.Config{AppName: "LocalTourX", CookieName: "token", AllowedOrigins: []string{"*"}, PostsPageSize: 10}
	return NewRouter(ctx, cfg, &Deps{UserRepo: users, JWTProvider: stubTokens{}})
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthCheck(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/api/v1/health-check/ping", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_PostsRequireToken(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/api/v1/posts/all", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "missing_token", body.Code)
}

func TestRouter_AdminListing(t *testing.T) {
	h := newTestRouter(t)

	rr := do(h, http.MethodGet, "/api/v1/users/admin/all", "tok:tourist:tourist")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(h, http.MethodGet, "/api/v1/users/admin/all", "tok:admin:admin")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_MeUsesResolvedAccount(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/api/v1/users/me", "tok:tourist:tourist")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "tourist", body.User.UserID)
}
