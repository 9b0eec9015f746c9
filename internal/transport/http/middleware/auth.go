package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/localtourx-api/internal/domain"
	jwtinfra "github.com/localtourx-api/internal/infrastructure/jwt"
)

type contextKey string

const userKey contextKey = "user"

// Rejection codes returned by Auth.
const (
	CodeMissingToken       = "missing_token"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeUnknownIdentity    = "unknown_identity"
	CodeUnverifiedIdentity = "unverified_identity"
)

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type userLoader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Auth resolves the bearer token from the Authorization header, falling back
// to the session cookie, and injects the verified account into the context.
func Auth(verifier tokenVerifier, users userLoader, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r, cookieName)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, CodeMissingToken, "please login to access this resource")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if errors.Is(err, jwtinfra.ErrTokenExpired) {
				writeJSONError(w, http.StatusUnauthorized, CodeTokenExpired, "token has expired, please login again")
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, CodeInvalidToken, "invalid token")
				return
			}
			u, err := users.Get(r.Context(), claims.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				writeJSONError(w, http.StatusUnauthorized, CodeUnknownIdentity, "user not found")
				return
			}
			if err != nil {
				slog.Error("auth: load user", "user_id", claims.UserID, "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			if !u.IsVerified {
				writeJSONError(w, http.StatusForbidden, CodeUnverifiedIdentity, "please verify your account first")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// UserFromContext returns the account injected by Auth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// WithUser returns a copy of ctx carrying u, as Auth does.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
