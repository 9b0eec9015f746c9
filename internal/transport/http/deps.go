package http

import (
	"context"
	"io"

	"github.com/localtourx-api/internal/domain"
	jwtinfra "github.com/localtourx-api/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	GetMany(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// PostRepository is the minimal interface the router requires from a post store.
type PostRepository interface {
	Put(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Delete(ctx context.Context, postID string) error
	Update(ctx context.Context, postID string, updates map[string]interface{}) (*domain.Post, error)
	AddLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	RemoveLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	AppendComment(ctx context.Context, postID string, c domain.Comment) (*domain.Post, error)
	ListFeed(ctx context.Context, page, limit int) ([]domain.Post, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error)
}

// PendingStore holds registrations awaiting OTP confirmation.
type PendingStore interface {
	Get(ctx context.Context, email string) (*domain.PendingRegistrant, error)
	Put(ctx context.Context, p *domain.PendingRegistrant) error
	Delete(ctx context.Context, email string) error
	Take(ctx context.Context, email string) (*domain.PendingRegistrant, error)
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
	Key(ref string) (string, error)
}

// Mailer sends plain-text email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMSSender sends text messages. Optional.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(userID string, role domain.Role) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}
