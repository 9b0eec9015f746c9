package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localtourx-api/internal/domain"
	pkgtoken "github.com/localtourx-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName                = "name"
	fieldPhone               = "phone"
	fieldAvatar              = "avatar"
	fieldLanguages           = "languages"
	fieldLocation            = "location"
	fieldPasswordHash        = "password_hash"
	fieldResetToken          = "reset_password_token"
	fieldResetTokenExpiresAt = "reset_password_expires_at"
)

const (
	resetTokenTTL   = 15 * time.Minute
	defaultPageSize = 20
	maxPageSize     = 100
)

// ResetPath is the route a reset link points at, relative to the API base URL.
const ResetPath = "/api/v1/users/password/reset/"

var errInvalidResetToken = fmt.Errorf("password reset token is invalid or has expired: %w", domain.ErrBadRequest)

type Service interface {
	GetMe(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	ForgotPassword(ctx context.Context, email, baseURL string) error
	ResetPassword(ctx context.Context, rawToken string, req domain.ResetPasswordRequest) (*domain.User, string, error)
	UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) (*domain.User, string, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID string, role domain.Role) (string, error)
}

type service struct {
	repo        userStore
	mailer      mailer
	jwtProvider jwtSigner
	appName     string
	now         func() time.Time
	hashCost    int
}

type ServiceDeps struct {
	UserRepo    userStore
	Mailer      mailer
	JWTProvider jwtSigner
	AppName     string
	Now         func() time.Time
	BcryptCost  int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:        deps.UserRepo,
		mailer:      deps.Mailer,
		jwtProvider: deps.JWTProvider,
		appName:     deps.AppName,
		now:         deps.Now,
		hashCost:    deps.BcryptCost,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) GetMe(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateProfile applies the supplied fields. Email is not editable here.
func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Avatar != nil {
		updates[fieldAvatar] = *req.Avatar
	}
	if req.Languages != nil {
		updates[fieldLanguages] = req.Languages
	}
	if req.Location != nil {
		updates[fieldLocation] = req.Location
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no profile fields to update: %w", domain.ErrValidation)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// ForgotPassword emails a reset link. Unknown emails succeed silently so the
// response does not reveal which addresses are registered.
func (s *service) ForgotPassword(ctx context.Context, email, baseURL string) error {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
		fieldResetToken:          pkgtoken.Hash(raw),
		fieldResetTokenExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}); err != nil {
		return err
	}

	link := strings.TrimRight(baseURL, "/") + ResetPath + raw
	body := fmt.Sprintf("Your password reset link:\n\n%s\n\nThis link is valid for 15 minutes.\n\nIf you did not request this, please ignore this email.", link)
	if err := s.mailer.SendEmail(u.Email, s.appName+" Password Recovery", body); err != nil {
		slog.Error("failed to send password reset email", "user_id", u.UserID, "err", err)
		if cerr := s.clearResetToken(ctx, u.UserID); cerr != nil {
			slog.Warn("failed to clear reset token after email failure", "user_id", u.UserID, "err", cerr)
		}
		return fmt.Errorf("email could not be sent: %w", domain.ErrUpstream)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, rawToken string, req domain.ResetPasswordRequest) (*domain.User, string, error) {
	if req.Password != req.ConfirmPassword {
		return nil, "", fmt.Errorf("password and confirm password do not match: %w", domain.ErrValidation)
	}
	if rawToken == "" {
		return nil, "", errInvalidResetToken
	}
	u, err := s.repo.GetByResetToken(ctx, pkgtoken.Hash(rawToken))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", errInvalidResetToken
	}
	if err != nil {
		return nil, "", err
	}
	if u.ResetPasswordExpiresAt == nil || !s.now().Before(*u.ResetPasswordExpiresAt) {
		return nil, "", errInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
		fieldPasswordHash:        string(hash),
		fieldResetToken:          nil,
		fieldResetTokenExpiresAt: nil,
	}); err != nil {
		return nil, "", err
	}
	u.PasswordHash = string(hash)
	u.ResetPasswordToken = ""
	u.ResetPasswordExpiresAt = nil
	return s.sign(u)
}

func (s *service) UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) (*domain.User, string, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, "", fmt.Errorf("new password and confirm password do not match: %w", domain.ErrValidation)
	}
	if req.NewPassword == req.OldPassword {
		return nil, "", fmt.Errorf("new password must be different from old password: %w", domain.ErrValidation)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		return nil, "", fmt.Errorf("old password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return nil, "", err
	}
	u.PasswordHash = string(hash)
	return s.sign(u)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) sign(u *domain.User) (*domain.User, string, error) {
	token, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) clearResetToken(ctx context.Context, userID string) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{
		fieldResetToken:          nil,
		fieldResetTokenExpiresAt: nil,
	})
}
