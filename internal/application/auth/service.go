package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/pkg/id"
	"github.com/localtourx-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL     = 10 * time.Minute
	pendingTTL = 15 * time.Minute
)

// Outcome tells the caller how a successful verification was reached.
type Outcome string

const (
	OutcomePromoted         Outcome = "promoted"
	OutcomeVerifiedExisting Outcome = "verified_existing"
)

// Session is a minted bearer token and the account it belongs to.
type Session struct {
	Token   string
	User    *domain.User
	Outcome Outcome
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*Session, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*Session, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type pendingStore interface {
	Get(ctx context.Context, email string) (*domain.PendingRegistrant, error)
	Put(ctx context.Context, p *domain.PendingRegistrant) error
	Delete(ctx context.Context, email string) error
	Take(ctx context.Context, email string) (*domain.PendingRegistrant, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID string, role domain.Role) (string, error)
}

type service struct {
	users    userStore
	pending  pendingStore
	mailer   mailer
	sms      smsSender
	signer   jwtSigner
	appName  string
	now      func() time.Time
	newOTP   func() (string, error)
	hashCost int
}

// ServiceDeps wires the auth service. SMSSender is optional; Now, GenerateOTP
// and BcryptCost fall back to the real clock, otp.Generate and the bcrypt default.
type ServiceDeps struct {
	UserRepo     userStore
	PendingStore pendingStore
	Mailer       mailer
	SMSSender    smsSender
	JWTProvider  jwtSigner
	AppName      string
	Now          func() time.Time
	GenerateOTP  func() (string, error)
	BcryptCost   int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:    deps.UserRepo,
		pending:  deps.PendingStore,
		mailer:   deps.Mailer,
		sms:      deps.SMSSender,
		signer:   deps.JWTProvider,
		appName:  deps.AppName,
		now:      deps.Now,
		newOTP:   deps.GenerateOTP,
		hashCost: deps.BcryptCost,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newOTP == nil {
		s.newOTP = otp.Generate
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

// Register starts or refreshes a registration and emails an OTP. It returns
// the normalized email the code was sent to.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	email := normalizeEmail(req.Email)
	existing, err := s.findUser(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if existing.IsVerified {
			return "", fmt.Errorf("user already exists with this email: %w", domain.ErrConflict)
		}
		return email, s.reissueForAccount(ctx, existing, "Your OTP is %s. It is valid for 10 minutes.")
	}

	prior, err := s.pending.Get(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	code, err := s.newOTP()
	if err != nil {
		return "", err
	}
	role := req.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.SelfAssignable() {
		return "", fmt.Errorf("role %q cannot be chosen at registration: %w", role, domain.ErrValidation)
	}
	now := s.now().UTC()
	entry := &domain.PendingRegistrant{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		Role:         role,
		Password:     req.Password,
		OTP:          code,
		OTPExpiresAt: now.Add(otpTTL),
		CreatedAt:    now,
		ExpiresAt:    now.Add(pendingTTL),
	}
	if err := s.pending.Put(ctx, entry); err != nil {
		return "", err
	}

	if err := s.deliver(ctx, email, req.Phone, fmt.Sprintf("Your OTP is %s. It is valid for 10 minutes.", code)); err != nil {
		if prior == nil {
			if derr := s.pending.Delete(ctx, email); derr != nil {
				slog.Warn("failed to drop pending registration after email failure", "email", email, "err", derr)
			}
		}
		return "", err
	}
	return email, nil
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	existing, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.verifyAccount(ctx, existing, req.OTP)
	}

	entry, err := s.pending.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrRegistrationExpired
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkCode(entry.OTP, entry.OTPExpiresAt, req.OTP); err != nil {
		return nil, err
	}

	// Taking the entry is the claim: of concurrent verifications only one
	// promotes. The taken entry is rechecked in case a resend replaced it.
	entry, err = s.pending.Take(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrRegistrationExpired
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkCode(entry.OTP, entry.OTPExpiresAt, req.OTP); err != nil {
		s.restorePending(ctx, entry)
		return nil, err
	}

	// The pending password is hashed here and nowhere else.
	hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), s.hashCost)
	if err != nil {
		s.restorePending(ctx, entry)
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.NewAt(now),
		Name:         entry.Name,
		Email:        entry.Email,
		Phone:        entry.Phone,
		PasswordHash: string(hash),
		Role:         entry.Role,
		Avatar:       domain.DefaultAvatar,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		s.restorePending(ctx, entry)
		return nil, err
	}
	return s.mint(u, OutcomePromoted)
}

// restorePending puts back an entry taken by a verification that then failed.
func (s *service) restorePending(ctx context.Context, entry *domain.PendingRegistrant) {
	if err := s.pending.Put(ctx, entry); err != nil {
		slog.Warn("failed to restore pending registration", "email", entry.Email, "err", err)
	}
}

// ResendOTP issues a fresh code for a pending registration or an unverified
// account and returns the normalized email it was sent to.
func (s *service) ResendOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	existing, err := s.findUser(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if existing.IsVerified {
			return "", domain.ErrAlreadyVerified
		}
		if err := s.reissueForAccount(ctx, existing, "Your new OTP is %s. It is valid for 10 minutes."); err != nil {
			return "", err
		}
		return email, nil
	}

	entry, err := s.pending.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("registration session expired, please register again: %w", domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	code, err := s.newOTP()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	entry.OTP = code
	entry.OTPExpiresAt = now.Add(otpTTL)
	entry.ExpiresAt = now.Add(pendingTTL)
	if err := s.pending.Put(ctx, entry); err != nil {
		return "", err
	}
	if err := s.deliver(ctx, email, entry.Phone, fmt.Sprintf("Your new OTP is %s. It is valid for 10 minutes.", code)); err != nil {
		return "", err
	}
	return email, nil
}

// Login checks credentials and mints a session. An unverified account gets a
// fresh OTP and ErrVerificationRequired.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	u, err := s.findUser(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsVerified {
		if err := s.reissueForAccount(ctx, u, "Your OTP is %s. It is valid for 10 minutes."); err != nil {
			return nil, err
		}
		return nil, domain.ErrVerificationRequired
	}
	return s.mint(u, "")
}

func (s *service) verifyAccount(ctx context.Context, u *domain.User, code string) (*Session, error) {
	if u.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}
	if u.OTP == "" || u.OTPExpiresAt == nil {
		return nil, domain.ErrOTPExpired
	}
	if err := s.checkCode(u.OTP, *u.OTPExpiresAt, code); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"is_verified":    true,
		"otp":            nil,
		"otp_expires_at": nil,
	}); err != nil {
		return nil, err
	}
	u.IsVerified = true
	u.OTP = ""
	u.OTPExpiresAt = nil
	if err := s.pending.Delete(ctx, u.Email); err != nil {
		slog.Warn("failed to drop shadowed pending registration", "email", u.Email, "err", err)
	}
	return s.mint(u, OutcomeVerifiedExisting)
}

// checkCode accepts got only if it equals want and now is strictly before expiresAt.
func (s *service) checkCode(want string, expiresAt time.Time, got string) error {
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return domain.ErrOTPMismatch
	}
	if !s.now().Before(expiresAt) {
		return domain.ErrOTPExpired
	}
	return nil
}

func (s *service) reissueForAccount(ctx context.Context, u *domain.User, bodyFormat string) error {
	code, err := s.newOTP()
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"otp":            code,
		"otp_expires_at": s.now().UTC().Add(otpTTL),
	}); err != nil {
		return err
	}
	return s.deliver(ctx, u.Email, u.Phone, fmt.Sprintf(bodyFormat, code))
}

// deliver emails the OTP message and mirrors it over SMS when configured.
// Only the email is required to succeed.
func (s *service) deliver(ctx context.Context, email, phone, body string) error {
	if err := s.mailer.SendEmail(email, s.appName+" Account Verification", body); err != nil {
		slog.Error("failed to send otp email", "email", email, "err", err)
		return fmt.Errorf("failed to send otp email: %w", domain.ErrUpstream)
	}
	if s.sms != nil && phone != "" {
		if err := s.sms.SendSMS(ctx, phone, body); err != nil {
			slog.Warn("failed to send otp sms", "email", email, "err", err)
		}
	}
	return nil
}

func (s *service) mint(u *domain.User, outcome Outcome) (*Session, error) {
	token, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u, Outcome: outcome}, nil
}

func (s *service) findUser(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
