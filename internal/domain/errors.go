package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream dependency failed")
)

// OTP and credential errors. Each wraps one of the sentinels above.
var (
	ErrOTPMismatch          = fmt.Errorf("invalid otp: %w", ErrBadRequest)
	ErrOTPExpired           = fmt.Errorf("otp expired: %w", ErrBadRequest)
	ErrRegistrationExpired  = fmt.Errorf("registration session expired, please register again: %w", ErrBadRequest)
	ErrAlreadyVerified      = fmt.Errorf("user already verified, please login: %w", ErrConflict)
	ErrInvalidCredentials   = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrVerificationRequired = fmt.Errorf("account not verified, new otp sent to your email: %w", ErrUnauthorized)
)
