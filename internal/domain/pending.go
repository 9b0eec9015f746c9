package domain

import "time"

// PendingRegistrant is a registration awaiting OTP confirmation. The password
// is kept in plain form until promotion, where it is hashed exactly once.
type PendingRegistrant struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	Password     string    `json:"password"`
	OTP          string    `json:"otp"`
	OTPExpiresAt time.Time `json:"otp_expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the entry is dead at now. Expiry is exclusive.
func (p *PendingRegistrant) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
