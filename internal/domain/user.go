package domain

import "time"

// DefaultAvatar is assigned to accounts that never uploaded one.
const DefaultAvatar = "default_avatar.jpg"

type Coordinates struct {
	Lat float64 `json:"lat" dynamodbav:"lat"`
	Lng float64 `json:"lng" dynamodbav:"lng"`
}

type Location struct {
	City        string       `json:"city,omitempty" dynamodbav:"city,omitempty"`
	State       string       `json:"state,omitempty" dynamodbav:"state,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" dynamodbav:"coordinates,omitempty"`
}

// User is a durable account. OTP and reset fields are only present while a
// verification or password reset is outstanding.
type User struct {
	UserID                 string     `json:"id" dynamodbav:"user_id"`
	Name                   string     `json:"name" dynamodbav:"name"`
	Email                  string     `json:"email" dynamodbav:"email"`
	Phone                  string     `json:"phone" dynamodbav:"phone"`
	PasswordHash           string     `json:"-" dynamodbav:"password_hash"`
	Role                   Role       `json:"role" dynamodbav:"role"`
	Avatar                 string     `json:"avatar" dynamodbav:"avatar"`
	Languages              []string   `json:"languages" dynamodbav:"languages,omitempty"`
	Location               *Location  `json:"location,omitempty" dynamodbav:"location,omitempty"`
	IsVerified             bool       `json:"is_verified" dynamodbav:"is_verified"`
	OTP                    string     `json:"-" dynamodbav:"otp,omitempty"`
	OTPExpiresAt           *time.Time `json:"-" dynamodbav:"otp_expires_at,omitempty"`
	ResetPasswordToken     string     `json:"-" dynamodbav:"reset_password_token,omitempty"`
	ResetPasswordExpiresAt *time.Time `json:"-" dynamodbav:"reset_password_expires_at,omitempty"`
	CreatedAt              time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt              time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Summary returns the public projection used when embedding users in posts.
func (u *User) Summary() *UserSummary {
	return &UserSummary{UserID: u.UserID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// UserSummary is the subset of a user exposed alongside posts and comments.
type UserSummary struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Phone    string `json:"phone" validate:"required,numeric"`
	Role     Role   `json:"role" validate:"omitempty,oneof=tourist guide"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UpdateProfileRequest struct {
	Name      *string   `json:"name" validate:"omitempty,min=3"`
	Phone     *string   `json:"phone" validate:"omitempty,numeric"`
	Avatar    *string   `json:"avatar"`
	Languages []string  `json:"languages"`
	Location  *Location `json:"location"`
}
