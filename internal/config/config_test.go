package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("S3_PUBLIC_BASE_URL", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "LocalTourX", cfg.AppName)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "token", cfg.CookieName)
	assert.Equal(t, "memory", cfg.PendingStore)
	assert.Equal(t, 10, cfg.PostsPageSize)
	assert.Equal(t, "https://localtourx-media.s3.us-east-1.amazonaws.com", cfg.S3PublicBaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRY_DAYS", "90")
	t.Setenv("PENDING_STORE", "Redis")
	t.Setenv("SMS_OTP_ENABLED", "true")
	t.Setenv("PENDING_SWEEP_INTERVAL", "30s")
	t.Setenv("APP_BASE_URL", "https://api.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.com,https://b.com")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "redis", cfg.PendingStore)
	assert.True(t, cfg.SMSOTPEnabled)
	assert.Equal(t, 30*time.Second, cfg.PendingSweepInterval)
	assert.Equal(t, "https://api.example.com", cfg.AppBaseURL)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY_DAYS", "seven")
	t.Setenv("SMTP_PORT", "x")
	t.Setenv("PENDING_SWEEP_INTERVAL", "-1s")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 1025, cfg.SMTPPort)
	assert.Equal(t, time.Minute, cfg.PendingSweepInterval)
}
