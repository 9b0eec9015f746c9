package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localtourx-api/internal/config"
	"github.com/localtourx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeys(t *testing.T) (*rsa.PrivateKey, *config.Config) {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	return privKey, &config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         7 * 24 * time.Hour,
	}
}

func TestProvider_SignVerify(t *testing.T) {
	_, cfg := writeKeys(t)
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	signed, err := p.Sign("u1", domain.RoleGuide)
	require.NoError(t, err)

	claims, err := p.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleGuide, claims.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestProvider_Verify_Expired(t *testing.T) {
	privKey, cfg := writeKeys(t)
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	claims := &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privKey)
	require.NoError(t, err)

	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestProvider_Verify_ForeignKey(t *testing.T) {
	_, cfg := writeKeys(t)
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	otherKey, _ := writeKeys(t)
	claims := &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(otherKey)
	require.NoError(t, err)

	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestProvider_Verify_Garbage(t *testing.T) {
	_, cfg := writeKeys(t)
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	_, err = p.Verify("not-a-real-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: filepath.Join(t.TempDir(), "nope.pem")})
	assert.ErrorContains(t, err, "read private key")
}
