// Package jwt implements identity.Authenticator with signed HS256 JSON Web Tokens.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inventa/inventory-api/internal/domain"
	"github.com/inventa/inventory-api/internal/identity"
)

// DefaultTokenDuration is used when Config.TokenDuration is not positive.
const DefaultTokenDuration = 24 * time.Hour

// Config contains JWT configuration.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

// tokenClaims is the JWT payload. The subject is the username.
type tokenClaims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies session tokens with a process-wide secret.
type Authenticator struct {
	secret   []byte
	duration time.Duration
	issuer   string
	now      func() time.Time
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt: secret key is required")
	}

	duration := cfg.TokenDuration
	if duration <= 0 {
		duration = DefaultTokenDuration
	}

	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		duration: duration,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}, nil
}

// Type returns the authenticator type.
func (a *Authenticator) Type() string {
	return "jwt"
}

// IssueToken creates a signed token for user.
func (a *Authenticator) IssueToken(_ context.Context, user *domain.User) (string, error) {
	now := a.now()
	claims := tokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.duration)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the embedded claims.
// Every failure is reported as identity.ErrInvalidToken.
func (a *Authenticator) VerifyToken(_ context.Context, token string) (*identity.Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", identity.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, identity.ErrInvalidToken
	}

	return &identity.Claims{
		Subject:   claims.Subject,
		UserID:    claims.UserID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
