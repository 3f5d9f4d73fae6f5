// Package identity provides user registration, authentication and request identity resolution.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/inventa/inventory-api/internal/domain"
	"github.com/inventa/inventory-api/internal/pkg/ctxlog"
	"github.com/inventa/inventory-api/internal/pkg/metrics"
	"github.com/inventa/inventory-api/internal/pkg/validate"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Claims are the identity facts carried by a session token.
type Claims struct {
	Subject   string
	UserID    string
	Role      domain.Role
	ExpiresAt time.Time
}

// Authenticator issues and verifies session tokens.
type Authenticator interface {
	IssueToken(ctx context.Context, user *domain.User) (string, error)
	VerifyToken(ctx context.Context, token string) (*Claims, error)
	Type() string
}

// RegisterInput holds registration data.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput holds login credentials.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Token string
	User  *domain.User
}

var emailCaser = cases.Lower(language.Und)

// Service implements identity business logic.
type Service struct {
	repo      Repository
	auth      Authenticator
	hasher    PasswordHasher
	validator *validator.Validate

	dummyOnce   sync.Once
	dummyDigest string
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator, hasher PasswordHasher) *Service {
	return &Service{
		repo:      repo,
		auth:      auth,
		hasher:    hasher,
		validator: validate.New(),
	}
}

// Register creates a new user with the USER role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)

	if err := s.validator.Struct(input); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validate.Describe(err))
	}

	_, err := s.repo.GetUserByUsernameOrEmail(ctx, input.Username, input.Email)
	switch {
	case err == nil:
		metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		return nil, ErrUserExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
		Role:         domain.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// Login verifies credentials and issues a session token.
// Unknown usernames and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.GetUserByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Keep the response time close to the wrong-password path.
			s.hasher.Verify(input.Password, s.placeholderDigest())
			metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()

	return &AuthResult{Token: token, User: user}, nil
}

// Me returns the user attached to ctx by the authorization middleware.
func (s *Service) Me(ctx context.Context) (*domain.User, error) {
	return RequireUser(ctx)
}

// ResolveUser verifies a bearer token and loads the user named by its subject.
func (s *Service) ResolveUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.auth.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: load subject: %w", ErrInvalidToken, err)
	}

	if claims.UserID != "" && claims.UserID != user.ID {
		return nil, fmt.Errorf("%w: subject does not match user id", ErrInvalidToken)
	}

	return user, nil
}

func (s *Service) placeholderDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}

func normalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}
