package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inventa/inventory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users         map[string]*domain.User
	createUserErr error
	lookupErr     error
	createCalls   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.createCalls++
	if m.createUserErr != nil {
		return m.createUserErr
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.Username] = user
	return nil
}

func (m *mockRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// mockAuthenticator implements Authenticator for testing.
// Tokens have the form "token:<username>:<user id>".
type mockAuthenticator struct {
	issueErr error
}

func (m *mockAuthenticator) IssueToken(_ context.Context, user *domain.User) (string, error) {
	if m.issueErr != nil {
		return "", m.issueErr
	}
	return "token:" + user.Username + ":" + user.ID, nil
}

func (m *mockAuthenticator) VerifyToken(_ context.Context, token string) (*Claims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "token" {
		return nil, ErrInvalidToken
	}
	return &Claims{Subject: parts[1], UserID: parts[2], Role: domain.RoleUser}, nil
}

func (m *mockAuthenticator) Type() string {
	return "mock"
}

// plainHasher implements PasswordHasher without the bcrypt cost.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(password, digest string) bool {
	return digest == "hashed:"+password
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, &mockAuthenticator{}, plainHasher{})
}

func TestRegister_Success(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, plainHasher{}.Verify("secret1", user.PasswordHash))
}

func TestRegister_NormalizesEmail(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "bob",
		Email:    "  Bob@Example.COM ",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
}

func TestRegister_TrimsUsername(t *testing.T) {
	service := newTestService(newMockRepository())

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "  erin ",
		Email:    "e@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "erin", user.Username)

	_, err = service.Register(context.Background(), RegisterInput{
		Username: "   ",
		Email:    "blank@x.com",
		Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "username")
}

func TestRegister_PasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "five characters", password: "abcde", wantErr: ErrInvalidInput},
		{name: "six characters", password: "abcdef"},
		{name: "empty", password: "", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(newMockRepository())

			user, err := service.Register(context.Background(), RegisterInput{
				Username: "carol",
				Email:    "c@x.com",
				Password: tt.password,
			})

			if tt.wantErr != nil {
				assert.Nil(t, user)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, user)
		})
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	service := newTestService(newMockRepository())

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "dave",
		Email:    "not-an-email",
		Password: "secret1",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "email")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "other@x.com",
		Password: "secret2",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, 1, repo.createCalls)
}

func TestRegister_DuplicateEmailSameMessage(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	_, byEmail := service.Register(context.Background(), RegisterInput{
		Username: "alice2",
		Email:    "a@x.com",
		Password: "secret1",
	})
	_, byName := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "b@x.com",
		Password: "secret1",
	})

	require.Error(t, byEmail)
	require.Error(t, byName)
	assert.Equal(t, byName.Error(), byEmail.Error())
}

func TestRegister_ConflictOnInsert(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = ErrUserExists
	service := newTestService(repo)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegister_CreateUserFails(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	service := newTestService(repo)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})

	assert.Nil(t, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserExists)
	assert.Empty(t, repo.users)
}

func TestRegister_LookupFails(t *testing.T) {
	repo := newMockRepository()
	repo.lookupErr = errors.New("connection refused")
	service := newTestService(repo)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})

	require.Error(t, err)
	assert.Equal(t, 0, repo.createCalls)
}

func registerAlice(t *testing.T, service *Service) *domain.User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return user
}

func TestLogin_Success(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)
	alice := registerAlice(t, service)

	result, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, alice.ID, result.User.ID)

	claims, err := (&mockAuthenticator{}).VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.UserID)
}

func TestLogin_WrongPasswordAndUnknownUserAreIndistinguishable(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)
	registerAlice(t, service)

	_, wrongPassword := service.Login(context.Background(), LoginInput{Username: "alice", Password: "nope12"})
	_, unknownUser := service.Login(context.Background(), LoginInput{Username: "nobody", Password: "secret1"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLogin_EmptyCredentials(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)
	registerAlice(t, service)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{name: "both empty", input: LoginInput{}},
		{name: "empty password", input: LoginInput{Username: "alice"}},
		{name: "empty username", input: LoginInput{Password: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Login(context.Background(), tt.input)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.NotErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLogin_IssueTokenFails(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockAuthenticator{issueErr: errors.New("sign failure")}, plainHasher{})
	registerAlice(t, service)

	result, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "secret1"})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestMe_RequiresUser(t *testing.T) {
	service := newTestService(newMockRepository())

	user, err := service.Me(context.Background())
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMe_ReturnsContextUser(t *testing.T) {
	service := newTestService(newMockRepository())
	alice := &domain.User{ID: "1", Username: "alice"}

	user, err := service.Me(WithUser(context.Background(), alice))
	require.NoError(t, err)
	assert.Same(t, alice, user)
}

func TestResolveUser(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)
	alice := registerAlice(t, service)

	t.Run("valid token", func(t *testing.T) {
		user, err := service.ResolveUser(context.Background(), "token:alice:"+alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := service.ResolveUser(context.Background(), "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := service.ResolveUser(context.Background(), "token:ghost:"+alice.ID)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("user id mismatch", func(t *testing.T) {
		_, err := service.ResolveUser(context.Background(), "token:alice:someone-else")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestEndToEnd_RegisterLoginMe(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo)

	registered, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, registered.Role)

	result, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	resolved, err := service.ResolveUser(context.Background(), result.Token)
	require.NoError(t, err)

	me, err := service.Me(WithUser(context.Background(), resolved))
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, registered.ID, me.ID)
}
