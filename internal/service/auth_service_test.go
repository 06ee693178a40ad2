package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmtrust/livestock-api/internal/models"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	usersByID     map[int64]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    int
	nextID        int64
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]*models.User),
		usersByID:     make(map[int64]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		nextID:        1,
	}
}

func (m *mockAuthRepo) Create(_ context.Context, user *models.User) error {
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	user.ID = m.nextID
	m.nextID++
	m.users[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) UpdateLastLogin(_ context.Context, id int64, ts time.Time) error {
	if user, ok := m.usersByID[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	m.revokedAll++
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "livestock-api",
	}
}

func seedUser(t *testing.T, repo *mockAuthRepo, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRegisterCreatesAccount(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "amina",
		Email:    "amina@example.com",
		Password: "secret123",
		FullName: "Amina Bello",
		Role:     "farmer",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleFarmer, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "amina",
		Email:    "amina@example.com",
		Password: "secret123",
		FullName: "Amina Bello",
		Role:     "ADMIN",
	})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestLoginIssuesTokens(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "vet@example.com", "secret123", models.RoleVet)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "vet@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleVet, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, models.RoleVet, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "vet@example.com", "secret123", models.RoleVet)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "vet@example.com",
		Password: "wrong",
	})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(t, repo, "vet@example.com", "secret123", models.RoleVet)
	user.Active = false
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "vet@example.com",
		Password: "secret123",
	})
	assert.Equal(t, "ACCOUNT_INACTIVE", errorCode(t, err))
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "farmer@example.com", "secret123", models.RoleFarmer)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "farmer@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestLogoutRevokesOwnTokenOnly(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(t, repo, "farmer@example.com", "secret123", models.RoleFarmer)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "farmer@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, user.ID+1)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, user.ID))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "vet@example.com", "secret123", models.RoleVet)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "vet@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.AccessTokenSecret = "different-secret"
	other := NewAuthService(repo, nil, zap.NewNop(), otherCfg)

	_, err = other.ValidateToken(login.AccessToken)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, err = svc.ValidateToken(login.AccessToken + "x")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}
