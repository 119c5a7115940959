package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkaydev/auto-shop/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	service, err := NewService()
	assert.NoError(t, err)
	return service
}

func TestNewService(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service, err := NewService()
	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)
}

func TestNewService_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := NewService()
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewService_CustomExpiry(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "2h")
	service, err := NewService()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Hour, service.tokenExp)
}

func TestService_HashPassword(t *testing.T) {
	service := newTestService(t)

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestService_CheckPassword(t *testing.T) {
	service := newTestService(t)

	password := "testpassword123"
	hash, _ := service.HashPassword(password)

	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_GenerateToken(t *testing.T) {
	service := newTestService(t)

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "testuser",
		Role:     models.RoleCustomer,
	}

	token, err := service.GenerateToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "testuser",
		Role:     models.RoleTechnician,
	}

	token, _ := service.GenerateToken(user)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Role, claims.Role)

	_, err = service.ValidateToken("invalid-token")
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	service := newTestService(t)
	user := &models.User{ID: primitive.NewObjectID(), Username: "testuser", Role: models.RoleCustomer}
	token, _ := service.GenerateToken(user)

	other := &Service{jwtSecret: []byte("different-secret"), tokenExp: time.Hour}
	_, err := other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService(t)

	token, err := service.ExtractTokenFromHeader("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	for _, bad := range []string{"", "abc123", "Basic abc123", "Bearer "} {
		_, err := service.ExtractTokenFromHeader(bad)
		assert.Equal(t, ErrInvalidToken, err, "header %q", bad)
	}
}

func TestService_Validators(t *testing.T) {
	service := newTestService(t)

	assert.NoError(t, service.ValidatePassword("longenough"))
	assert.Error(t, service.ValidatePassword("short"))

	assert.NoError(t, service.ValidateEmail("user@example.com"))
	assert.Error(t, service.ValidateEmail("not-an-email"))

	assert.NoError(t, service.ValidateUsername("jane"))
	assert.Error(t, service.ValidateUsername("ab"))
}
