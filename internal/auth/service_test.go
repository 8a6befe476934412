package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/database/users"
	"github.com/libreshelf/librarian/internal/entities"
)

func setupTestService(t *testing.T) (*Service, func()) {
	return setupTestServiceWithConfig(t, config.Auth{
		Mode:             config.AuthModeLocal,
		BcryptCost:       bcrypt.MinCost,
		TokenExpiry:      24 * time.Hour,
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	})
}

func setupTestServiceWithConfig(t *testing.T, cfg config.Auth) (*Service, func()) {
	dbPath := "./test_auth_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	service := NewService(users.NewRepository(db), cfg)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return service, cleanup
}

func registerStudent(t *testing.T, service *Service) *entities.User {
	user, err := service.Register("Ada Lovelace", "ada", "ada@example.org", "password123", entities.UserRoleStudent)
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	user := registerStudent(t, service)

	assert.NotZero(t, user.ID)
	assert.Equal(t, entities.UserRoleStudent, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestService_Register_DefaultsToStudent(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.Register("Ada Lovelace", "ada", "ada@example.org", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleStudent, user.Role)
}

func TestService_Register_InvalidRole(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("Ada Lovelace", "ada", "ada@example.org", "password123", "ADMIN")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_Register_MissingFields(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("", "ada", "ada@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = service.Register("Ada", "", "ada@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = service.Register("Ada", "ada", "", "password123", "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = service.Register("Ada", "ada", "ada@example.org", "", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestService_Register_InvalidUsername(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("Ada", "a", "ada@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrUsernameInvalid)

	_, err = service.Register("Ada", "ada lovelace", "ada@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrUsernameInvalid)
}

func TestService_Register_InvalidEmail(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("Ada", "ada", "not-an-email", "password123", "")
	assert.ErrorIs(t, err, ErrEmailInvalid)
}

func TestService_Register_Duplicate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registerStudent(t, service)

	// Same username
	_, err := service.Register("Other", "ada", "other@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrUserExists)

	// Same email
	_, err = service.Register("Other", "other", "ada@example.org", "password123", "")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_Authenticate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registered := registerStudent(t, service)

	user, err := service.Authenticate("ada", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Email also works as the login identifier.
	user, err = service.Authenticate("ada@example.org", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registerStudent(t, service)

	_, err := service.Authenticate("ada", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestService_Authenticate_UnknownUser(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Authenticate("nobody", "password123")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Authenticate_LockoutAfterFailedAttempts(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registerStudent(t, service)

	for i := 0; i < 3; i++ {
		_, err := service.Authenticate("ada", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	// Even the correct password is rejected while locked.
	_, err := service.Authenticate("ada", "password123")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestService_Authenticate_ResetsFailureCountOnSuccess(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registered := registerStudent(t, service)

	_, err := service.Authenticate("ada", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = service.Authenticate("ada", "password123")
	require.NoError(t, err)

	user, err := service.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, user.FailedLoginCount)
	assert.NotNil(t, user.LastLoginAt)
}

func TestService_TokenLifecycle(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	registered := registerStudent(t, service)

	token, err := service.GenerateToken(registered.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	require.NoError(t, service.RevokeToken(registered.ID))

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_Invalid(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateToken("bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service, cleanup := setupTestServiceWithConfig(t, config.Auth{
		Mode:        config.AuthModeLocal,
		BcryptCost:  bcrypt.MinCost,
		TokenExpiry: time.Nanosecond,
	})
	defer cleanup()

	registered := registerStudent(t, service)

	token, err := service.GenerateToken(registered.ID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_HasUsers(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	hasUsers, err := service.HasUsers()
	require.NoError(t, err)
	assert.False(t, hasUsers)

	registerStudent(t, service)

	hasUsers, err = service.HasUsers()
	require.NoError(t, err)
	assert.True(t, hasUsers)
}
