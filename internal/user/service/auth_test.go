package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eczanem/pharmatrack-backend/internal/user/jwt"
	"github.com/eczanem/pharmatrack-backend/internal/user/repository"
	"github.com/eczanem/pharmatrack-backend/internal/user/service"
	"github.com/eczanem/pharmatrack-backend/pkg/config"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/testutil"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "pharmacy_name", "created_at", "updated_at",
}

func newAuthService(t *testing.T) (*service.AuthService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewWithDB(mockDB.DB, log)

	jwtManager := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "pharmatrack-test",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		jwtManager,
		nil, // event publisher is optional
		log,
	)
	return svc, mockDB
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegister(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	now := time.Now()

	mockDB.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "eczaci", "eczaci@example.com", sqlmock.AnyArg(), nil).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Username: "eczaci",
		Email:    "Eczaci@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "eczaci", user.Username)
	// The stored hash never equals the raw password.
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_Success(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	now := time.Now()
	hash := hashPassword(t, "secret-password")

	mockDB.ExpectQuery("SELECT * FROM users WHERE username = $1 OR email = LOWER($1)").
		WithArgs("eczaci").
		WillReturnRows(testutil.MockRows(userColumns...).
			AddRow("user-1", "eczaci", "eczaci@example.com", hash, nil, now, now))
	mockDB.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), "eczaci", "secret-password", "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "user-1", resp.User.ID)

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	now := time.Now()
	hash := hashPassword(t, "secret-password")

	mockDB.ExpectQuery("SELECT * FROM users WHERE username = $1 OR email = LOWER($1)").
		WithArgs("eczaci").
		WillReturnRows(testutil.MockRows(userColumns...).
			AddRow("user-1", "eczaci", "eczaci@example.com", hash, nil, now, now))

	_, err := svc.Login(context.Background(), "eczaci", "wrong", "test-agent", "127.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM users WHERE username = $1 OR email = LOWER($1)").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(userColumns...))

	_, err := svc.Login(context.Background(), "ghost", "whatever", "test-agent", "127.0.0.1")
	require.Error(t, err)
	// Unknown user and wrong password are indistinguishable to the caller.
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	mockDB.ExpectationsWereMet(t)
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE sessions SET revoked_at = NOW() WHERE refresh_token_hash = $1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Logout(context.Background(), "some-refresh-token"))

	mockDB.ExpectationsWereMet(t)
}
