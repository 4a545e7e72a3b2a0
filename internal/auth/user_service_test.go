package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testPasswordConfig() *config.PasswordConfig {
	return &config.PasswordConfig{BcryptCost: bcrypt.MinCost}
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := testPasswordConfig().HashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestConvertDBUserToTypesUser(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		now := time.Now()
		dbUser := &db.User{
			ID:           uuid.New(),
			Email:        "john@example.com",
			PasswordHash: "hashed-password",
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		typesUser := convertDBUserToTypesUser(dbUser)
		require.NotNil(t, typesUser)
		assert.Equal(t, dbUser.ID, typesUser.ID)
		assert.Equal(t, dbUser.Email, typesUser.Email)
		assert.Equal(t, dbUser.CreatedAt, typesUser.CreatedAt)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.Nil(t, convertDBUserToTypesUser(nil))
	})
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates user and profile", func(t *testing.T) {
		repo := new(mockUserRepo)
		svc := NewUserService(repo, testPasswordConfig())
		req := &types.CreateUserRequest{FullName: "Jane Doe", Email: "jane@example.com", Password: "secret-pass", Company: "Acme"}

		repo.On("CheckEmailExists", ctx, "jane@example.com").Return(false, nil)
		repo.On("CreateUser", ctx, "jane@example.com", mock.MatchedBy(func(h string) bool {
			return bcrypt.CompareHashAndPassword([]byte(h), []byte("secret-pass")) == nil
		})).Return(userID, nil)
		repo.On("CreateUserProfile", ctx, userID, mock.MatchedBy(func(f db.ProfileFields) bool {
			return f.FullName != nil && *f.FullName == "Jane Doe" &&
				f.Company != nil && *f.Company == "Acme" && f.Role == nil
		})).Return(&db.UserProfile{ID: userID, FullName: "Jane Doe"}, nil)
		repo.On("GetUser", ctx, userID).Return(&db.User{ID: userID, Email: "jane@example.com"}, nil)

		user, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "jane@example.com", user.Email)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(mockUserRepo)
		svc := NewUserService(repo, testPasswordConfig())
		repo.On("CheckEmailExists", ctx, "jane@example.com").Return(true, nil)

		_, err := svc.Register(ctx, &types.CreateUserRequest{FullName: "Jane", Email: "jane@example.com", Password: "secret-pass"})
		var exists *ErrEmailAlreadyExists
		require.ErrorAs(t, err, &exists)
		assert.Equal(t, "jane@example.com", exists.Email)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid request", func(t *testing.T) {
		repo := new(mockUserRepo)
		svc := NewUserService(repo, testPasswordConfig())

		_, err := svc.Register(ctx, &types.CreateUserRequest{FullName: "Jane", Email: "not-an-email", Password: "secret-pass"})
		var invalid *ErrValidation
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "email", invalid.Field)
	})

	t.Run("database failure", func(t *testing.T) {
		repo := new(mockUserRepo)
		svc := NewUserService(repo, testPasswordConfig())
		repo.On("CheckEmailExists", ctx, "jane@example.com").Return(false, errors.New("connection refused"))

		_, err := svc.Register(ctx, &types.CreateUserRequest{FullName: "Jane", Email: "jane@example.com", Password: "secret-pass"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	stored := &db.User{ID: userID, Email: "jane@example.com", PasswordHash: hashed(t, "secret-pass")}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(stored, nil)
		svc := NewUserService(repo, testPasswordConfig())

		user, err := svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "secret-pass"})
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(stored, nil)
		svc := NewUserService(repo, testPasswordConfig())

		_, err := svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "wrong-pass"})
		var creds *ErrInvalidCredentials
		assert.ErrorAs(t, err, &creds)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, nil)
		svc := NewUserService(repo, testPasswordConfig())

		_, err := svc.Login(ctx, &types.LoginRequest{Email: "nobody@example.com", Password: "secret-pass"})
		var creds *ErrInvalidCredentials
		assert.ErrorAs(t, err, &creds)
	})
}

func TestUserService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	stored := &db.User{ID: userID, Email: "jane@example.com", PasswordHash: hashed(t, "secret-pass")}

	t.Run("success", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUser", ctx, userID).Return(stored, nil)
		repo.On("UpdatePassword", ctx, userID, mock.AnythingOfType("string")).Return(nil)
		svc := NewUserService(repo, testPasswordConfig())

		err := svc.UpdatePassword(ctx, userID, &types.UpdatePasswordRequest{CurrentPassword: "secret-pass", NewPassword: "new-secret-pass"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("current password mismatch", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUser", ctx, userID).Return(stored, nil)
		svc := NewUserService(repo, testPasswordConfig())

		err := svc.UpdatePassword(ctx, userID, &types.UpdatePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "new-secret-pass"})
		var mismatch *ErrPasswordMismatch
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("user not found", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUser", ctx, userID).Return(nil, nil)
		svc := NewUserService(repo, testPasswordConfig())

		err := svc.UpdatePassword(ctx, userID, &types.UpdatePasswordRequest{CurrentPassword: "secret-pass", NewPassword: "new-secret-pass"})
		var notFound *ErrUserNotFound
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 409, HTTPStatus(&ErrEmailAlreadyExists{}))
	assert.Equal(t, 401, HTTPStatus(&ErrInvalidCredentials{}))
	assert.Equal(t, 401, HTTPStatus(&ErrPasswordMismatch{}))
	assert.Equal(t, 404, HTTPStatus(&ErrUserNotFound{}))
	assert.Equal(t, 400, HTTPStatus(&ErrValidation{}))
	assert.Equal(t, 503, HTTPStatus(ErrRemoteDisabled))
	assert.Equal(t, 0, HTTPStatus(errors.New("other")))
}
