package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockUserRepo) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*db.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*db.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) CreateUserProfile(ctx context.Context, userID uuid.UUID, fields db.ProfileFields) (*db.UserProfile, error) {
	args := m.Called(ctx, userID, fields)
	p, _ := args.Get(0).(*db.UserProfile)
	return p, args.Error(1)
}
