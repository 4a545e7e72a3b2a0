package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) EnsureUserProfile(ctx context.Context, userID uuid.UUID) (*db.UserProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*db.UserProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) UpdateUserProfile(ctx context.Context, userID uuid.UUID, fields db.ProfileFields) (*db.UserProfile, error) {
	args := m.Called(ctx, userID, fields)
	p, _ := args.Get(0).(*db.UserProfile)
	return p, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestProfileService_Get(t *testing.T) {
	repo := new(mockProfileRepo)
	id := uuid.New()
	now := time.Now()
	repo.On("EnsureUserProfile", mock.Anything, id).
		Return(&db.UserProfile{ID: id, FullName: "Jane Doe", CreatedAt: now, UpdatedAt: now}, nil)

	p, err := NewProfileService(repo).Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), p.UserID)
	assert.Equal(t, "Jane Doe", p.FullName)
	repo.AssertExpectations(t)
}

func TestProfileService_Update(t *testing.T) {
	repo := new(mockProfileRepo)
	id := uuid.New()
	update := &types.ProfileUpdate{Company: strPtr("Acme"), Role: strPtr("Recruiter")}

	repo.On("EnsureUserProfile", mock.Anything, id).Return(&db.UserProfile{ID: id}, nil)
	repo.On("UpdateUserProfile", mock.Anything, id, db.ProfileFields{Company: update.Company, Role: update.Role}).
		Return(&db.UserProfile{ID: id, Company: "Acme", Role: "Recruiter"}, nil)

	p, err := NewProfileService(repo).Update(context.Background(), id, update)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "Recruiter", p.Role)
	repo.AssertExpectations(t)
}

func TestProfileService_UpdateEmpty(t *testing.T) {
	repo := new(mockProfileRepo)
	id := uuid.New()
	repo.On("EnsureUserProfile", mock.Anything, id).Return(&db.UserProfile{ID: id, FullName: "Jane"}, nil)

	p, err := NewProfileService(repo).Update(context.Background(), id, &types.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.FullName)
	repo.AssertNotCalled(t, "UpdateUserProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileService_UpdateInvalidAvatar(t *testing.T) {
	repo := new(mockProfileRepo)

	_, err := NewProfileService(repo).Update(context.Background(), uuid.New(),
		&types.ProfileUpdate{AvatarURL: strPtr("not a url")})

	var verr *ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "avatarurl", verr.Field)
	repo.AssertNotCalled(t, "EnsureUserProfile", mock.Anything, mock.Anything)
}
